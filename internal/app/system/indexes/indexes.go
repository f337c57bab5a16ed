// Package indexes ensures the unique indexes the uniqueness invariants
// rely on. Handler pre-checks only exist to produce friendly error
// messages; these indexes are the source of truth.
package indexes

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnsureAll is called at startup. Each ensure step is idempotent;
// problems are aggregated so startup can fail fast with everything
// that is wrong.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	var problems []string

	if err := ensureUnique(ctx, db, "users", "email", logger); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureUnique(ctx, db, "hubs", "unique_key", logger); err != nil {
		problems = append(problems, "hubs: "+err.Error())
	}
	if err := ensureUnique(ctx, db, "roles", "name", logger); err != nil {
		problems = append(problems, "roles: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureUnique(ctx context.Context, db *mongo.Database, coll, field string, logger *zap.Logger) error {
	name := "uniq_" + field
	_, err := db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true).SetName(name),
	})
	if err != nil {
		// Same keys under a different name from an older deploy.
		if strings.Contains(err.Error(), "IndexOptionsConflict") {
			logger.Warn("index exists with different options",
				zap.String("collection", coll), zap.String("index", name))
			return nil
		}
		return err
	}
	logger.Info("index ensured", zap.String("collection", coll), zap.String("index", name))
	return nil
}
