package rolestore

import (
	"context"
	"time"

	"github.com/coderhub/coderhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("roles")}
}

// GetByName loads a role template. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := s.c.FindOne(ctx, bson.M{"name": name}).Decode(&role); err != nil {
		return nil, err
	}
	return &role, nil
}

// Upsert writes a role template by name. The seeder calls this at
// startup so permission changes ship with the binary.
func (s *Store) Upsert(ctx context.Context, name string, permissions map[string][]string) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"permissions": permissions,
			"updated_at":  now,
		},
		"$setOnInsert": bson.M{
			"name":       name,
			"created_at": now,
		},
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"name": name}, update, options.Update().SetUpsert(true))
	return err
}
