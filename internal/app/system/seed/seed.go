// Package seed writes the reference data the platform assumes exists:
// the external judge catalog and the role permission templates.
package seed

import (
	"context"

	judgestore "github.com/coderhub/coderhub/internal/app/store/judges"
	rolestore "github.com/coderhub/coderhub/internal/app/store/roles"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// RoleUser and RoleAdmin are the role template names registration and
// administration rely on.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var defaultJudges = []struct {
	name string
	url  string
}{
	{"UVa Online Judge", "https://uva.onlinejudge.org/"},
	{"Codeforces", "https://codeforces.com/"},
	{"HackerRank", "https://www.hackerrank.com/"},
	{"Kattis", "https://open.kattis.com/"},
}

// userPermissions is what every self-registered user can do.
func userPermissions() map[string][]string {
	return map[string][]string{
		"user":  {"user:see", "user:link"},
		"hub":   {"hub:see", "hub:create", "hub:update"},
		"judge": {"judge:see"},
	}
}

// adminPermissions extends the user set with destructive operations and
// the override that lets an admin link/unlink other users' accounts.
func adminPermissions() map[string][]string {
	perms := userPermissions()
	perms["hub"] = append(perms["hub"], "hub:delete")
	perms["user"] = append(perms["user"], "user:admin")
	return perms
}

// EnsureReferenceData idempotently seeds judges and role templates.
func EnsureReferenceData(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	judges := judgestore.New(db)
	for _, j := range defaultJudges {
		if err := judges.EnsureByName(ctx, j.name, j.url); err != nil {
			logger.Error("judge seed failed", zap.String("judge", j.name), zap.Error(err))
			return err
		}
	}

	roles := rolestore.New(db)
	if err := roles.Upsert(ctx, RoleUser, userPermissions()); err != nil {
		logger.Error("role seed failed", zap.String("role", RoleUser), zap.Error(err))
		return err
	}
	if err := roles.Upsert(ctx, RoleAdmin, adminPermissions()); err != nil {
		logger.Error("role seed failed", zap.String("role", RoleAdmin), zap.Error(err))
		return err
	}

	logger.Info("reference data ensured",
		zap.Int("judges", len(defaultJudges)))
	return nil
}
