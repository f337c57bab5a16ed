// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/coderhub/coderhub/internal/app/system/seed"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
// CoderHub seeds the judge catalog and role permission templates here so
// registration always finds its role template.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if !appCfg.SeedReferenceData {
		logger.Info("reference data seeding disabled")
		return nil
	}
	return seed.EnsureReferenceData(ctx, deps.MongoDatabase, logger)
}
