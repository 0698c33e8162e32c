// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/mwholloway/salescope/internal/app/resources"
	"github.com/mwholloway/salescope/internal/app/store/metricrows"
	"github.com/mwholloway/salescope/internal/app/store/refreshtokens"
	"github.com/mwholloway/salescope/internal/app/system/workers"
	"github.com/mwholloway/salescope/internal/domain/models"
)

// tokenCleanup sweeps expired refresh tokens in the background. It is
// started here and stopped in Shutdown.
var tokenCleanup *workers.TokenCleanup

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It is the
// place to load shared resources (like templates), warm caches, or perform
// any app-wide setup that depends on config and backends.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	if appCfg.SeedDemoMetrics {
		if err := seedDemoMetrics(ctx, deps, appCfg.SeedDemoDays, logger); err != nil {
			return err
		}
	}

	tokenCleanup = workers.NewTokenCleanup(
		refreshtokens.New(deps.SaleScopeMongoDatabase), logger, appCfg.TokenCleanupInterval)
	tokenCleanup.Start()

	return nil
}

// seedDemoMetrics backfills synthetic metric rows for every account that has
// none, so a fresh install has something to show on the dashboard. Accounts
// with real rows are left untouched.
func seedDemoMetrics(ctx context.Context, deps DBDeps, days int, logger *zap.Logger) error {
	db := deps.SaleScopeMongoDatabase
	metrics := metricrows.New(db)

	cur, err := db.Collection("users").Find(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("list users for demo seed: %w", err)
	}
	defer cur.Close(ctx)

	seeded := 0
	for cur.Next(ctx) {
		var user models.User
		if err := cur.Decode(&user); err != nil {
			return fmt.Errorf("decode user for demo seed: %w", err)
		}

		has, err := metrics.HasAny(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("check metrics for %s: %w", user.ID.Hex(), err)
		}
		if has {
			continue
		}
		if err := metrics.SeedDemo(ctx, user.ID, days); err != nil {
			return fmt.Errorf("seed metrics for %s: %w", user.ID.Hex(), err)
		}
		seeded++
	}
	if err := cur.Err(); err != nil {
		return fmt.Errorf("iterate users for demo seed: %w", err)
	}

	if seeded > 0 {
		logger.Info("seeded demo metrics", zap.Int("accounts", seeded), zap.Int("days", days))
	}
	return nil
}
