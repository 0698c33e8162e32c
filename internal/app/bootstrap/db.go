// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/mwholloway/salescope/internal/app/store/metricrows"
	"github.com/mwholloway/salescope/internal/app/store/oauthstate"
	"github.com/mwholloway/salescope/internal/app/store/profiles"
	"github.com/mwholloway/salescope/internal/app/store/refreshtokens"
	userstore "github.com/mwholloway/salescope/internal/app/store/users"
	"github.com/mwholloway/salescope/internal/app/system/timeouts"
)

// ConnectDB establishes the MongoDB connection used by all stores.
// The connection is verified with a ping before the deps are handed to
// the rest of the lifecycle.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", appCfg.MongoMaxPoolSize))

	return DBDeps{
		SaleScopeMongoClient:   client,
		SaleScopeMongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes every store depends on. Index creation
// is idempotent, so this runs on every startup.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.SaleScopeMongoDatabase

	type indexer interface {
		EnsureIndexes(ctx context.Context) error
	}
	stores := map[string]indexer{
		"users":          userstore.New(db),
		"profiles":       profiles.New(db),
		"refresh_tokens": refreshtokens.New(db),
		"metric_rows":    metricrows.New(db),
		"oauth_states":   oauthstate.New(db),
	}

	for name, s := range stores {
		if err := s.EnsureIndexes(ctx); err != nil {
			logger.Error("index creation failed", zap.String("collection", name), zap.Error(err))
			return fmt.Errorf("ensure indexes for %s: %w", name, err)
		}
	}

	logger.Info("schema ready", zap.Int("collections", len(stores)))
	return nil
}
