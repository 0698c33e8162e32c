// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"
const devSigningKey = "dev-only-signing-key-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for SaleScope.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: SALESCOPE_MONGO_URI, SALESCOPE_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "salescope", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Session cookie configuration
	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "salescope-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_ttl", Default: "720h", Desc: "Session cookie lifetime (e.g., 720h)"},

	// Token configuration
	{Name: "token_signing_key", Default: devSigningKey, Desc: "HMAC key for signing access tokens"},
	{Name: "access_token_ttl", Default: "15m", Desc: "Access token lifetime (e.g., 15m)"},
	{Name: "refresh_token_ttl", Default: "720h", Desc: "Refresh token lifetime (e.g., 720h)"},
	{Name: "token_cleanup_interval", Default: "1h", Desc: "Interval between expired refresh token sweeps"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	// Base URL for OAuth callbacks
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for OAuth callbacks"},

	// Demo data seeding
	{Name: "seed_demo_metrics", Default: false, Desc: "Seed synthetic metric rows for accounts that have none"},
	{Name: "seed_demo_days", Default: 60, Desc: "How many days of synthetic metrics to seed"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
// CoreConfig comes from the shared WAFFLE layer; AppConfig is specific
// to this app and can be extended as the app grows.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, SALESCOPE_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "SALESCOPE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionTTL:    appValues.Duration("session_ttl", 720*time.Hour),

		TokenSigningKey:      appValues.String("token_signing_key"),
		AccessTokenTTL:       appValues.Duration("access_token_ttl", 15*time.Minute),
		RefreshTokenTTL:      appValues.Duration("refresh_token_ttl", 720*time.Hour),
		TokenCleanupInterval: appValues.Duration("token_cleanup_interval", time.Hour),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		BaseURL: appValues.String("base_url"),

		SeedDemoMetrics: appValues.Bool("seed_demo_metrics"),
		SeedDemoDays:    appValues.Int("seed_demo_days"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// This is the right place to enforce required fields or invariants that
// involve both the core and app configs.
//
// SaleScope validates the MongoDB URI format to catch configuration
// errors early, and refuses to start in production with the development
// placeholder secrets.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if coreCfg.Env == "prod" {
		if appCfg.SessionKey == devSessionKey {
			return fmt.Errorf("session_key must be set in production")
		}
		if appCfg.TokenSigningKey == devSigningKey {
			return fmt.Errorf("token_signing_key must be set in production")
		}
		if appCfg.SeedDemoMetrics {
			return fmt.Errorf("seed_demo_metrics must not be enabled in production")
		}
	}

	if appCfg.AccessTokenTTL <= 0 || appCfg.RefreshTokenTTL <= appCfg.AccessTokenTTL {
		return fmt.Errorf("refresh_token_ttl (%s) must exceed access_token_ttl (%s)",
			appCfg.RefreshTokenTTL, appCfg.AccessTokenTTL)
	}

	return nil
}
