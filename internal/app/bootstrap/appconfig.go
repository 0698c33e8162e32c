// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//   - Database connection timeouts
//
// AppConfig is where you put everything specific to YOUR application.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connections in the driver pool
	MongoMinPoolSize uint64 // Min connections kept warm in the driver pool

	// Session cookie configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: salescope-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionTTL    time.Duration // Session cookie lifetime

	// Token configuration. The access token is a short-lived signed JWT; the
	// refresh token is an opaque single-use value stored server-side.
	TokenSigningKey string        // HMAC key for signing access tokens
	AccessTokenTTL  time.Duration // Access token lifetime (e.g., 15m)
	RefreshTokenTTL time.Duration // Refresh token lifetime (e.g., 720h)

	// Interval between sweeps of expired refresh tokens
	TokenCleanupInterval time.Duration

	// Google OAuth configuration (sign-in with Google is hidden when unset)
	GoogleClientID     string
	GoogleClientSecret string

	// Base URL for OAuth callbacks (e.g., "https://salescope.example.com")
	BaseURL string

	// Seed synthetic metric rows for accounts that have none. Intended for
	// demos and local development only.
	SeedDemoMetrics bool
	SeedDemoDays    int
}
