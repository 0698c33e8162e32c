// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"

	authgooglefeature "github.com/mwholloway/salescope/internal/app/features/authgoogle"
	dashboardfeature "github.com/mwholloway/salescope/internal/app/features/dashboard"
	errorsfeature "github.com/mwholloway/salescope/internal/app/features/errors"
	healthfeature "github.com/mwholloway/salescope/internal/app/features/health"
	metricsapifeature "github.com/mwholloway/salescope/internal/app/features/metricsapi"
	profilefeature "github.com/mwholloway/salescope/internal/app/features/profile"
	sessionapifeature "github.com/mwholloway/salescope/internal/app/features/sessionapi"
	signinfeature "github.com/mwholloway/salescope/internal/app/features/signin"
	signoutfeature "github.com/mwholloway/salescope/internal/app/features/signout"
	signupfeature "github.com/mwholloway/salescope/internal/app/features/signup"
	"github.com/mwholloway/salescope/internal/app/guard"
	"github.com/mwholloway/salescope/internal/app/store/metricrows"
	"github.com/mwholloway/salescope/internal/app/store/oauthstate"
	"github.com/mwholloway/salescope/internal/app/store/profiles"
	"github.com/mwholloway/salescope/internal/app/store/refreshtokens"
	userstore "github.com/mwholloway/salescope/internal/app/store/users"
	"github.com/mwholloway/salescope/internal/app/system/auth"
	"github.com/mwholloway/salescope/internal/app/system/metricsvc"
	"github.com/mwholloway/salescope/internal/app/system/ratelimit"
	"github.com/mwholloway/salescope/internal/app/system/tokens"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// SaleScope initializes the template engine, applies the session loader and
// routing guard, and mounts feature routers for the dashboard, sign-in and
// sign-up flows, Google OAuth, the profile page, and the JSON APIs.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	db := deps.SaleScopeMongoDatabase

	issuer, err := tokens.NewIssuer(appCfg.TokenSigningKey, appCfg.AccessTokenTTL)
	if err != nil {
		logger.Error("token issuer init failed", zap.Error(err))
		return nil, err
	}

	users := userstore.New(db)
	profileStore := profiles.New(db)
	refreshStore := refreshtokens.New(db)
	metricStore := metricrows.New(db)
	stateStore := oauthstate.New(db)

	// Secure cookies are enabled in production mode.
	sessionMgr := auth.NewSessionManager(auth.Config{
		SessionKey: appCfg.SessionKey,
		CookieName: appCfg.SessionName,
		Domain:     appCfg.SessionDomain,
		Secure:     secure,
		SessionTTL: appCfg.SessionTTL,
		RefreshTTL: appCfg.RefreshTokenTTL,
	}, issuer, refreshStore, users, logger)

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)
	metricSvc := metricsvc.New(profileStore, metricStore, logger)
	limiter := ratelimit.NewCredentialLimiter()

	googleHandler := authgooglefeature.NewHandler(users, profileStore, sessionMgr, stateStore,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	dashboardHandler := dashboardfeature.NewHandler(metricSvc, sessionMgr, errLog, logger)

	r := chi.NewRouter()

	// Global auth middleware: resolves the session (refreshing expired access
	// tokens) and loads the SessionUser into the request context.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.SaleScopeMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// JSON APIs. These authenticate with the session cookie or explicit token
	// pairs, not CSRF form tokens, so they sit outside the CSRF group.
	sessionAPIHandler := sessionapifeature.NewHandler(sessionMgr, logger)
	r.Mount("/api/auth", sessionapifeature.Routes(sessionAPIHandler))

	metricsAPIHandler := metricsapifeature.NewHandler(metricSvc, logger)
	r.Mount("/api/metrics", metricsapifeature.Routes(metricsAPIHandler))

	csrfMW := csrf.Protect([]byte(appCfg.SessionKey), csrf.Secure(secure), csrf.Path("/"))

	// Browser-facing routes: CSRF-protected forms plus the routing guard.
	r.Group(func(r chi.Router) {
		r.Use(csrfMW)

		// The dashboard's polled fragment handles expiry itself (one retry,
		// then an HX-Redirect), so the guard does not intercept it.
		r.Mount("/dashboard", dashboardfeature.DataRoutes(dashboardHandler))

		r.Group(func(r chi.Router) {
			r.Use(guard.Default().Middleware)

			r.Mount("/", dashboardfeature.Routes(dashboardHandler))

			signinHandler := signinfeature.NewHandler(users, profileStore, sessionMgr, errLog, limiter, googleHandler.IsConfigured(), logger)
			r.Mount("/sign-in", signinfeature.Routes(signinHandler))

			signupHandler := signupfeature.NewHandler(users, profileStore, sessionMgr, errLog, limiter, logger)
			r.Mount("/sign-up", signupfeature.Routes(signupHandler))

			signoutHandler := signoutfeature.NewHandler(sessionMgr, logger)
			r.Mount("/sign-out", signoutfeature.Routes(signoutHandler))

			r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

			profileHandler := profilefeature.NewHandler(profileStore, errLog, logger)
			r.Route("/profile", func(r chi.Router) {
				r.Use(auth.RequireSignedIn)
				r.Mount("/", profilefeature.Routes(profileHandler))
			})

			errorsHandler := errorsfeature.NewHandler()
			r.Get("/forbidden", errorsHandler.Forbidden)
			r.Get("/unauthorized", errorsHandler.Unauthorized)
		})
	})

	return r, nil
}
