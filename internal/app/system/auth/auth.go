// Package auth bridges the access/refresh token pair into a cookie-backed
// browser session. The access token is the source of truth for identity; when
// it expires mid-session the refresh token is redeemed for a new pair and the
// cookie is rewritten, all transparently to the handler.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mwholloway/salescope/internal/app/store/refreshtokens"
	userstore "github.com/mwholloway/salescope/internal/app/store/users"
	"github.com/mwholloway/salescope/internal/app/system/timeouts"
	"github.com/mwholloway/salescope/internal/app/system/tokens"
)

type contextKey string

const userContextKey contextKey = "session_user"

// Session value keys.
const (
	keyUserID  = "user_id"
	keyEmail   = "email"
	keyName    = "name"
	keyRole    = "role"
	keyAccess  = "access_token"
	keyRefresh = "refresh_token"
)

// SessionUser is the signed-in identity attached to the request context.
type SessionUser struct {
	ID    string
	Email string
	Name  string
	Role  string
}

// SessionManager owns the session cookie and the token pair inside it.
type SessionManager struct {
	store      *sessions.CookieStore
	name       string
	issuer     *tokens.Issuer
	refresh    *refreshtokens.Store
	users      *userstore.Store
	refreshTTL time.Duration
	logger     *zap.Logger
}

// Config carries the cookie and token settings for NewSessionManager.
type Config struct {
	SessionKey string
	CookieName string
	Domain     string
	Secure     bool
	SessionTTL time.Duration
	RefreshTTL time.Duration
}

// NewSessionManager builds the session manager. The cookie is scoped to "/",
// SameSite Lax, HttpOnly, and Secure only when the deployment says so. No
// Domain attribute is set unless one is configured.
func NewSessionManager(cfg Config, issuer *tokens.Issuer, refresh *refreshtokens.Store, users *userstore.Store, logger *zap.Logger) *SessionManager {
	store := sessions.NewCookieStore([]byte(cfg.SessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   int(cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{
		store:      store,
		name:       cfg.CookieName,
		issuer:     issuer,
		refresh:    refresh,
		users:      users,
		refreshTTL: cfg.RefreshTTL,
		logger:     logger,
	}
}

// Establish signs a user in: mints a fresh token pair, persists the refresh
// token, and writes the session cookie.
func (m *SessionManager) Establish(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID, email, name, role string) (tokens.Pair, error) {
	access, err := m.issuer.MintAccess(userID.Hex(), email)
	if err != nil {
		return tokens.Pair{}, err
	}
	refreshTok := tokens.NewRefreshToken()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := m.refresh.Save(ctx, refreshTok, userID, m.refreshTTL); err != nil {
		return tokens.Pair{}, err
	}

	pair := tokens.Pair{AccessToken: access, RefreshToken: refreshTok}
	if err := m.writeSession(w, r, SessionUser{
		ID:    userID.Hex(),
		Email: email,
		Name:  name,
		Role:  role,
	}, pair); err != nil {
		return tokens.Pair{}, err
	}
	return pair, nil
}

// EstablishFromPair accepts an externally supplied token pair, as posted to
// the session API, and writes the session cookie. The access token must be
// genuine; an expired one is acceptable since the refresh path will rotate
// it on the next request.
func (m *SessionManager) EstablishFromPair(w http.ResponseWriter, r *http.Request, pair tokens.Pair) error {
	claims, err := m.issuer.Verify(pair.AccessToken)
	if err != nil && err != tokens.ErrExpired {
		return err
	}
	return m.writeSession(w, r, SessionUser{
		ID:    claims.UserID,
		Email: claims.Email,
	}, pair)
}

func (m *SessionManager) writeSession(w http.ResponseWriter, r *http.Request, u SessionUser, pair tokens.Pair) error {
	session, _ := m.store.Get(r, m.name)
	session.Values[keyUserID] = u.ID
	session.Values[keyEmail] = u.Email
	session.Values[keyName] = u.Name
	session.Values[keyRole] = u.Role
	session.Values[keyAccess] = pair.AccessToken
	session.Values[keyRefresh] = pair.RefreshToken
	return session.Save(r, w)
}

// Clear removes the session cookie and revokes the outstanding refresh
// token. Clearing an absent session is a no-op, so sign-out is idempotent.
func (m *SessionManager) Clear(w http.ResponseWriter, r *http.Request) {
	session, err := m.store.Get(r, m.name)
	if err == nil {
		if id, ok := session.Values[keyUserID].(string); ok && id != "" {
			if oid, oerr := primitive.ObjectIDFromHex(id); oerr == nil {
				ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
				defer cancel()
				if derr := m.refresh.DeleteByUser(ctx, oid); derr != nil {
					m.logger.Warn("revoke refresh tokens", zap.Error(derr))
				}
			}
		}
	}

	// Expire the cookie with the same attributes it was set with, or the
	// browser keeps the old one.
	session, _ = m.store.New(r, m.name)
	session.Options = &sessions.Options{
		Path:     m.store.Options.Path,
		Domain:   m.store.Options.Domain,
		MaxAge:   -1,
		HttpOnly: m.store.Options.HttpOnly,
		Secure:   m.store.Options.Secure,
		SameSite: m.store.Options.SameSite,
	}
	_ = session.Save(r, w)
}

// Resolve returns the signed-in user for a request, or nil when there is no
// usable session. An expired access token triggers one refresh attempt; a
// successful refresh rotates the pair and rewrites the cookie.
func (m *SessionManager) Resolve(w http.ResponseWriter, r *http.Request) *SessionUser {
	session, err := m.store.Get(r, m.name)
	if err != nil {
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			// Stale or tampered cookie. Drop it and move on.
			m.Clear(w, r)
			return nil
		}
		m.logger.Warn("read session", zap.Error(err))
		return nil
	}

	access, _ := session.Values[keyAccess].(string)
	if access == "" {
		return nil
	}

	claims, err := m.issuer.Verify(access)
	switch err {
	case nil:
		return m.userFromSession(session, claims)
	case tokens.ErrExpired:
		return m.refreshSession(w, r, session)
	default:
		m.Clear(w, r)
		return nil
	}
}

func (m *SessionManager) userFromSession(session *sessions.Session, claims tokens.Claims) *SessionUser {
	u := &SessionUser{ID: claims.UserID, Email: claims.Email}
	if name, ok := session.Values[keyName].(string); ok {
		u.Name = name
	}
	if role, ok := session.Values[keyRole].(string); ok {
		u.Role = role
	}
	return u
}

func (m *SessionManager) refreshSession(w http.ResponseWriter, r *http.Request, session *sessions.Session) *SessionUser {
	refreshTok, _ := session.Values[keyRefresh].(string)
	if refreshTok == "" {
		m.Clear(w, r)
		return nil
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	userID, err := m.refresh.Redeem(ctx, refreshTok)
	if err != nil {
		if err != refreshtokens.ErrNotFound {
			m.logger.Error("redeem refresh token", zap.Error(err))
		}
		m.Clear(w, r)
		return nil
	}

	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		m.logger.Error("load user on refresh", zap.String("user_id", userID.Hex()), zap.Error(err))
		m.Clear(w, r)
		return nil
	}

	access, err := m.issuer.MintAccess(userID.Hex(), user.Email)
	if err != nil {
		m.logger.Error("mint access token on refresh", zap.Error(err))
		m.Clear(w, r)
		return nil
	}
	newRefresh := tokens.NewRefreshToken()
	if err := m.refresh.Save(ctx, newRefresh, userID, m.refreshTTL); err != nil {
		m.logger.Error("save rotated refresh token", zap.Error(err))
		m.Clear(w, r)
		return nil
	}

	u := SessionUser{ID: userID.Hex(), Email: user.Email}
	if name, ok := session.Values[keyName].(string); ok {
		u.Name = name
	}
	if role, ok := session.Values[keyRole].(string); ok {
		u.Role = role
	}
	pair := tokens.Pair{AccessToken: access, RefreshToken: newRefresh}
	if err := m.writeSession(w, r, u, pair); err != nil {
		m.logger.Error("rewrite session after refresh", zap.Error(err))
		return nil
	}
	return &u
}

// LoadSessionUser resolves the session once per request and stores the
// result in the context for downstream handlers.
func (m *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := m.Resolve(w, r); u != nil {
			r = r.WithContext(context.WithValue(r.Context(), userContextKey, u))
		}
		next.ServeHTTP(w, r)
	})
}

// UserFromContext returns the signed-in user, or nil.
func UserFromContext(ctx context.Context) *SessionUser {
	u, _ := ctx.Value(userContextKey).(*SessionUser)
	return u
}

// WithTestUser injects a session user directly into the request context.
// Handler tests use it to bypass the cookie machinery.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userContextKey, u))
}

// RequireSignedIn rejects anonymous requests. Browser navigations are sent
// to the sign-in page with a next parameter; API and HTMX requests get a
// structured 401 instead.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			denyUnauthenticated(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole allows only users holding one of the given roles. Anonymous
// requests are treated as unauthenticated rather than forbidden.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := UserFromContext(r.Context())
			if u == nil {
				denyUnauthenticated(w, r)
				return
			}
			for _, role := range roles {
				if u.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			denyForbidden(w, r)
		})
	}
}

func denyUnauthenticated(w http.ResponseWriter, r *http.Request) {
	signIn := "/sign-in?next=" + url.QueryEscape(r.URL.RequestURI())
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", signIn)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if wantsJSON(r) {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	http.Redirect(w, r, signIn, http.StatusSeeOther)
}

func denyForbidden(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) || r.Header.Get("HX-Request") == "true" {
		writeJSONError(w, http.StatusForbidden, "insufficient permissions")
		return
	}
	http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
}

func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
