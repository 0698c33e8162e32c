package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/mwholloway/salescope/internal/app/store/oauthstate"
	"github.com/mwholloway/salescope/internal/app/store/profiles"
	userstore "github.com/mwholloway/salescope/internal/app/store/users"
	"github.com/mwholloway/salescope/internal/app/system/auth"
	"github.com/mwholloway/salescope/internal/app/system/normalize"
	"github.com/mwholloway/salescope/internal/app/system/timeouts"
)

const stateTTL = 10 * time.Minute

// Handler handles Google OAuth sign-in.
type Handler struct {
	Users      *userstore.Store
	Profiles   *profiles.Store
	SessionMgr *auth.SessionManager
	StateStore *oauthstate.Store
	Log        *zap.Logger

	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(users *userstore.Store, profileStore *profiles.Store, sessionMgr *auth.SessionManager, stateStore *oauthstate.Store, clientID, clientSecret, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		Users:        users,
		Profiles:     profileStore,
		SessionMgr:   sessionMgr,
		StateStore:   stateStore,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// ServeStart handles GET /auth/google by redirecting to Google's consent
// screen with a single-use state value.
func (h *Handler) ServeStart(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("google oauth not configured")
		http.Redirect(w, r, "/sign-in?error=google_not_configured", http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate oauth state", zap.Error(err))
		http.Redirect(w, r, "/sign-in?error=internal", http.StatusSeeOther)
		return
	}

	next := query.Get(r, "next")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.StateStore.Save(ctx, state, next, stateTTL); err != nil {
		h.Log.Error("failed to save oauth state", zap.Error(err))
		http.Redirect(w, r, "/sign-in?error=internal", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, h.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline), http.StatusTemporaryRedirect)
}

// ServeCallback handles GET /auth/google/callback: validates the state,
// exchanges the code, upserts the user, and establishes the session.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("google oauth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		http.Redirect(w, r, "/sign-in?error=google_denied", http.StatusSeeOther)
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing oauth state parameter")
		http.Redirect(w, r, "/sign-in?error=invalid_state", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	next, err := h.StateStore.Consume(ctx, state)
	if err != nil {
		if err != oauthstate.ErrNotFound {
			h.Log.Error("failed to validate oauth state", zap.Error(err))
			http.Redirect(w, r, "/sign-in?error=internal", http.StatusSeeOther)
			return
		}
		h.Log.Warn("invalid or expired oauth state")
		http.Redirect(w, r, "/sign-in?error=invalid_state", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing oauth code parameter")
		http.Redirect(w, r, "/sign-in?error=invalid_code", http.StatusSeeOther)
		return
	}

	token, err := h.oauth2Config().Exchange(r.Context(), code)
	if err != nil {
		h.Log.Error("failed to exchange oauth code", zap.Error(err))
		http.Redirect(w, r, "/sign-in?error=token_exchange", http.StatusSeeOther)
		return
	}

	googleUser, err := fetchGoogleUserInfo(r.Context(), token)
	if err != nil {
		h.Log.Error("failed to fetch google user info", zap.Error(err))
		http.Redirect(w, r, "/sign-in?error=user_info", http.StatusSeeOther)
		return
	}
	if !googleUser.EmailVerified {
		h.Log.Warn("google account email not verified", zap.String("email", googleUser.Email))
		http.Redirect(w, r, "/sign-in?error=email_unverified", http.StatusSeeOther)
		return
	}

	user, err := h.Users.UpsertByEmail(ctx, googleUser.Email)
	if err != nil {
		h.Log.Error("failed to upsert oauth user", zap.Error(err))
		http.Redirect(w, r, "/sign-in?error=internal", http.StatusSeeOther)
		return
	}
	if normalize.Status(user.Status) == "disabled" {
		h.Log.Info("google oauth: user disabled", zap.String("user_id", user.ID.Hex()))
		http.Redirect(w, r, "/sign-in?error=account_disabled", http.StatusSeeOther)
		return
	}

	profile, err := h.Profiles.EnsureForUser(ctx, user.ID, user.Email)
	if err != nil {
		h.Log.Error("failed to ensure profile", zap.Error(err))
		http.Redirect(w, r, "/sign-in?error=internal", http.StatusSeeOther)
		return
	}

	name := profile.DisplayName
	if name == "" {
		name = googleUser.Name
	}
	if _, err := h.SessionMgr.Establish(w, r, user.ID, user.Email, name, profile.Role); err != nil {
		h.Log.Error("failed to establish session", zap.Error(err))
		http.Redirect(w, r, "/sign-in?error=internal", http.StatusSeeOther)
		return
	}

	h.Log.Info("user signed in with google", zap.String("user_id", user.ID.Hex()))

	http.Redirect(w, r, urlutil.SafeReturn(next, "", "/"), http.StatusSeeOther)
}

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

// generateState returns a cryptographically random state value.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
