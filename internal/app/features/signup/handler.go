package signup

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"

	uierrors "github.com/mwholloway/salescope/internal/app/features/errors"
	"github.com/mwholloway/salescope/internal/app/store/profiles"
	userstore "github.com/mwholloway/salescope/internal/app/store/users"
	"github.com/mwholloway/salescope/internal/app/system/auth"
	"github.com/mwholloway/salescope/internal/app/system/authutil"
	"github.com/mwholloway/salescope/internal/app/system/normalize"
	"github.com/mwholloway/salescope/internal/app/system/ratelimit"
	"github.com/mwholloway/salescope/internal/app/system/timeouts"
	"github.com/mwholloway/salescope/internal/app/system/viewdata"
	"github.com/mwholloway/salescope/internal/domain/models"
)

type Handler struct {
	Users      *userstore.Store
	Profiles   *profiles.Store
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Limiter    *ratelimit.CredentialLimiter
	Log        *zap.Logger
}

func NewHandler(users *userstore.Store, profileStore *profiles.Store, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, limiter *ratelimit.CredentialLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		Profiles:   profileStore,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		Limiter:    limiter,
		Log:        logger,
	}
}

type formData struct {
	viewdata.BaseVM
	Error         string
	ErrorField    string // "email", "password", or "" for the general alert
	Email         string
	Next          string
	PasswordRules string
}

// errorField routes a message to the input it talks about, so the error
// renders next to the relevant field instead of in the general alert.
func errorField(msg string) string {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "email"):
		return "email"
	case strings.Contains(lower, "password"):
		return "password"
	default:
		return ""
	}
}

// ServeForm handles GET /sign-up.
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "signup", formData{
		BaseVM:        viewdata.NewBaseVM(r, "Sign up", "/sign-in"),
		Next:          query.Get(r, "next"),
		PasswordRules: authutil.PasswordRules(),
	})
}

// HandlePost handles POST /sign-up.
func (h *Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/sign-up")
		return
	}

	email := normalize.Email(r.FormValue("email"))
	password := r.FormValue("password")
	next := strings.TrimSpace(r.FormValue("next"))

	if email == "" {
		h.renderFormWithError(w, r, "Please enter your email.", email, next)
		return
	}
	if err := authutil.ValidatePassword(password); err != nil {
		h.renderFormWithError(w, r, err.Error(), email, next)
		return
	}
	if ok, reason := h.Limiter.Check(r, email); !ok {
		h.renderFormWithError(w, r, reason, email, next)
		return
	}

	hash, err := authutil.HashPassword(password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password", err, "A server error occurred.", "/sign-up")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.Create(ctx, models.User{Email: email, PasswordHash: &hash})
	switch err {
	case nil:
		// created, continue
	case userstore.ErrDuplicateEmail:
		h.renderFormWithError(w, r, "An account with this email already exists. Try signing in instead.", email, next)
		return
	default:
		h.ErrLog.LogServerError(w, r, "create user", err, "A server error occurred.", "/sign-up")
		return
	}

	profile, err := h.Profiles.EnsureForUser(ctx, user.ID, user.Email)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "ensure profile", err, "A server error occurred.", "/sign-up")
		return
	}

	if _, err := h.SessionMgr.Establish(w, r, user.ID, user.Email, profile.DisplayName, profile.Role); err != nil {
		h.ErrLog.LogServerError(w, r, "establish session", err, "A server error occurred.", "/sign-up")
		return
	}

	h.Log.Info("user signed up", zap.String("user_id", user.ID.Hex()))

	http.Redirect(w, r, urlutil.SafeReturn(next, "", "/"), http.StatusSeeOther)
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg, email, next string) {
	templates.Render(w, r, "signup", formData{
		BaseVM:        viewdata.NewBaseVM(r, "Sign up", "/sign-in"),
		Error:         msg,
		ErrorField:    errorField(msg),
		Email:         email,
		Next:          next,
		PasswordRules: authutil.PasswordRules(),
	})
}
