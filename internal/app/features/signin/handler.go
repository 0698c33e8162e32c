package signin

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/mongo"
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
)

// credentialsMessage is the single message shown for any credential failure,
// so the form does not reveal whether an account exists.
const credentialsMessage = "Invalid login credentials."

type Handler struct {
	Users         *userstore.Store
	Profiles      *profiles.Store
	SessionMgr    *auth.SessionManager
	ErrLog        *uierrors.ErrorLogger
	Limiter       *ratelimit.CredentialLimiter
	GoogleEnabled bool
	Log           *zap.Logger
}

func NewHandler(users *userstore.Store, profileStore *profiles.Store, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, limiter *ratelimit.CredentialLimiter, googleEnabled bool, logger *zap.Logger) *Handler {
	return &Handler{
		Users:         users,
		Profiles:      profileStore,
		SessionMgr:    sessionMgr,
		ErrLog:        errLog,
		Limiter:       limiter,
		GoogleEnabled: googleEnabled,
		Log:           logger,
	}
}

type formData struct {
	viewdata.BaseVM
	Error         string
	ErrorField    string // "email", "password", or "" for the general alert
	Email         string
	Next          string
	GoogleEnabled bool
}

// errorField routes a message to the input it talks about. The generic
// credentials message names neither field and lands in the general alert.
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

// ServeForm handles GET /sign-in.
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "signin", formData{
		BaseVM:        viewdata.NewBaseVM(r, "Sign in", "/"),
		Next:          query.Get(r, "next"),
		GoogleEnabled: h.GoogleEnabled,
	})
}

// HandlePost handles POST /sign-in.
func (h *Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/sign-in")
		return
	}

	email := normalize.Email(r.FormValue("email"))
	password := r.FormValue("password")
	next := strings.TrimSpace(r.FormValue("next"))

	if email == "" || password == "" {
		h.renderFormWithError(w, r, "Please enter your email and password.", email, next)
		return
	}

	if ok, reason := h.Limiter.Check(r, email); !ok {
		h.renderFormWithError(w, r, reason, email, next)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByEmail(ctx, email)
	switch err {
	case nil:
		// found, continue
	case mongo.ErrNoDocuments:
		h.renderFormWithError(w, r, credentialsMessage, email, next)
		return
	default:
		h.ErrLog.LogServerError(w, r, "find user by email", err, "A server error occurred.", "/sign-in")
		return
	}

	if normalize.Status(user.Status) == "disabled" {
		h.renderFormWithError(w, r, "Your account is currently disabled. Please contact an administrator.", email, next)
		return
	}
	if user.PasswordHash == nil {
		// OAuth-only account.
		h.renderFormWithError(w, r, "This account signs in with Google.", email, next)
		return
	}
	if !authutil.CheckPassword(*user.PasswordHash, password) {
		h.renderFormWithError(w, r, credentialsMessage, email, next)
		return
	}

	profile, err := h.Profiles.EnsureForUser(ctx, user.ID, user.Email)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "ensure profile", err, "A server error occurred.", "/sign-in")
		return
	}

	if _, err := h.SessionMgr.Establish(w, r, user.ID, user.Email, profile.DisplayName, profile.Role); err != nil {
		h.ErrLog.LogServerError(w, r, "establish session", err, "A server error occurred.", "/sign-in")
		return
	}
	h.Limiter.ResetEmail(email)

	h.Log.Info("user signed in",
		zap.String("user_id", user.ID.Hex()),
		zap.String("role", profile.Role))

	http.Redirect(w, r, urlutil.SafeReturn(next, "", "/"), http.StatusSeeOther)
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg, email, next string) {
	templates.Render(w, r, "signin", formData{
		BaseVM:        viewdata.NewBaseVM(r, "Sign in", "/"),
		Error:         msg,
		ErrorField:    errorField(msg),
		Email:         email,
		Next:          next,
		GoogleEnabled: h.GoogleEnabled,
	})
}
