package profile

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	uierrors "github.com/mwholloway/salescope/internal/app/features/errors"
	"github.com/mwholloway/salescope/internal/app/store/profiles"
	"github.com/mwholloway/salescope/internal/app/system/auth"
	"github.com/mwholloway/salescope/internal/app/system/htmlsanitize"
	"github.com/mwholloway/salescope/internal/app/system/timeouts"
	"github.com/mwholloway/salescope/internal/app/system/viewdata"
	"github.com/mwholloway/salescope/internal/domain/models"
)

// Handler owns the profile page and the admin role mutation endpoint.
type Handler struct {
	Profiles *profiles.Store
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(profileStore *profiles.Store, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Profiles: profileStore,
		ErrLog:   errLog,
		Log:      logger,
	}
}

type pageData struct {
	viewdata.BaseVM
	DisplayName string
	Email       string
	ProfileRole string
	IsAdmin     bool
	Saved       bool
	Error       string
}

// ServePage handles GET /profile.
func (h *Handler) ServePage(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "malformed user id in session", err, "Please sign in again.", "/sign-in")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Profiles.EnsureForUser(ctx, userID, user.Email)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load profile", err, "Unable to load your profile.", "/")
		return
	}

	templates.Render(w, r, "profile", pageData{
		BaseVM:      viewdata.NewBaseVM(r, "Profile", "/"),
		DisplayName: p.DisplayName,
		Email:       p.Email,
		ProfileRole: p.Role,
		IsAdmin:     p.Role == models.RoleAdmin,
		Saved:       r.URL.Query().Get("saved") == "1",
	})
}

// HandleUpdate handles POST /profile. The display name is sanitized before
// storage so markup never round-trips into other pages.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/profile")
		return
	}

	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "malformed user id in session", err, "Please sign in again.", "/sign-in")
		return
	}

	name := htmlsanitize.DisplayName(r.FormValue("display_name"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Profiles.SetDisplayName(ctx, userID, name); err != nil {
		h.ErrLog.LogServerError(w, r, "set display name", err, "Unable to save your profile.", "/profile")
		return
	}
	http.Redirect(w, r, "/profile?saved=1", http.StatusSeeOther)
}

// HandleSetRole handles POST /profile/role. The caller's admin status is
// checked against the profile store on every call; the session's cached role
// is never trusted for this.
func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/profile")
		return
	}

	callerID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "malformed user id in session", err, "Please sign in again.", "/sign-in")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	caller, err := h.Profiles.GetByUser(ctx, callerID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load caller profile", err, "Unable to verify your permissions.", "/profile")
		return
	}
	if caller.Role != models.RoleAdmin {
		h.Log.Warn("role change rejected",
			zap.String("caller_id", user.ID),
			zap.String("caller_role", caller.Role))
		uierrors.RenderForbidden(w, r, "Only administrators can change roles.", "/profile")
		return
	}

	targetID, err := primitive.ObjectIDFromHex(strings.TrimSpace(r.FormValue("user_id")))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad role target", err, "That user id is not valid.", "/profile")
		return
	}
	role := r.FormValue("role")

	if err := h.Profiles.SetRole(ctx, targetID, role); err != nil {
		h.ErrLog.LogBadRequest(w, r, "set role failed", err, "Unable to change that role.", "/profile")
		return
	}

	h.Log.Info("role changed",
		zap.String("caller_id", user.ID),
		zap.String("target_id", targetID.Hex()),
		zap.String("role", role))

	http.Redirect(w, r, "/profile?saved=1", http.StatusSeeOther)
}
