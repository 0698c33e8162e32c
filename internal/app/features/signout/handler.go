package signout

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mwholloway/salescope/internal/app/system/auth"
)

type Handler struct {
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{SessionMgr: sessionMgr, Log: logger}
}

// Serve handles GET /sign-out. Clearing is idempotent, so signing out twice
// or with no session at all still lands on the sign-in page.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	if u := auth.UserFromContext(r.Context()); u != nil {
		h.Log.Info("user signed out", zap.String("user_id", u.ID))
	}
	h.SessionMgr.Clear(w, r)
	http.Redirect(w, r, "/sign-in", http.StatusSeeOther)
}
