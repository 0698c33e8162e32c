// Package sessionapi exposes the JSON session endpoints used by
// non-browser clients: posting a token pair to establish the cookie
// session, and tearing it down again.
package sessionapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mwholloway/salescope/internal/app/system/auth"
	"github.com/mwholloway/salescope/internal/app/system/tokens"
)

type Handler struct {
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{SessionMgr: sessionMgr, Log: logger}
}

// Establish handles POST /api/auth/session. The body must carry both halves
// of the token pair; success is a bare 204 with the session cookie set.
func (h *Handler) Establish(w http.ResponseWriter, r *http.Request) {
	var pair tokens.Pair
	if err := json.NewDecoder(r.Body).Decode(&pair); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "access_token and refresh_token are required")
		return
	}

	if err := h.SessionMgr.EstablishFromPair(w, r, pair); err != nil {
		h.Log.Warn("session establish rejected", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid token pair")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SignOut handles POST /api/auth/signout. Always 204: clearing an absent
// session is not an error.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.SessionMgr.Clear(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
