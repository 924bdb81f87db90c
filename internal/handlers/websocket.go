package handlers

import (
	"net/http"
	"realestate-backend/internal/auth"
)

// HandleWebSocket attaches the connection under the authenticated user's own id, which is
// the id other users address messages to.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	h.ws.HandleClient(user.ID, w, r)
}
