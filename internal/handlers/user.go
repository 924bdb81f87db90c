package handlers

import (
	"errors"
	"net/http"
	"realestate-backend/internal/auth"
	"realestate-backend/internal/database"
	"realestate-backend/internal/models"
)

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	h.writeJSON(w, http.StatusOK, user)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.sugar.Error(err)
		h.writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.writeJSON(w, http.StatusOK, users)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}

	user, err := h.store.FindUserByID(r.Context(), userID)
	if errors.Is(err, database.ErrNotFound) {
		h.writeMessage(w, http.StatusNotFound, "User not found")
		return
	} else if err != nil {
		h.sugar.Error(err)
		h.writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.writeJSON(w, http.StatusOK, user)
}

// DeleteUser removes the user together with their messages and listings. Tokens already
// issued to them stop working on the next request.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}

	err := h.store.DeleteUser(r.Context(), userID)
	if errors.Is(err, database.ErrNotFound) {
		h.writeMessage(w, http.StatusNotFound, "User not found")
		return
	} else if err != nil {
		h.sugar.Error(err)
		h.writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	admin, _ := auth.UserFromContext(r.Context())
	h.sugar.Infof("User ID [%d] was deleted by admin ID [%d]", userID, admin.ID)
	h.writeMessage(w, http.StatusOK, "User deleted")
}

func (h *Handler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}

	type RoleChange struct {
		Role string `json:"role" validate:"required,role"`
	}

	var change RoleChange
	if !h.decode(w, r, &change) || !h.check(w, change) {
		return
	}

	ctx := r.Context()
	err := h.store.SetUserRole(ctx, userID, models.Role(change.Role))
	if errors.Is(err, database.ErrNotFound) {
		h.writeMessage(w, http.StatusNotFound, "User not found")
		return
	} else if err != nil {
		h.sugar.Error(err)
		h.writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	user, err := h.store.FindUserByID(ctx, userID)
	if err != nil {
		h.sugar.Error(err)
		h.writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.sugar.Infof("User ID [%d] is now [%s]", userID, user.Role)
	h.writeJSON(w, http.StatusOK, user)
}
