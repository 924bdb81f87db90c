package handlers

import (
	"errors"
	"net/http"
	"realestate-backend/internal/auth"
	"realestate-backend/internal/database"
	"realestate-backend/internal/hub"
	"realestate-backend/internal/models"
	"strconv"
)

// CreateMessage persists the message first and only then hands it to the relay, a receiver
// that isn't connected gets it from the history later.
func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	type NewMessage struct {
		SenderID   int64  `json:"senderId,string,omitempty"`
		ReceiverID int64  `json:"receiverId,string" validate:"required"`
		Content    string `json:"content" validate:"messagecontent"`
	}

	var newMessage NewMessage
	if !h.decode(w, r, &newMessage) || !h.check(w, newMessage) {
		return
	}

	sender, _ := auth.UserFromContext(r.Context())
	if newMessage.SenderID != 0 && newMessage.SenderID != sender.ID {
		h.sugar.Debugf("User ID [%d] tried to send as user ID [%d]", sender.ID, newMessage.SenderID)
		h.writeMessage(w, http.StatusForbidden, "senderId doesn't match the authenticated user")
		return
	}

	message, err := hub.SaveMessage(r.Context(), h.store, sender.ID, newMessage.ReceiverID, newMessage.Content)
	if errors.Is(err, database.ErrNotFound) {
		h.writeMessage(w, http.StatusNotFound, "Receiver not found")
		return
	} else if err != nil {
		h.sugar.Error(err)
		h.writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	outcome := h.relay.Relay(message)

	h.writeJSON(w, http.StatusCreated, map[string]any{
		"message":   message,
		"delivered": outcome == hub.Delivered,
	})
}

func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	user1ID, err1 := strconv.ParseInt(r.URL.Query().Get("user1Id"), 10, 64)
	user2ID, err2 := strconv.ParseInt(r.URL.Query().Get("user2Id"), 10, 64)
	if err := errors.Join(err1, err2); err != nil {
		h.sugar.Debug(err)
		h.writeMessage(w, http.StatusBadRequest, "user1Id and user2Id are required")
		return
	}

	user, _ := auth.UserFromContext(r.Context())
	if user.ID != user1ID && user.ID != user2ID && user.Role != models.RoleAdmin {
		h.writeMessage(w, http.StatusForbidden, "You can only read your own conversations")
		return
	}

	messages, err := h.store.MessagesBetween(r.Context(), user1ID, user2ID)
	if err != nil {
		h.sugar.Error(err)
		h.writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.writeJSON(w, http.StatusOK, messages)
}

// DeleteMessage only deletes messages the caller sent.
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	messageID, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}

	ctx := r.Context()
	user, _ := auth.UserFromContext(ctx)

	message, err := h.store.FindMessage(ctx, messageID)
	if errors.Is(err, database.ErrNotFound) {
		h.writeMessage(w, http.StatusNotFound, "Message not found")
		return
	} else if err != nil {
		h.sugar.Error(err)
		h.writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	if message.SenderID != user.ID {
		h.sugar.Debugf("User ID [%d] tried to delete message ID [%d] of user ID [%d]", user.ID, messageID, message.SenderID)
		h.writeMessage(w, http.StatusForbidden, "You can only delete messages you sent")
		return
	}

	err = h.store.DeleteMessage(ctx, messageID, user.ID)
	if errors.Is(err, database.ErrNotFound) {
		h.writeMessage(w, http.StatusNotFound, "Message not found")
		return
	} else if err != nil {
		h.sugar.Error(err)
		h.writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.writeMessage(w, http.StatusOK, "Message deleted")
}

func (h *Handler) GetConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.idParam(w, r, "userId")
	if !ok {
		return
	}

	user, _ := auth.UserFromContext(r.Context())
	if user.ID != userID && user.Role != models.RoleAdmin {
		h.writeMessage(w, http.StatusForbidden, "You can only read your own conversations")
		return
	}

	conversations, err := h.store.ConversationsFor(r.Context(), userID)
	if err != nil {
		h.sugar.Error(err)
		h.writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.writeJSON(w, http.StatusOK, conversations)
}
