package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"realestate-backend/internal/validator"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const maxBodySize = 1 << 20

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.sugar.Error(err)
	}
}

func (h *Handler) writeMessage(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"message": message})
}

// decode reads a json body into v, on failure it has already replied with 400.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		h.sugar.Debug(err)
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.writeMessage(w, http.StatusRequestEntityTooLarge, "Request body is too large")
		} else {
			h.writeMessage(w, http.StatusBadRequest, "Invalid request body")
		}
		return false
	}
	return true
}

// check validates v, on failure it has already replied with the field errors.
func (h *Handler) check(w http.ResponseWriter, v any) bool {
	err := h.validate.Struct(v)
	if err == nil {
		return true
	}

	fieldErrors, ok := validator.Errors(err)
	if !ok {
		h.sugar.Error(err)
		h.writeMessage(w, http.StatusInternalServerError, "Server error")
		return false
	}

	// sends back 400 with the form field errors
	h.writeJSON(w, http.StatusBadRequest, map[string]any{"errors": fieldErrors})
	return false
}

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		h.sugar.Debug(err)
		h.writeMessage(w, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}
