package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"realestate-backend/internal/database"
	"realestate-backend/internal/models"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type tokenResponse struct {
	Token     string      `json:"token"`
	Role      models.Role `json:"role"`
	UserID    int64       `json:"userId,string"`
	ExpiresAt int64       `json:"expiresAt"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	type Registration struct {
		Username string `json:"username" validate:"required,username"`
		Password string `json:"password" validate:"required,password"`
		Role     string `json:"role" validate:"omitempty,role"`
	}

	var registration Registration
	if !h.decode(w, r, &registration) || !h.check(w, registration) {
		return
	}

	role := models.Role(registration.Role)
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && !h.cfg.OpenRoleRegistration {
		h.sugar.Debugf("Registration of [%s] asked for role [%s]", registration.Username, role)
		h.writeMessage(w, http.StatusForbidden, "Only the user role can be chosen at registration")
		return
	}

	passwordBytes, err := bcrypt.GenerateFromPassword([]byte(registration.Password), h.bcryptCost)
	if err != nil {
		h.sugar.Error(err)
		h.writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	user, err := h.store.CreateUser(r.Context(), registration.Username, passwordBytes, role)
	if errors.Is(err, database.ErrUserExists) {
		h.sugar.Debug(err)
		h.writeMessage(w, http.StatusBadRequest, "User already exists")
		return
	} else if err != nil {
		h.sugar.Error(err)
		h.writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	// registration tokens only carry the user id
	h.writeToken(w, http.StatusCreated, user, false)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	type Login struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	var login Login
	if !h.decode(w, r, &login) || !h.check(w, login) {
		return
	}

	ctx := r.Context()
	failuresKey := "login_failures:" + login.Username

	value, err := h.keyValue.Get(ctx, failuresKey)
	if err != nil {
		h.sugar.Error(err)
		h.writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	if failures, _ := strconv.Atoi(value); failures >= h.cfg.LoginFailureLimit {
		h.sugar.Debugf("Login of [%s] is throttled after %d failures", login.Username, failures)
		window := time.Duration(h.cfg.LoginFailureWindow)
		w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
		h.writeMessage(w, http.StatusTooManyRequests, "Too many failed login attempts, try again later")
		return
	}

	user, err := h.store.FindUserByUsername(ctx, login.Username)
	if errors.Is(err, database.ErrNotFound) {
		h.sugar.Debug(err)
		h.loginFailed(w, r, failuresKey)
		return
	} else if err != nil {
		h.sugar.Error(err)
		h.writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	err = bcrypt.CompareHashAndPassword(user.Password, []byte(login.Password))
	if err != nil {
		h.sugar.Debug(err)
		h.loginFailed(w, r, failuresKey)
		return
	}

	err = h.keyValue.Del(ctx, failuresKey)
	if err != nil {
		h.sugar.Error(err)
	}

	h.writeToken(w, http.StatusOK, user, true)
}

func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request, failuresKey string) {
	_, err := h.keyValue.Incr(r.Context(), failuresKey, time.Duration(h.cfg.LoginFailureWindow))
	if err != nil {
		h.sugar.Error(err)
	}
	h.writeMessage(w, http.StatusUnauthorized, "Invalid username or password")
}

func (h *Handler) writeToken(w http.ResponseWriter, status int, user models.User, withRole bool) {
	token, expiresAt, err := h.tokens.CreateToken(user, withRole)
	if err != nil {
		h.sugar.Error(fmt.Errorf("creating token for user ID %d: %w", user.ID, err))
		h.writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.writeJSON(w, status, tokenResponse{
		Token:     token,
		Role:      user.Role,
		UserID:    user.ID,
		ExpiresAt: expiresAt.UnixMilli(),
	})
}
