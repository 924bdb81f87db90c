package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"realestate-backend/internal/database"
	"realestate-backend/internal/jwt"
	"realestate-backend/internal/metrics"
	"realestate-backend/internal/models"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrUnauthenticated covers a missing, malformed, tampered or expired token as well as
	// a token whose user no longer exists. Callers can't tell these apart.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	// ErrServer means the user store failed or timed out, the token itself may be fine.
	ErrServer = errors.New("server error")
)

type TokenVerifier interface {
	VerifyToken(tokenString string) (jwt.UserToken, error)
}

// UserFinder must return database.ErrNotFound when the user doesn't exist.
type UserFinder interface {
	FindUserByID(ctx context.Context, id int64) (models.User, error)
}

type UserKeyType struct{}

type Guard struct {
	tokens        TokenVerifier
	users         UserFinder
	lookupTimeout time.Duration
	sugar         *zap.SugaredLogger
}

func NewGuard(tokens TokenVerifier, users UserFinder, lookupTimeout time.Duration, sugar *zap.SugaredLogger) *Guard {
	if lookupTimeout <= 0 {
		lookupTimeout = 5 * time.Second
	}
	return &Guard{tokens: tokens, users: users, lookupTimeout: lookupTimeout, sugar: sugar}
}

// Verify resolves a bearer token to the stored user. The user is read from the store on
// every call so role changes and deletions apply without waiting for the token to expire.
func (g *Guard) Verify(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		metrics.AuthRejections.WithLabelValues("missing_token").Inc()
		return models.User{}, ErrUnauthenticated
	}

	userToken, err := g.tokens.VerifyToken(token)
	if err != nil {
		g.sugar.Debugw("token rejected", "error", err)
		metrics.AuthRejections.WithLabelValues("invalid_token").Inc()
		return models.User{}, ErrUnauthenticated
	}

	userID, err := userToken.UserIDValue()
	if err != nil {
		g.sugar.Debugw("token rejected", "error", err)
		metrics.AuthRejections.WithLabelValues("invalid_token").Inc()
		return models.User{}, ErrUnauthenticated
	}

	lookupCtx, cancel := context.WithTimeout(ctx, g.lookupTimeout)
	defer cancel()

	user, err := g.users.FindUserByID(lookupCtx, userID)
	if errors.Is(err, database.ErrNotFound) {
		g.sugar.Debugf("User ID %d from a valid token was not found", userID)
		metrics.AuthRejections.WithLabelValues("unknown_user").Inc()
		return models.User{}, ErrUnauthenticated
	} else if err != nil {
		metrics.AuthRejections.WithLabelValues("store_failure").Inc()
		return models.User{}, fmt.Errorf("%w: looking up user %d: %w", ErrServer, userID, err)
	}

	return user, nil
}

// BearerToken returns the token from an "Authorization: Bearer <token>" header, or "".
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// UserVerifier rejects requests without a valid bearer token and passes the resolved
// user to the next handler through the request context.
func (g *Guard) UserVerifier(next http.Handler) http.Handler {
	return g.verifier(next, false)
}

// WebSocketVerifier is UserVerifier that also accepts the token from the "token" query
// parameter, browsers can't set headers on a websocket upgrade.
func (g *Guard) WebSocketVerifier(next http.Handler) http.Handler {
	return g.verifier(next, true)
}

func (g *Guard) verifier(next http.Handler, allowQuery bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" && allowQuery {
			token = r.URL.Query().Get("token")
		}

		user, err := g.Verify(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, ErrUnauthenticated):
				writeError(w, http.StatusUnauthorized, "Invalid or missing token")
			default:
				g.sugar.Error(err)
				writeError(w, http.StatusInternalServerError, "Server error")
			}
			return
		}

		ctx := context.WithValue(r.Context(), UserKeyType{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole only lets through users whose role equals role. It reads the user attached
// by UserVerifier and never goes back to the store.
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			if user.Role != role {
				metrics.AuthRejections.WithLabelValues("forbidden_role").Inc()
				writeError(w, http.StatusForbidden, fmt.Sprintf("Access denied. Requires role %s", role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(UserKeyType{}).(models.User)
	return user, ok
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
