package jwt

import (
	"errors"
	"fmt"
	"realestate-backend/internal/models"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultLifetime = time.Hour

var ErrInvalidToken = errors.New("invalid token")

// UserToken carries the user id, login tokens also carry the role at issue time.
// The role in a token is informational, authorization always reads the stored user.
type UserToken struct {
	ID     string `json:"id"`
	Role   string `json:"role,omitempty"`
	UserID string `json:"userId,omitempty"`
	jwt.RegisteredClaims
}

func (t UserToken) UserIDValue() (int64, error) {
	id, err := strconv.ParseInt(t.ID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad user id: %w", ErrInvalidToken, err)
	}
	return id, nil
}

type Issuer struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

func NewIssuer(secret string, lifetime time.Duration) *Issuer {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	return &Issuer{secret: []byte(secret), lifetime: lifetime, now: time.Now}
}

// WithClock returns a copy of the issuer that reads time from now, used for expiry tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	clone := *i
	clone.now = now
	return &clone
}

// CreateToken signs a token for the user. withRole adds the role and userId claims,
// which login does and registration does not.
func (i *Issuer) CreateToken(user models.User, withRole bool) (string, time.Time, error) {
	currentTime := i.now().UTC()
	expirationDate := currentTime.Add(i.lifetime)

	claims := UserToken{
		ID: strconv.FormatInt(user.ID, 10),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(expirationDate),
		},
	}
	if withRole {
		claims.Role = string(user.Role)
		claims.UserID = claims.ID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)

	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expirationDate, nil
}

// VerifyToken checks signature and expiry. Every failure wraps ErrInvalidToken.
func (i *Issuer) VerifyToken(tokenString string) (UserToken, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserToken{}, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return UserToken{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*UserToken)
	if !ok || !token.Valid {
		return UserToken{}, ErrInvalidToken
	}
	if _, err := claims.UserIDValue(); err != nil {
		return UserToken{}, err
	}
	return *claims, nil
}
