package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mamadbah2/farmhand/internal/domain/apperr"
	"github.com/mamadbah2/farmhand/internal/domain/models"
)

// Claims is the JWT payload carried by the session cookie.
type Claims struct {
	Email     string           `json:"email,omitempty"`
	Role      models.Role      `json:"role"`
	SuperRole models.SuperRole `json:"superRole,omitempty"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens builds a token issuer.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the lifetime of issued tokens.
func (t *Tokens) TTL() time.Duration {
	return t.ttl
}

// Issue signs a token for user.
func (t *Tokens) Issue(user models.User) (string, error) {
	now := t.now()
	claims := Claims{
		Email:     user.Email,
		Role:      user.Role,
		SuperRole: user.SuperRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies raw and returns the identity it carries.
func (t *Tokens) Parse(raw string) (models.Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Identity{}, apperr.Unauthorized("token expired")
		}
		return models.Identity{}, apperr.Unauthorized("invalid token")
	}
	if claims.Subject == "" {
		return models.Identity{}, apperr.Unauthorized("invalid token")
	}

	return models.Identity{
		UserID:    claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
		SuperRole: claims.SuperRole,
	}, nil
}
