package types

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClaims represents the claims in a JWT token
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
}

// NewTokenClaims builds claims for userID that expire after ttl.
func NewTokenClaims(userID uuid.UUID, name string, ttl time.Duration) *TokenClaims {
	now := time.Now()
	return &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
		Name:   name,
	}
}
