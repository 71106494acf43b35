package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims identifies the bearer. Role and status are never embedded;
// they are re-read from storage on every authorised request.
type TokenClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}
