package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type AccessClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullname"`
}

type RefreshClaims struct {
	jwt.RegisteredClaims
}

type TokenUtil interface {
	GenerateAccessToken(userID uuid.UUID, username, email, fullName string) (token string, exp time.Time, err error)
	GenerateRefreshToken(userID uuid.UUID) (token string, exp time.Time, err error)
	ValidateAccessToken(token string) (claims AccessClaims, err error)
	ValidateRefreshToken(token string) (claims RefreshClaims, err error)
}
