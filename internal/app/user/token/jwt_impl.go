package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	customErrors "github.com/streamforge/user-service/internal/domain/user/errors"
	"github.com/streamforge/user-service/internal/domain/user/token"
	"github.com/streamforge/user-service/internal/infra/config"
)

// JwtUtilImpl signs both token kinds with HS256. The two secrets are
// independent so a leaked access secret cannot mint refresh tokens.
type JwtUtilImpl struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	audience      string
}

func NewTokenUtil(cfg *config.Config) (*JwtUtilImpl, error) {
	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return nil, customErrors.WrapInternal(errors.New("empty signing secret"), "NewTokenUtil")
	}
	return &JwtUtilImpl{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		issuer:        cfg.Issuer,
		audience:      cfg.Audience,
	}, nil
}

func (j *JwtUtilImpl) GenerateAccessToken(userID uuid.UUID, username, email, fullName string) (string, time.Time, error) {
	now := time.Now()

	claims := token.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    j.issuer,
			Audience:  jwt.ClaimStrings{j.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTTL)),
			ID:        uuid.NewString(),
		},
		Username: username,
		Email:    email,
		FullName: fullName,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.accessSecret)
	if err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "sign access token")
	}

	return signed, claims.ExpiresAt.Time, nil
}

func (j *JwtUtilImpl) GenerateRefreshToken(userID uuid.UUID) (string, time.Time, error) {
	now := time.Now()

	claims := token.RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    j.issuer,
			Audience:  jwt.ClaimStrings{j.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.refreshTTL)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.refreshSecret)
	if err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "sign refresh token")
	}

	return signed, claims.ExpiresAt.Time, nil
}

func (j *JwtUtilImpl) ValidateAccessToken(raw string) (token.AccessClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &token.AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, customErrors.ErrInvalidToken
		}
		return j.accessSecret, nil
	}, jwt.WithIssuedAt(), jwt.WithLeeway(2*time.Minute))

	if err != nil || !parsed.Valid {
		return token.AccessClaims{}, customErrors.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*token.AccessClaims)
	if !ok {
		return token.AccessClaims{}, customErrors.WrapInternal(
			errors.New("claims not AccessClaims"), "ValidateAccessToken",
		)
	}

	if err := j.checkIssuerAudience(claims.Issuer, claims.Audience); err != nil {
		return token.AccessClaims{}, err
	}

	return *claims, nil
}

func (j *JwtUtilImpl) ValidateRefreshToken(raw string) (token.RefreshClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &token.RefreshClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, customErrors.ErrInvalidToken
		}
		return j.refreshSecret, nil
	}, jwt.WithIssuedAt(), jwt.WithLeeway(2*time.Minute))

	if err != nil || !parsed.Valid {
		return token.RefreshClaims{}, customErrors.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*token.RefreshClaims)
	if !ok {
		return token.RefreshClaims{}, customErrors.WrapInternal(
			errors.New("claims not RefreshClaims"), "ValidateRefreshToken")
	}

	if err := j.checkIssuerAudience(claims.Issuer, claims.Audience); err != nil {
		return token.RefreshClaims{}, err
	}

	return *claims, nil
}

func (j *JwtUtilImpl) checkIssuerAudience(issuer string, audience jwt.ClaimStrings) error {
	if j.issuer != "" && issuer != j.issuer {
		return customErrors.ErrInvalidToken
	}

	if j.audience != "" {
		ok := false
		for _, a := range audience {
			if a == j.audience {
				ok = true
				break
			}
		}
		if !ok {
			return customErrors.ErrInvalidToken
		}
	}
	return nil
}
