package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	customErrors "github.com/streamforge/user-service/internal/domain/user/errors"
	"github.com/streamforge/user-service/internal/infra/config"
)

func testConfig() *config.Config {
	return &config.Config{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
		Issuer:             "test",
		Audience:           "test",
	}
}

func TestTokenUtil_GenerateValidate(t *testing.T) {
	util, err := NewTokenUtil(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	uid := uuid.New()
	tok, exp, err := util.GenerateAccessToken(uid, "alice", "a@example.com", "Alice A")
	if err != nil || exp.IsZero() {
		t.Fatalf("bad generate: %v", err)
	}
	claims, err := util.ValidateAccessToken(tok)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != uid.String() {
		t.Fatalf("want %s got %s", uid, claims.Subject)
	}
	if claims.Username != "alice" || claims.Email != "a@example.com" || claims.FullName != "Alice A" {
		t.Fatalf("claims not carried: %+v", claims)
	}
}

func TestTokenUtil_RefreshCycle(t *testing.T) {
	util, _ := NewTokenUtil(testConfig())
	uid := uuid.New()
	rTok, exp, err := util.GenerateRefreshToken(uid)
	if err != nil || exp.IsZero() {
		t.Fatalf("bad generate: %v", err)
	}
	cl, err := util.ValidateRefreshToken(rTok)
	if err != nil || cl.Subject != uid.String() {
		t.Fatalf("validate error: %v", err)
	}
}

func TestTokenUtil_SecretsAreIndependent(t *testing.T) {
	util, _ := NewTokenUtil(testConfig())
	uid := uuid.New()

	// an access token must not validate as a refresh token and vice versa
	aTok, _, _ := util.GenerateAccessToken(uid, "u", "e@example.com", "U")
	if _, err := util.ValidateRefreshToken(aTok); err == nil {
		t.Fatal("access token accepted as refresh token")
	}
	rTok, _, _ := util.GenerateRefreshToken(uid)
	if _, err := util.ValidateAccessToken(rTok); err == nil {
		t.Fatal("refresh token accepted as access token")
	}
}

func TestTokenUtil_ValidateErrors(t *testing.T) {
	util, _ := NewTokenUtil(testConfig())
	if _, err := util.ValidateAccessToken("bad"); err == nil {
		t.Fatal("expected error")
	}

	otherCfg := testConfig()
	otherCfg.Issuer = "wrong"
	other, _ := NewTokenUtil(otherCfg)
	tok, _, _ := other.GenerateAccessToken(uuid.New(), "u", "e@example.com", "U")
	if _, err := util.ValidateAccessToken(tok); err == nil {
		t.Fatal("expected issuer error")
	}
}

func TestTokenUtil_InvalidAlg(t *testing.T) {
	util, _ := NewTokenUtil(testConfig())
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := util.ValidateAccessToken(tok); err == nil {
		t.Fatal("expected invalid alg")
	}
	if _, err := util.ValidateRefreshToken(tok); err == nil {
		t.Fatal("expected invalid alg")
	}
}

func TestTokenUtil_Expired(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = -10 * time.Minute // already past leeway
	util, _ := NewTokenUtil(cfg)
	tok, _, _ := util.GenerateAccessToken(uuid.New(), "u", "e@example.com", "U")
	if _, err := util.ValidateAccessToken(tok); !customErrors.IsInvalidToken(err) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestNewTokenUtil_EmptySecret(t *testing.T) {
	cfg := testConfig()
	cfg.RefreshTokenSecret = ""
	if _, err := NewTokenUtil(cfg); err == nil {
		t.Fatal("expected error")
	}
}
