package auth

import (
	"testing"
	"time"

	"github.com/RevoGrid/RevoGrid/internal/common/config"
)

func TestGenerateAndVerifyAccessToken(t *testing.T) {
	cfg := config.AuthConfig{
		Enabled:   true,
		JWTSecret: "test-secret",
		Issuer:    "revogrid",
		Audience:  "revogrid",
	}

	token, exp, err := GenerateAccessToken(cfg, "u-1", "client", time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}
	if !exp.After(time.Now()) {
		t.Fatalf("expected future expiry, got %v", exp)
	}

	id, err := VerifyAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if id.UserID != "u-1" {
		t.Fatalf("subject mismatch: %s", id.UserID)
	}
	if id.Role != "client" {
		t.Fatalf("role mismatch: %s", id.Role)
	}
}

func TestVerifyAccessTokenWrongSecret(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "secret-a", Issuer: "revogrid", Audience: "revogrid"}
	token, _, err := GenerateAccessToken(cfg, "u-1", "client", time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	other := config.AuthConfig{JWTSecret: "secret-b", Issuer: "revogrid", Audience: "revogrid"}
	if _, err := VerifyAccessToken(other, token); err == nil {
		t.Fatalf("expected verify to fail with wrong secret")
	}
}

func TestVerifyAccessTokenIssuerMismatch(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "secret", Issuer: "revogrid", Audience: "revogrid"}
	token, _, err := GenerateAccessToken(cfg, "u-1", "agence", time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	other := cfg
	other.Issuer = "someone-else"
	if _, err := VerifyAccessToken(other, token); err == nil {
		t.Fatalf("expected verify to fail with issuer mismatch")
	}
}

func TestGenerateAccessTokenValidation(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "secret"}
	if _, _, err := GenerateAccessToken(cfg, "", "client", time.Hour); err == nil {
		t.Fatalf("expected error for empty subject")
	}
	if _, _, err := GenerateAccessToken(config.AuthConfig{}, "u-1", "client", time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
