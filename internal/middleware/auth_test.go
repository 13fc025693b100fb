package middleware

import (
	"testing"

	"github.com/nasmini/backend/internal/config"
)

func testConfig(expireHours int) *config.Config {
	return &config.Config{JWTSecret: "test-secret", JWTExpireHours: expireHours}
}

func TestGenerateAndVerify_Success(t *testing.T) {
	t.Parallel()

	cfg := testConfig(24)
	tok, err := GenerateToken("alice", cfg)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	username, ok := VerifyToken(tok, cfg)
	if !ok {
		t.Fatalf("expected token to verify")
	}
	if username != "alice" {
		t.Fatalf("username mismatch: got %q want %q", username, "alice")
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	t.Parallel()

	cfg := testConfig(-1)
	tok, err := GenerateToken("bob", cfg)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	if _, ok := VerifyToken(tok, testConfig(24)); ok {
		t.Fatalf("expected expired token to fail verification")
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("carol", testConfig(24))
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	other := &config.Config{JWTSecret: "other-secret", JWTExpireHours: 24}
	if _, ok := VerifyToken(tok, other); ok {
		t.Fatalf("expected token signed with another secret to fail")
	}
}

func TestVerifyToken_Malformed(t *testing.T) {
	t.Parallel()

	if _, ok := VerifyToken("not.a.jwt", testConfig(24)); ok {
		t.Fatalf("expected malformed token to fail")
	}
}
