package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerateAPIKey(t *testing.T) {
	t.Parallel()

	key, err := GenerateAPIKey(EnvLive)
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}

	if !strings.HasPrefix(key.Plaintext, "lx_live_") {
		t.Errorf("key should start with lx_live_, got %q", key.Plaintext)
	}
	if len(key.Prefix) != KeyPrefixLen {
		t.Errorf("prefix length = %d, want %d", len(key.Prefix), KeyPrefixLen)
	}
	if !ValidateKeyFormat(key.Plaintext) {
		t.Errorf("generated key fails format validation: %q", key.Plaintext)
	}

	// Hash must verify against the plaintext.
	ok, err := VerifyPassword(key.Plaintext, key.Hash)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if !ok {
		t.Error("stored hash should verify against plaintext key")
	}
}

func TestGenerateAPIKey_DefaultsToLive(t *testing.T) {
	t.Parallel()

	key, err := GenerateAPIKey("staging")
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	if !strings.HasPrefix(key.Plaintext, "lx_live_") {
		t.Errorf("unknown env should default to live, got %q", key.Plaintext)
	}
}

func TestParseAPIKey(t *testing.T) {
	t.Parallel()

	key, err := GenerateAPIKey(EnvTest)
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}

	parsed, err := ParseAPIKey(key.Plaintext)
	if err != nil {
		t.Fatalf("ParseAPIKey: %v", err)
	}
	if parsed.Env != EnvTest {
		t.Errorf("Env = %q, want %q", parsed.Env, EnvTest)
	}
	if parsed.Prefix != key.Prefix {
		t.Errorf("Prefix = %q, want %q", parsed.Prefix, key.Prefix)
	}
	if len(parsed.Secret) != KeySecretLen {
		t.Errorf("Secret length = %d, want %d", len(parsed.Secret), KeySecretLen)
	}
}

func TestParseAPIKey_Invalid(t *testing.T) {
	t.Parallel()

	tests := []string{
		"",
		"lx_live_short_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b",
		"sk_live_7a9x3k_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b",
		"lx_prod_aabbcc_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b",
		"lx_live_aabbcc_NOTHEX",
	}

	for _, tt := range tests {
		if _, err := ParseAPIKey(tt); !errors.Is(err, ErrInvalidKeyFormat) {
			t.Errorf("ParseAPIKey(%q): expected ErrInvalidKeyFormat, got %v", tt, err)
		}
	}
}

func TestGenerateOpaqueToken(t *testing.T) {
	t.Parallel()

	t1, err := GenerateOpaqueToken()
	if err != nil {
		t.Fatalf("GenerateOpaqueToken: %v", err)
	}
	t2, err := GenerateOpaqueToken()
	if err != nil {
		t.Fatalf("GenerateOpaqueToken: %v", err)
	}

	if t1 == t2 {
		t.Error("two tokens should not collide")
	}
	if len(t1) < 40 {
		t.Errorf("token too short: %d chars", len(t1))
	}
	if strings.ContainsAny(t1, "+/=") {
		t.Errorf("token should be URL-safe, got %q", t1)
	}
}
