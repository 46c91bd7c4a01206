package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestIssuer(ttl time.Duration) *JWTIssuer {
	return NewJWTIssuer("test-secret-at-least-32-bytes-long!!", "lexicognize-test", ttl)
}

func TestJWTIssuer_IssueAndVerify(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(30 * time.Minute)

	scopes := []string{"read", "write", "train_models"}
	token, err := issuer.IssueAccessToken("usr_123", "alice", "researcher", scopes)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	claims, err := issuer.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}

	if claims.UserID != "usr_123" {
		t.Errorf("UserID = %q, want usr_123", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("Username = %q, want alice", claims.Username)
	}
	if claims.Role != "researcher" {
		t.Errorf("Role = %q, want researcher", claims.Role)
	}
	if len(claims.Scopes) != 3 {
		t.Errorf("Scopes = %v, want 3 entries", claims.Scopes)
	}
	if claims.TokenType != TokenTypeAccess {
		t.Errorf("TokenType = %q, want %q", claims.TokenType, TokenTypeAccess)
	}
}

func TestJWTIssuer_ExpiredToken(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(-1 * time.Minute)

	token, err := issuer.IssueAccessToken("usr_123", "alice", "user", nil)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	if _, err := issuer.VerifyAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestJWTIssuer_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(30 * time.Minute)
	other := NewJWTIssuer("different-secret-also-32-bytes-long!", "lexicognize-test", 30*time.Minute)

	token, err := issuer.IssueAccessToken("usr_123", "alice", "user", nil)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	if _, err := other.VerifyAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestJWTIssuer_WrongIssuer(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(30 * time.Minute)
	other := NewJWTIssuer("test-secret-at-least-32-bytes-long!!", "someone-else", 30*time.Minute)

	token, err := other.IssueAccessToken("usr_123", "alice", "user", nil)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	if _, err := issuer.VerifyAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for wrong issuer, got %v", err)
	}
}

func TestJWTIssuer_GarbageToken(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(30 * time.Minute)

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := issuer.VerifyAccessToken(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("VerifyAccessToken(%q): expected ErrInvalidToken, got %v", tok, err)
		}
	}
}
