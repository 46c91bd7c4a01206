package auth

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("hash should be in PHC format, got %q", hash)
	}

	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		t.Errorf("expected 6 PHC segments, got %d", len(parts))
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	t.Parallel()

	h1, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	h2, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	if h1 == h2 {
		t.Error("two hashes of the same password should differ (random salt)")
	}
}

func TestVerifyPassword(t *testing.T) {
	t.Parallel()

	const password = "s3cret-passw0rd"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
		wantErr  bool
	}{
		{name: "correct password", password: password, hash: hash, want: true},
		{name: "wrong password", password: "wrong", hash: hash, want: false},
		{name: "empty password", password: "", hash: hash, want: false},
		{name: "malformed hash", password: password, hash: "not-a-hash", wantErr: true},
		{name: "wrong algorithm", password: password, hash: "$bcrypt$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := VerifyPassword(tt.password, tt.hash)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("VerifyPassword: %v", err)
			}
			if got != tt.want {
				t.Errorf("VerifyPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuickHash(t *testing.T) {
	t.Parallel()

	h := QuickHash("some-input")
	if len(h) != 32 {
		t.Errorf("QuickHash length = %d, want 32", len(h))
	}
	if h != QuickHash("some-input") {
		t.Error("QuickHash should be deterministic")
	}
	if h == QuickHash("other-input") {
		t.Error("different inputs should hash differently")
	}
}

func TestHashToken(t *testing.T) {
	t.Parallel()

	h := HashToken("opaque-token-value")
	if len(h) != 64 {
		t.Errorf("HashToken length = %d, want 64", len(h))
	}
	if h != HashToken("opaque-token-value") {
		t.Error("HashToken should be deterministic")
	}
}
