package middleware

import (
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  error
	}{
		{
			name:     "valid username",
			username: "alice",
			wantErr:  nil,
		},
		{
			name:     "valid with hyphen",
			username: "legal-team",
			wantErr:  nil,
		},
		{
			name:     "valid with underscore",
			username: "legal_team",
			wantErr:  nil,
		},
		{
			name:     "too short",
			username: "ab",
			wantErr:  ErrUsernameTooShort,
		},
		{
			name:     "too long",
			username: strings.Repeat("a", MaxUsernameLength+1),
			wantErr:  ErrUsernameTooLong,
		},
		{
			name:     "invalid characters",
			username: "alice!@#",
			wantErr:  ErrUsernameInvalid,
		},
		{
			name:     "reserved - admin",
			username: "admin",
			wantErr:  ErrUsernameReserved,
		},
		{
			name:     "reserved - system (case insensitive)",
			username: "System",
			wantErr:  ErrUsernameReserved,
		},
		{
			name:     "reserved - lexicognize",
			username: "lexicognize",
			wantErr:  ErrUsernameReserved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if err != tt.wantErr {
				t.Errorf("ValidateUsername(%q) = %v, want %v", tt.username, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr error
	}{
		{
			name:    "valid email",
			email:   "alice@example.com",
			wantErr: nil,
		},
		{
			name:    "valid with subdomain",
			email:   "alice@legal.example.co.in",
			wantErr: nil,
		},
		{
			name:    "empty",
			email:   "",
			wantErr: ErrEmailInvalid,
		},
		{
			name:    "missing at sign",
			email:   "alice.example.com",
			wantErr: ErrEmailInvalid,
		},
		{
			name:    "missing domain",
			email:   "alice@",
			wantErr: ErrEmailInvalid,
		},
		{
			name:    "contains whitespace",
			email:   "alice @example.com",
			wantErr: ErrEmailInvalid,
		},
		{
			name:    "too long",
			email:   strings.Repeat("a", 250) + "@x.com",
			wantErr: ErrEmailInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if err != tt.wantErr {
				t.Errorf("ValidateEmail(%q) = %v, want %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); err != ErrPasswordTooShort {
		t.Errorf("expected ErrPasswordTooShort, got %v", err)
	}
	if err := ValidatePassword("longenough"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestValidateResourceName(t *testing.T) {
	tests := []struct {
		name     string
		resource string
		wantErr  error
	}{
		{
			name:     "valid name",
			resource: "supreme-court-judgments-2024",
			wantErr:  nil,
		},
		{
			name:     "empty",
			resource: "",
			wantErr:  ErrNameEmpty,
		},
		{
			name:     "whitespace only",
			resource: "   ",
			wantErr:  ErrNameEmpty,
		},
		{
			name:     "too long",
			resource: strings.Repeat("a", MaxNameLength+1),
			wantErr:  ErrNameTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResourceName(tt.resource)
			if err != tt.wantErr {
				t.Errorf("ValidateResourceName(%q) = %v, want %v", tt.resource, err, tt.wantErr)
			}
		})
	}
}

func TestValidateLanguage(t *testing.T) {
	for _, code := range []string{"en", "hi", "ta", "bn"} {
		if err := ValidateLanguage(code); err != nil {
			t.Errorf("ValidateLanguage(%q) = %v, want nil", code, err)
		}
	}
	for _, code := range []string{"", "xx", "EN", "english"} {
		if err := ValidateLanguage(code); err != ErrLanguageInvalid {
			t.Errorf("ValidateLanguage(%q) = %v, want ErrLanguageInvalid", code, err)
		}
	}
}

func TestIsValidationError(t *testing.T) {
	if !IsValidationError(ErrEmailInvalid) {
		t.Error("expected ErrEmailInvalid to be a validation error")
	}
	if !IsValidationError(ErrNameTooLong) {
		t.Error("expected ErrNameTooLong to be a validation error")
	}
	if IsValidationError(nil) {
		t.Error("expected nil to not be a validation error")
	}
}
