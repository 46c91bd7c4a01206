// Package middleware provides HTTP middleware for the Lexicognize API.
package middleware

import (
	"errors"
	"regexp"
	"strings"
)

// Validation limits.
const (
	// MaxUsernameLength is the maximum length for a username.
	MaxUsernameLength = 32

	// MinUsernameLength is the minimum length for a username.
	MinUsernameLength = 3

	// MinPasswordLength is the minimum length for a password.
	MinPasswordLength = 8

	// MaxNameLength is the maximum length for dataset/model/job names.
	MaxNameLength = 128

	// MaxDescriptionLength is the maximum length for descriptions.
	MaxDescriptionLength = 2048

	// MaxInputTextLength caps inference input at roughly 100k characters.
	// Longer legal documents should go through the PDF pipeline, which
	// chunks before generation.
	MaxInputTextLength = 100_000
)

// Validation errors.
var (
	ErrUsernameTooLong    = errors.New("username exceeds maximum length")
	ErrUsernameTooShort   = errors.New("username is too short")
	ErrUsernameInvalid    = errors.New("username contains invalid characters")
	ErrUsernameReserved   = errors.New("username is reserved")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrEmailInvalid       = errors.New("email address is invalid")
	ErrNameTooLong        = errors.New("name exceeds maximum length")
	ErrNameEmpty          = errors.New("name must not be empty")
	ErrDescriptionTooLong = errors.New("description exceeds maximum length")
	ErrInputTooLong       = errors.New("input text exceeds maximum length")
	ErrLanguageInvalid    = errors.New("unsupported language code")
)

// IsValidationError reports whether err is one of the input validation
// errors above, so handlers can map them to 400 in one branch.
func IsValidationError(err error) bool {
	for _, v := range []error{
		ErrUsernameTooLong, ErrUsernameTooShort, ErrUsernameInvalid,
		ErrUsernameReserved, ErrPasswordTooShort, ErrEmailInvalid,
		ErrNameTooLong, ErrNameEmpty, ErrDescriptionTooLong,
		ErrInputTooLong, ErrLanguageInvalid,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// ReservedUsernames contains names that cannot be registered.
var ReservedUsernames = map[string]bool{
	"admin":       true,
	"root":        true,
	"system":      true,
	"api":         true,
	"support":     true,
	"lexicognize": true,
	"moderator":   true,
	"anonymous":   true,
}

// SupportedLanguages are the language codes accepted across translation,
// transliteration, and multilingual training.
var SupportedLanguages = map[string]bool{
	"en": true, "hi": true, "ta": true, "kn": true,
	"te": true, "ml": true, "bn": true, "mr": true,
	"gu": true, "pa": true, "or": true, "ur": true,
}

var (
	// validUsernamePattern matches valid username characters.
	validUsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	// emailPattern is a pragmatic email shape check, not full RFC 5322.
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// ValidateUsername validates a username for registration.
func ValidateUsername(username string) error {
	if len(username) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	if len(username) < MinUsernameLength {
		return ErrUsernameTooShort
	}
	if !validUsernamePattern.MatchString(username) {
		return ErrUsernameInvalid
	}
	if ReservedUsernames[strings.ToLower(username)] {
		return ErrUsernameReserved
	}
	return nil
}

// ValidatePassword enforces the minimum password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// ValidateEmail checks the shape of an email address.
func ValidateEmail(email string) error {
	if email == "" || len(email) > 254 || !emailPattern.MatchString(email) {
		return ErrEmailInvalid
	}
	return nil
}

// ValidateResourceName validates dataset, model, and job names.
func ValidateResourceName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrNameEmpty
	}
	if len(trimmed) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// ValidateDescription validates free-text descriptions.
func ValidateDescription(desc string) error {
	if len(desc) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// ValidateLanguage checks a language code against the supported set.
func ValidateLanguage(code string) error {
	if !SupportedLanguages[code] {
		return ErrLanguageInvalid
	}
	return nil
}
