package model

import "time"

// RefreshToken is a persisted, revocable session token.
// The opaque token value is stored hashed; the plaintext is only
// ever returned to the client at issue time.
type RefreshToken struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	TokenHash string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsRevoked returns true if the token has been revoked.
func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsExpired returns true if the token has passed its expiry.
func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// Usable reports whether the token may still mint access tokens.
func (t *RefreshToken) Usable() bool {
	return !t.IsRevoked() && !t.IsExpired()
}

// One-time token purposes.
const (
	TokenPurposePasswordReset     = "password_reset"
	TokenPurposeEmailVerification = "email_verification"
)

// OneTimeToken covers password-reset and email-verification tokens.
type OneTimeToken struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Purpose   string     `json:"purpose"`
	TokenHash string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Usable reports whether the token is still redeemable.
func (t *OneTimeToken) Usable() bool {
	return t.UsedAt == nil && time.Now().Before(t.ExpiresAt)
}

// TokenPair is the login/refresh response body.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"` // seconds
}
