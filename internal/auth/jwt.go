package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type claims.
const (
	TokenTypeAccess = "access"
)

var (
	// ErrInvalidToken indicates the token is malformed, expired, or
	// signed with the wrong key.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongTokenType indicates a token of the wrong type was presented.
	ErrWrongTokenType = errors.New("wrong token type")
)

// Claims are the registered and custom claims carried by access tokens.
type Claims struct {
	UserID    string   `json:"user_id"`
	Username  string   `json:"username"`
	Role      string   `json:"role"`
	Scopes    []string `json:"scopes"`
	TokenType string   `json:"type"`
	jwt.RegisteredClaims
}

// JWTIssuer signs and verifies access tokens.
type JWTIssuer struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
}

// NewJWTIssuer creates a JWTIssuer with the given HMAC secret.
func NewJWTIssuer(secret string, issuer string, accessTTL time.Duration) *JWTIssuer {
	return &JWTIssuer{
		secret:    []byte(secret),
		issuer:    issuer,
		accessTTL: accessTTL,
	}
}

// AccessTTL returns the configured access token lifetime.
func (i *JWTIssuer) AccessTTL() time.Duration {
	return i.accessTTL
}

// IssueAccessToken creates a signed HS256 access token for a user.
func (i *JWTIssuer) IssueAccessToken(userID, username, role string, scopes []string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		Username:  username,
		Role:      role,
		Scopes:    scopes,
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken parses and validates an access token.
func (i *JWTIssuer) VerifyAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithIssuer(i.issuer), jwt.WithExpirationRequired())

	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}

	return claims, nil
}
