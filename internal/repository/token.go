package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lexicognize/lexicognize/internal/model"
)

// Common errors for token repository operations.
var (
	ErrTokenNotFound = errors.New("token not found")
)

// CreateRefreshToken persists a hashed refresh token.
func (r *Repository) CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

// GetRefreshTokenByHash looks up a refresh token by its hash.
func (r *Repository) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, revoked_at, created_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`

	var token model.RefreshToken
	err := r.pool.QueryRow(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.RevokedAt,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	return &token, nil
}

// RevokeRefreshToken marks a refresh token as revoked.
// Used during rotation and logout.
func (r *Repository) RevokeRefreshToken(ctx context.Context, id string) error {
	query := `UPDATE refresh_tokens SET revoked_at = NOW() WHERE id = $1 AND revoked_at IS NULL`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// RevokeUserRefreshTokens revokes every active refresh token for a user.
// Called on password change and account suspension.
func (r *Repository) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	query := `UPDATE refresh_tokens SET revoked_at = NOW() WHERE user_id = $1 AND revoked_at IS NULL`

	if _, err := r.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to revoke user refresh tokens: %w", err)
	}
	return nil
}

// DeleteExpiredTokens removes refresh and one-time tokens past their expiry.
// Called periodically by the maintenance sweep.
func (r *Repository) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	deleted := result.RowsAffected()

	result, err = r.pool.Exec(ctx, `DELETE FROM one_time_tokens WHERE expires_at < NOW()`)
	if err != nil {
		return deleted, fmt.Errorf("failed to delete expired one-time tokens: %w", err)
	}
	return deleted + result.RowsAffected(), nil
}

// CreateOneTimeToken persists a hashed password-reset or verification token.
func (r *Repository) CreateOneTimeToken(ctx context.Context, token *model.OneTimeToken) error {
	query := `
		INSERT INTO one_time_tokens (id, user_id, purpose, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		token.ID,
		token.UserID,
		token.Purpose,
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create one-time token: %w", err)
	}
	return nil
}

// GetOneTimeTokenByHash looks up a one-time token by hash and purpose.
func (r *Repository) GetOneTimeTokenByHash(ctx context.Context, tokenHash, purpose string) (*model.OneTimeToken, error) {
	query := `
		SELECT id, user_id, purpose, token_hash, expires_at, used_at, created_at
		FROM one_time_tokens
		WHERE token_hash = $1 AND purpose = $2
	`

	var token model.OneTimeToken
	err := r.pool.QueryRow(ctx, query, tokenHash, purpose).Scan(
		&token.ID,
		&token.UserID,
		&token.Purpose,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get one-time token: %w", err)
	}
	return &token, nil
}

// MarkOneTimeTokenUsed consumes a one-time token.
// The used_at guard makes redemption race-safe: only one caller wins.
func (r *Repository) MarkOneTimeTokenUsed(ctx context.Context, id string) error {
	query := `UPDATE one_time_tokens SET used_at = NOW() WHERE id = $1 AND used_at IS NULL`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark token used: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}
