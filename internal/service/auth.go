// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/lexicognize/lexicognize/internal/auth"
	"github.com/lexicognize/lexicognize/internal/cache"
	"github.com/lexicognize/lexicognize/internal/middleware"
	"github.com/lexicognize/lexicognize/internal/model"
	"github.com/lexicognize/lexicognize/internal/notify"
	"github.com/lexicognize/lexicognize/internal/repository"
)

// Auth service errors.
var (
	ErrEmailExists        = errors.New("email already registered")
	ErrUsernameExists     = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is not active")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("user not found")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidStatus      = errors.New("invalid status")
)

// AuthService handles registration, sessions, and account management.
type AuthService struct {
	repo       *repository.Repository
	jwt        *auth.JWTIssuer
	cache      *cache.Cache
	mailer     notify.Mailer
	logger     *slog.Logger
	refreshTTL time.Duration
	resetTTL   time.Duration
	verifyTTL  time.Duration
}

// AuthServiceConfig wires the auth service dependencies.
type AuthServiceConfig struct {
	Repository      *repository.Repository
	JWT             *auth.JWTIssuer
	Cache           *cache.Cache // may be nil; skips auth-cache eviction
	Mailer          notify.Mailer
	Logger          *slog.Logger
	RefreshTokenTTL time.Duration
	ResetTokenTTL   time.Duration
	VerifyTokenTTL  time.Duration
}

// NewAuthService creates an AuthService.
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	return &AuthService{
		repo:       cfg.Repository,
		jwt:        cfg.JWT,
		cache:      cfg.Cache,
		mailer:     cfg.Mailer,
		logger:     cfg.Logger.With("component", "service.auth"),
		refreshTTL: cfg.RefreshTokenTTL,
		resetTTL:   cfg.ResetTokenTTL,
		verifyTTL:  cfg.VerifyTokenTTL,
	}
}

// RegisterInput defines input for registration.
type RegisterInput struct {
	Email        string
	Username     string
	Password     string
	FullName     string
	Organization string
}

// Register creates a new account in pending status and issues an email
// verification token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.TrimSpace(input.Username)

	if err := middleware.ValidateEmail(email); err != nil {
		return nil, "", err
	}
	if err := middleware.ValidateUsername(username); err != nil {
		return nil, "", err
	}
	if err := middleware.ValidatePassword(input.Password); err != nil {
		return nil, "", err
	}

	passwordHash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           ulid.Make().String(),
		Email:        email,
		Username:     username,
		FullName:     strings.TrimSpace(input.FullName),
		PasswordHash: passwordHash,
		Role:         model.RoleUser,
		Status:       model.StatusPending,
		Organization: strings.TrimSpace(input.Organization),
		Preferences:  model.DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return nil, "", ErrEmailExists
		case errors.Is(err, repository.ErrUsernameExists):
			return nil, "", ErrUsernameExists
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	verifyToken, err := s.issueOneTimeToken(ctx, user.ID, model.TokenPurposeEmailVerification, s.verifyTTL)
	if err != nil {
		// Account exists; the token can be re-requested.
		s.logger.Error("issue verification token", "user_id", user.ID, "error", err)
		return user, "", nil
	}

	subject, body := notify.VerifyEmailBody(verifyToken)
	s.sendMail(user.Email, subject, body)

	return user, verifyToken, nil
}

// Login authenticates by username or email and issues a token pair.
func (s *AuthService) Login(ctx context.Context, login, password string) (*model.User, *model.TokenPair, error) {
	user, err := s.repo.GetUserByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Burn comparable time so missing users are not
			// distinguishable by latency.
			_, _ = auth.VerifyPassword(password, dummyPasswordHash)
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, nil, ErrInvalidCredentials
	}

	if !user.IsActive() {
		return nil, nil, ErrAccountInactive
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.repo.UpdateUserLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("update last login", "user_id", user.ID, "error", err)
	}

	return user, pair, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a
// fresh pair is issued. A revoked or expired token never mints tokens.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	stored, err := s.repo.GetRefreshTokenByHash(ctx, auth.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}
	if !stored.Usable() {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, stored.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !user.IsActive() {
		return nil, ErrAccountInactive
	}

	// Revoke before issuing: a reused token must lose the race.
	if err := s.repo.RevokeRefreshToken(ctx, stored.ID); err != nil {
		return nil, ErrInvalidToken
	}

	return s.issueTokenPair(ctx, user)
}

// Logout revokes a single refresh token. Unknown tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	stored, err := s.repo.GetRefreshTokenByHash(ctx, auth.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil
		}
		return fmt.Errorf("lookup refresh token: %w", err)
	}
	if err := s.repo.RevokeRefreshToken(ctx, stored.ID); err != nil && !errors.Is(err, repository.ErrTokenNotFound) {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// LogoutAll revokes every refresh token the user holds.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.repo.RevokeUserRefreshTokens(ctx, userID); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}

// GetProfile returns the user's account.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateProfileInput defines mutable profile fields.
type UpdateProfileInput struct {
	FullName     *string
	Organization *string
	Preferences  map[string]any
}

// UpdateProfile updates the user's profile fields.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*model.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.FullName != nil {
		user.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.Organization != nil {
		user.Organization = strings.TrimSpace(*input.Organization)
	}
	if input.Preferences != nil {
		user.Preferences = input.Preferences
	}

	if err := s.repo.UpdateUserProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// ChangePassword verifies the current password, sets the new one, and
// revokes every refresh token so stolen sessions die with the change.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := auth.VerifyPassword(current, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return ErrWrongPassword
	}

	if err := middleware.ValidatePassword(next); err != nil {
		return err
	}

	newHash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdateUserPassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.repo.RevokeUserRefreshTokens(ctx, userID); err != nil {
		s.logger.Warn("revoke sessions after password change", "user_id", userID, "error", err)
	}
	return nil
}

// RequestPasswordReset issues a single-use reset token. It succeeds
// silently for unknown emails so addresses cannot be enumerated.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	token, err := s.issueOneTimeToken(ctx, user.ID, model.TokenPurposePasswordReset, s.resetTTL)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	subject, body := notify.PasswordResetBody(token)
	s.sendMail(user.Email, subject, body)
	return nil
}

// ResetPassword redeems a reset token and sets a new password.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	stored, err := s.repo.GetOneTimeTokenByHash(ctx, auth.HashToken(token), model.TokenPurposePasswordReset)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}
	if !stored.Usable() {
		return ErrInvalidToken
	}

	if err := middleware.ValidatePassword(newPassword); err != nil {
		return err
	}

	// Mark used first so a concurrent redeem fails.
	if err := s.repo.MarkOneTimeTokenUsed(ctx, stored.ID); err != nil {
		return ErrInvalidToken
	}

	newHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdateUserPassword(ctx, stored.UserID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.repo.RevokeUserRefreshTokens(ctx, stored.UserID); err != nil {
		s.logger.Warn("revoke sessions after reset", "user_id", stored.UserID, "error", err)
	}
	return nil
}

// VerifyEmail redeems a verification token and activates the account.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	stored, err := s.repo.GetOneTimeTokenByHash(ctx, auth.HashToken(token), model.TokenPurposeEmailVerification)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("lookup verification token: %w", err)
	}
	if !stored.Usable() {
		return ErrInvalidToken
	}

	if err := s.repo.MarkOneTimeTokenUsed(ctx, stored.ID); err != nil {
		return ErrInvalidToken
	}
	if err := s.repo.MarkEmailVerified(ctx, stored.UserID); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	return nil
}

// ListUsers returns a page of users matching the filter. Admin operation.
func (s *AuthService) ListUsers(ctx context.Context, filter repository.UserFilter, cursor string, limit int) ([]*model.User, string, error) {
	if filter.Role != "" && !slices.Contains(model.ValidRoles, filter.Role) {
		return nil, "", ErrInvalidRole
	}
	if filter.Status != "" && !slices.Contains(model.ValidStatuses, filter.Status) {
		return nil, "", ErrInvalidStatus
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListUsers(ctx, filter, cursor, limit)
}

// SetUserRole changes a user's role. Admin operation.
func (s *AuthService) SetUserRole(ctx context.Context, userID, role string) error {
	if !slices.Contains(model.ValidRoles, role) {
		return ErrInvalidRole
	}
	if err := s.repo.UpdateUserRole(ctx, userID, role); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update role: %w", err)
	}
	return nil
}

// SetUserStatus changes a user's account status. Admin operation.
// Suspension also revokes sessions.
func (s *AuthService) SetUserStatus(ctx context.Context, userID, status string) error {
	if !slices.Contains(model.ValidStatuses, status) {
		return ErrInvalidStatus
	}
	if err := s.repo.UpdateUserStatus(ctx, userID, status); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update status: %w", err)
	}
	if status == model.StatusSuspended || status == model.StatusInactive {
		if err := s.repo.RevokeUserRefreshTokens(ctx, userID); err != nil {
			s.logger.Warn("revoke sessions on suspension", "user_id", userID, "error", err)
		}
		s.evictAPIKeyCaches(ctx, userID)
	}
	return nil
}

// evictAPIKeyCaches drops cached auth contexts for all of a user's API
// keys so deactivation stops key authentication immediately.
func (s *AuthService) evictAPIKeyCaches(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	keys, err := s.repo.ListAPIKeysByUserID(ctx, userID)
	if err != nil {
		s.logger.Warn("list api keys for cache eviction", "user_id", userID, "error", err)
		return
	}
	for _, key := range keys {
		if err := s.cache.DeleteAuthContextByKeyID(ctx, key.ID); err != nil {
			s.logger.Warn("evict auth cache", "key_id", key.ID, "error", err)
		}
	}
}

// issueTokenPair creates an access token and a persisted refresh token.
func (s *AuthService) issueTokenPair(ctx context.Context, user *model.User) (*model.TokenPair, error) {
	access, err := s.jwt.IssueAccessToken(user.ID, user.Username, user.Role, user.Scopes())
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refresh, err := auth.GenerateOpaqueToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := time.Now().UTC()
	if err := s.repo.CreateRefreshToken(ctx, &model.RefreshToken{
		ID:        ulid.Make().String(),
		UserID:    user.ID,
		TokenHash: auth.HashToken(refresh),
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	return &model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwt.AccessTTL().Seconds()),
	}, nil
}

func (s *AuthService) issueOneTimeToken(ctx context.Context, userID, purpose string, ttl time.Duration) (string, error) {
	token, err := auth.GenerateOpaqueToken()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	if err := s.repo.CreateOneTimeToken(ctx, &model.OneTimeToken{
		ID:        ulid.Make().String(),
		UserID:    userID,
		Purpose:   purpose,
		TokenHash: auth.HashToken(token),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}); err != nil {
		return "", err
	}
	return token, nil
}

// sendMail delivers asynchronously; account flows never block on SMTP.
func (s *AuthService) sendMail(to, subject, body string) {
	if s.mailer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.mailer.Send(ctx, to, subject, body); err != nil {
			s.logger.Warn("send mail", "subject", subject, "error", err)
		}
	}()
}

// dummyPasswordHash is verified against when the user does not exist.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
