package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lexicognize/lexicognize/internal/activity"
	"github.com/lexicognize/lexicognize/internal/auth"
	"github.com/lexicognize/lexicognize/internal/handler/dto"
	"github.com/lexicognize/lexicognize/internal/middleware"
	"github.com/lexicognize/lexicognize/internal/model"
	"github.com/lexicognize/lexicognize/internal/service"
)

// AuthHandler handles registration, sessions, and profile endpoints.
type AuthHandler struct {
	svc      *service.AuthService
	activity *activity.Publisher
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. activityPub may be nil.
func NewAuthHandler(svc *service.AuthService, activityPub *activity.Publisher, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:      svc,
		activity: activityPub,
		logger:   logger,
	}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	user, _, err := h.svc.Register(r.Context(), service.RegisterInput{
		Email:        req.Email,
		Username:     req.Username,
		Password:     req.Password,
		FullName:     req.FullName,
		Organization: req.Organization,
	})
	if err != nil {
		h.handleAuthError(w, r, err)
		return
	}

	h.logger.Info("user_registered", "user_id", user.ID, "username", user.Username)
	h.record(r, user.ID, model.ActivityRegister, user.ID, nil)

	writeJSON(w, http.StatusCreated, user.ToResponse())
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	user, tokens, err := h.svc.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		h.handleAuthError(w, r, err)
		return
	}

	h.logger.Info("user_logged_in", "user_id", user.ID)
	h.record(r, user.ID, model.ActivityLogin, user.ID, nil)

	writeJSON(w, http.StatusOK, dto.LoginResponse{User: user.ToResponse(), Tokens: tokens})
}

// Refresh handles POST /api/v1/auth/refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Refresh token is required")
		return
	}

	tokens, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.handleAuthError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

// Logout handles POST /api/v1/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Refresh token is required")
		return
	}

	if err := h.svc.Logout(r.Context(), req.RefreshToken); err != nil {
		h.handleAuthError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LogoutAll handles POST /api/v1/auth/logout-all. Requires auth.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if err := h.svc.LogoutAll(r.Context(), userID); err != nil {
		h.handleAuthError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetProfile(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user.ToResponse())
}

// UpdateProfile handles PATCH /api/v1/auth/me.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	user, err := h.svc.UpdateProfile(r.Context(), auth.UserIDFromContext(r.Context()), service.UpdateProfileInput{
		FullName:     req.FullName,
		Organization: req.Organization,
		Preferences:  req.Preferences,
	})
	if err != nil {
		h.handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user.ToResponse())
}

// ChangePassword handles POST /api/v1/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	if err := h.svc.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.handleAuthError(w, r, err)
		return
	}

	h.record(r, userID, model.ActivityPasswordChange, userID, nil)
	w.WriteHeader(http.StatusNoContent)
}

// RequestPasswordReset handles POST /api/v1/auth/password/reset.
// Always returns 202; unknown emails are indistinguishable.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req dto.PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Email is required")
		return
	}

	if err := h.svc.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.logger.Error("password reset request", "error", err)
	}
	w.WriteHeader(http.StatusAccepted)
}

// ResetPassword handles POST /api/v1/auth/password/reset/confirm.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.PasswordResetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		h.handleAuthError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VerifyEmail handles POST /api/v1/auth/verify-email.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Token is required")
		return
	}

	if err := h.svc.VerifyEmail(r.Context(), req.Token); err != nil {
		h.handleAuthError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) record(r *http.Request, userID, action, resource string, detail map[string]any) {
	if h.activity == nil {
		return
	}
	h.activity.Record(userID, action, resource, middleware.GetRequestID(r.Context()), detail)
}

// handleAuthError maps auth service errors to HTTP responses.
func (h *AuthHandler) handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrEmailExists):
		writeError(w, http.StatusConflict, "EMAIL_EXISTS", "Email already registered")
	case errors.Is(err, service.ErrUsernameExists):
		writeError(w, http.StatusConflict, "USERNAME_EXISTS", "Username already taken")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
	case errors.Is(err, service.ErrAccountInactive):
		writeError(w, http.StatusForbidden, "ACCOUNT_INACTIVE", "Account is not active")
	case errors.Is(err, service.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
	case errors.Is(err, service.ErrWrongPassword):
		writeError(w, http.StatusForbidden, "WRONG_PASSWORD", "Current password is incorrect")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case middleware.IsValidationError(err):
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
	default:
		h.logger.Error("internal_error",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
