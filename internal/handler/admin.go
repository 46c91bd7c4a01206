package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lexicognize/lexicognize/internal/handler/dto"
	"github.com/lexicognize/lexicognize/internal/middleware"
	"github.com/lexicognize/lexicognize/internal/repository"
	"github.com/lexicognize/lexicognize/internal/service"
)

// AdminHandler provides admin-only user management endpoints.
type AdminHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc *service.AuthService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		svc:    svc,
		logger: logger,
	}
}

// ListUsers handles GET /api/v1/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := repository.UserFilter{
		Role:   query.Get("role"),
		Status: query.Get("status"),
		Search: query.Get("search"),
	}
	users, next, err := h.svc.ListUsers(r.Context(), filter, query.Get("cursor"), parseLimit(query.Get("limit")))
	if err != nil {
		h.handleAdminError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToUserListResponse(users, next))
}

// SetRole handles PUT /api/v1/admin/users/{id}/role.
func (h *AdminHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	var req dto.SetRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	userID := chi.URLParam(r, "id")
	if err := h.svc.SetUserRole(r.Context(), userID, req.Role); err != nil {
		h.handleAdminError(w, r, err)
		return
	}

	h.logger.Info("user_role_set", "user_id", userID, "role", req.Role)
	w.WriteHeader(http.StatusNoContent)
}

// SetStatus handles PUT /api/v1/admin/users/{id}/status. Suspending a
// user kills their sessions on the next token refresh.
func (h *AdminHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	userID := chi.URLParam(r, "id")
	if err := h.svc.SetUserStatus(r.Context(), userID, req.Status); err != nil {
		h.handleAdminError(w, r, err)
		return
	}

	h.logger.Info("user_status_set", "user_id", userID, "status", req.Status)
	w.WriteHeader(http.StatusNoContent)
}

// handleAdminError maps admin service errors to HTTP responses.
func (h *AdminHandler) handleAdminError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, "INVALID_ROLE", "Invalid role")
	case errors.Is(err, service.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "INVALID_STATUS", "Invalid status")
	default:
		h.logger.Error("internal_error",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
