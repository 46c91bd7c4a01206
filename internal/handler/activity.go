package handler

import (
	"log/slog"
	"net/http"

	"github.com/lexicognize/lexicognize/internal/auth"
	"github.com/lexicognize/lexicognize/internal/handler/dto"
	"github.com/lexicognize/lexicognize/internal/repository"
)

// ActivityHandler exposes the user's audit trail.
type ActivityHandler struct {
	repo   *repository.Repository
	logger *slog.Logger
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(repo *repository.Repository, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{
		repo:   repo,
		logger: logger,
	}
}

// List handles GET /api/v1/activity. Events are returned newest first.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	limit := parseLimit(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	events, err := h.repo.ListActivityEvents(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("list activity events", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list activity")
		return
	}

	writeJSON(w, http.StatusOK, dto.ActivityListResponse{
		Data:       events,
		Pagination: dto.NewPagination(""),
	})
}
