package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lexicognize/lexicognize/internal/activity"
	"github.com/lexicognize/lexicognize/internal/auth"
	"github.com/lexicognize/lexicognize/internal/handler/dto"
	"github.com/lexicognize/lexicognize/internal/middleware"
	"github.com/lexicognize/lexicognize/internal/model"
	"github.com/lexicognize/lexicognize/internal/repository"
	"github.com/lexicognize/lexicognize/internal/service"
)

// ModelHandler handles fine-tuned model endpoints.
type ModelHandler struct {
	svc      *service.ModelService
	activity *activity.Publisher
	logger   *slog.Logger
}

// NewModelHandler creates a new ModelHandler. activityPub may be nil.
func NewModelHandler(svc *service.ModelService, activityPub *activity.Publisher, logger *slog.Logger) *ModelHandler {
	return &ModelHandler{
		svc:      svc,
		activity: activityPub,
		logger:   logger,
	}
}

// List handles GET /api/v1/models.
func (h *ModelHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	query := r.URL.Query()

	filter := repository.ModelFilter{UserID: userID, Task: query.Get("task")}
	switch query.Get("visibility") {
	case "owned":
		filter.OwnedOnly = true
	case "public":
		filter.PublicOnly = true
	}

	models, next, err := h.svc.List(r.Context(), filter, query.Get("cursor"), parseLimit(query.Get("limit")))
	if err != nil {
		h.handleModelError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ModelListResponse{
		Data:       models,
		Pagination: dto.NewPagination(next),
	})
}

// Get handles GET /api/v1/models/{id}.
func (h *ModelHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Get(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.handleModelError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Update handles PATCH /api/v1/models/{id}.
func (h *ModelHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	m, err := h.svc.Update(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"), service.UpdateModelInput{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		h.handleModelError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Share handles PUT /api/v1/models/{id}/share.
func (h *ModelHandler) Share(w http.ResponseWriter, r *http.Request) {
	var req dto.ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.svc.Share(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"), req.SharedWith); err != nil {
		h.handleModelError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/v1/models/{id}.
func (h *ModelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		h.handleModelError(w, r, err)
		return
	}

	h.logger.Info("model_deleted", "model_id", id, "user_id", userID)
	if h.activity != nil {
		h.activity.Record(userID, model.ActivityModelDelete, id, middleware.GetRequestID(r.Context()), nil)
	}
	w.WriteHeader(http.StatusNoContent)
}

// BaseModels handles GET /api/v1/models/base. Public catalog of
// pretrained checkpoints fine-tuning can start from.
func (h *ModelHandler) BaseModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"base_models": h.svc.BaseModels()})
}

// handleModelError maps model service errors to HTTP responses.
func (h *ModelHandler) handleModelError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrModelNotFound):
		writeError(w, http.StatusNotFound, "MODEL_NOT_FOUND", "Model not found")
	case errors.Is(err, service.ErrModelNameUsed):
		writeError(w, http.StatusConflict, "MODEL_NAME_USED", "A model with this name already exists")
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
