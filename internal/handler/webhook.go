package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/lexicognize/lexicognize/internal/auth"
	"github.com/lexicognize/lexicognize/internal/handler/dto"
	"github.com/lexicognize/lexicognize/internal/model"
	"github.com/lexicognize/lexicognize/internal/webhook"
)

// WebhookHandler handles webhook endpoint management.
type WebhookHandler struct {
	repo   *webhook.Repository
	logger *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(repo *webhook.Repository, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		repo:   repo,
		logger: logger.With("handler", "webhook"),
	}
}

// Create handles POST /api/v1/webhooks.
func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	var req model.WebhookEndpointCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := webhook.ValidateTargetURL(req.TargetURL); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_URL", err.Error())
		return
	}

	eventTypes := req.EventTypes
	if len(eventTypes) == 0 {
		eventTypes = []model.EventType{model.EventTrainingCompleted, model.EventTrainingFailed}
	}
	for _, et := range eventTypes {
		if !model.IsValidEventType(et) {
			writeError(w, http.StatusBadRequest, "INVALID_EVENT_TYPE", "Invalid event type: "+string(et))
			return
		}
	}

	secret, err := webhook.GenerateSecret()
	if err != nil {
		h.logger.Error("generate webhook secret", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create webhook")
		return
	}

	now := time.Now().UTC()
	endpoint := &model.WebhookEndpoint{
		ID:          ulid.Make().String(),
		UserID:      userID,
		TargetURL:   req.TargetURL,
		Secret:      secret,
		Enabled:     true,
		EventTypes:  eventTypes,
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.repo.CreateEndpoint(ctx, endpoint); err != nil {
		h.logger.Error("create webhook endpoint", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create webhook")
		return
	}

	h.logger.Info("webhook_created", "endpoint_id", endpoint.ID, "user_id", userID)

	// The signing secret is shown once; afterwards it is only rotatable.
	writeJSON(w, http.StatusCreated, model.WebhookEndpointCreateResponse{
		WebhookEndpointResponse: endpoint.ToResponse(),
		Secret:                  secret,
	})
}

// List handles GET /api/v1/webhooks.
func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	endpoints, err := h.repo.ListEndpointsByUser(ctx, userID)
	if err != nil {
		h.logger.Error("list webhook endpoints", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list webhooks")
		return
	}

	data := make([]model.WebhookEndpointResponse, 0, len(endpoints))
	for _, ep := range endpoints {
		data = append(data, ep.ToResponse())
	}
	writeJSON(w, http.StatusOK, dto.WebhookListResponse{Data: data})
}

// Get handles GET /api/v1/webhooks/{id}.
func (h *WebhookHandler) Get(w http.ResponseWriter, r *http.Request) {
	endpoint, ok := h.getOwnedEndpoint(w, r.Context(), chi.URLParam(r, "id"), auth.UserIDFromContext(r.Context()))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, endpoint.ToResponse())
}

// Update handles PATCH /api/v1/webhooks/{id}.
func (h *WebhookHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	endpoint, ok := h.getOwnedEndpoint(w, ctx, chi.URLParam(r, "id"), auth.UserIDFromContext(ctx))
	if !ok {
		return
	}

	var req dto.UpdateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if req.Name != nil {
		endpoint.Name = *req.Name
	}
	if req.Description != nil {
		endpoint.Description = *req.Description
	}
	if req.TargetURL != nil {
		if err := webhook.ValidateTargetURL(*req.TargetURL); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_URL", err.Error())
			return
		}
		endpoint.TargetURL = *req.TargetURL
	}
	if req.Enabled != nil {
		endpoint.Enabled = *req.Enabled
	}
	if req.EventTypes != nil {
		for _, et := range *req.EventTypes {
			if !model.IsValidEventType(et) {
				writeError(w, http.StatusBadRequest, "INVALID_EVENT_TYPE", "Invalid event type: "+string(et))
				return
			}
		}
		endpoint.EventTypes = *req.EventTypes
	}

	if err := h.repo.UpdateEndpoint(ctx, endpoint); err != nil {
		h.logger.Error("update webhook endpoint", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update webhook")
		return
	}

	h.logger.Info("webhook_updated", "endpoint_id", endpoint.ID, "user_id", endpoint.UserID)
	writeJSON(w, http.StatusOK, endpoint.ToResponse())
}

// Delete handles DELETE /api/v1/webhooks/{id}.
func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	endpoint, ok := h.getOwnedEndpoint(w, ctx, chi.URLParam(r, "id"), userID)
	if !ok {
		return
	}

	if err := h.repo.DeleteEndpoint(ctx, endpoint.ID); err != nil {
		h.logger.Error("delete webhook endpoint", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete webhook")
		return
	}

	h.logger.Info("webhook_deleted", "endpoint_id", endpoint.ID, "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}

// RotateSecret handles POST /api/v1/webhooks/{id}/rotate-secret.
func (h *WebhookHandler) RotateSecret(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	endpoint, ok := h.getOwnedEndpoint(w, ctx, chi.URLParam(r, "id"), userID)
	if !ok {
		return
	}

	secret, err := webhook.GenerateSecret()
	if err != nil {
		h.logger.Error("generate webhook secret", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to rotate secret")
		return
	}

	if err := h.repo.UpdateEndpointSecret(ctx, endpoint.ID, secret); err != nil {
		h.logger.Error("rotate webhook secret", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to rotate secret")
		return
	}

	h.logger.Info("webhook_secret_rotated", "endpoint_id", endpoint.ID, "user_id", userID)
	writeJSON(w, http.StatusOK, map[string]string{"secret": secret})
}

// ListDeliveries handles GET /api/v1/webhooks/{id}/deliveries.
func (h *WebhookHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	endpoint, ok := h.getOwnedEndpoint(w, ctx, chi.URLParam(r, "id"), auth.UserIDFromContext(ctx))
	if !ok {
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	deliveries, err := h.repo.ListDeliveriesByEndpoint(ctx, endpoint.ID, limit)
	if err != nil {
		h.logger.Error("list webhook deliveries", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list deliveries")
		return
	}
	writeJSON(w, http.StatusOK, dto.DeliveryListResponse{Data: deliveries})
}

// getOwnedEndpoint loads an endpoint and verifies ownership. Foreign
// endpoints present as 404.
func (h *WebhookHandler) getOwnedEndpoint(w http.ResponseWriter, ctx context.Context, id, userID string) (*model.WebhookEndpoint, bool) {
	endpoint, err := h.repo.GetEndpoint(ctx, id)
	if err != nil {
		if errors.Is(err, webhook.ErrEndpointNotFound) {
			writeError(w, http.StatusNotFound, "WEBHOOK_NOT_FOUND", "Webhook not found")
		} else {
			h.logger.Error("get webhook endpoint", "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load webhook")
		}
		return nil, false
	}
	if endpoint.UserID != userID {
		writeError(w, http.StatusNotFound, "WEBHOOK_NOT_FOUND", "Webhook not found")
		return nil, false
	}
	return endpoint, true
}
