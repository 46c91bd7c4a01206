package dto

import "github.com/lexicognize/lexicognize/internal/model"

// UpdateWebhookRequest represents the request body for endpoint updates.
type UpdateWebhookRequest struct {
	Name        *string            `json:"name,omitempty"`
	Description *string            `json:"description,omitempty"`
	TargetURL   *string            `json:"target_url,omitempty"`
	Enabled     *bool              `json:"enabled,omitempty"`
	EventTypes  *[]model.EventType `json:"event_types,omitempty"`
}

// WebhookListResponse lists a user's webhook endpoints.
type WebhookListResponse struct {
	Data []model.WebhookEndpointResponse `json:"data"`
}

// DeliveryListResponse lists recent deliveries for an endpoint.
type DeliveryListResponse struct {
	Data []*model.WebhookDelivery `json:"data"`
}

// ActivityListResponse represents a paginated activity log.
type ActivityListResponse struct {
	Data       []*model.ActivityEvent `json:"data"`
	Pagination *Pagination            `json:"pagination"`
}
