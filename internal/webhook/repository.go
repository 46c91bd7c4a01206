package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"github.com/lexicognize/lexicognize/internal/model"
)

// Repository handles webhook database operations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new webhook repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateEndpoint creates a new webhook endpoint.
func (r *Repository) CreateEndpoint(ctx context.Context, endpoint *model.WebhookEndpoint) error {
	query := `
		INSERT INTO webhook_endpoints (
			id, user_id, target_url, secret, enabled,
			event_types, name, description, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		endpoint.ID,
		endpoint.UserID,
		endpoint.TargetURL,
		endpoint.Secret,
		endpoint.Enabled,
		pq.Array(eventTypeStrings(endpoint.EventTypes)),
		endpoint.Name,
		endpoint.Description,
		endpoint.CreatedAt,
		endpoint.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert webhook endpoint: %w", err)
	}
	return nil
}

const endpointColumns = `id, user_id, target_url, secret, enabled, event_types,
	name, description, created_at, updated_at, deleted_at`

// GetEndpoint retrieves a webhook endpoint by ID.
func (r *Repository) GetEndpoint(ctx context.Context, id string) (*model.WebhookEndpoint, error) {
	query := `
		SELECT ` + endpointColumns + `
		FROM webhook_endpoints
		WHERE id = $1 AND deleted_at IS NULL
	`

	endpoint, err := scanEndpoint(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEndpointNotFound
		}
		return nil, fmt.Errorf("query webhook endpoint: %w", err)
	}
	return endpoint, nil
}

// ListEndpointsByUser retrieves all webhook endpoints for a user.
func (r *Repository) ListEndpointsByUser(ctx context.Context, userID string) ([]*model.WebhookEndpoint, error) {
	query := `
		SELECT ` + endpointColumns + `
		FROM webhook_endpoints
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`
	return r.queryEndpoints(ctx, query, userID)
}

// ListActiveEndpointsByUserAndEvent retrieves enabled endpoints for a
// user subscribed to an event type.
func (r *Repository) ListActiveEndpointsByUserAndEvent(ctx context.Context, userID string, eventType model.EventType) ([]*model.WebhookEndpoint, error) {
	query := `
		SELECT ` + endpointColumns + `
		FROM webhook_endpoints
		WHERE user_id = $1
		  AND deleted_at IS NULL
		  AND enabled = true
		  AND $2 = ANY(event_types)
		ORDER BY created_at
	`
	return r.queryEndpoints(ctx, query, userID, string(eventType))
}

func (r *Repository) queryEndpoints(ctx context.Context, query string, args ...any) ([]*model.WebhookEndpoint, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query webhook endpoints: %w", err)
	}
	defer rows.Close()

	var endpoints []*model.WebhookEndpoint
	for rows.Next() {
		endpoint, err := scanEndpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan webhook endpoint: %w", err)
		}
		endpoints = append(endpoints, endpoint)
	}
	return endpoints, rows.Err()
}

// UpdateEndpoint updates a webhook endpoint's mutable fields.
func (r *Repository) UpdateEndpoint(ctx context.Context, endpoint *model.WebhookEndpoint) error {
	query := `
		UPDATE webhook_endpoints
		SET target_url = $2, enabled = $3, event_types = $4,
		    name = $5, description = $6, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.pool.Exec(ctx, query,
		endpoint.ID,
		endpoint.TargetURL,
		endpoint.Enabled,
		pq.Array(eventTypeStrings(endpoint.EventTypes)),
		endpoint.Name,
		endpoint.Description,
	)
	if err != nil {
		return fmt.Errorf("update webhook endpoint: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrEndpointNotFound
	}
	return nil
}

// UpdateEndpointSecret rotates the stored signing secret for an endpoint.
func (r *Repository) UpdateEndpointSecret(ctx context.Context, id, secret string) error {
	query := `
		UPDATE webhook_endpoints
		SET secret = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.pool.Exec(ctx, query, id, secret)
	if err != nil {
		return fmt.Errorf("update endpoint secret: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrEndpointNotFound
	}
	return nil
}

// DeleteEndpoint soft-deletes a webhook endpoint.
func (r *Repository) DeleteEndpoint(ctx context.Context, id string) error {
	query := `
		UPDATE webhook_endpoints
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete webhook endpoint: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrEndpointNotFound
	}
	return nil
}

// CreateDelivery creates a delivery record. Duplicate (event, endpoint)
// pairs are silently ignored so republishing an event is idempotent.
func (r *Repository) CreateDelivery(ctx context.Context, delivery *model.WebhookDelivery) error {
	query := `
		INSERT INTO webhook_deliveries (
			id, endpoint_id, event_id, event_type, payload,
			status, attempt_count, max_attempts, next_retry_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (event_id, endpoint_id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		delivery.ID,
		delivery.EndpointID,
		delivery.EventID,
		string(delivery.EventType),
		[]byte(delivery.PayloadJSON),
		string(delivery.Status),
		delivery.AttemptCount,
		delivery.MaxAttempts,
		delivery.NextRetryAt,
		delivery.CreatedAt,
		delivery.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert webhook delivery: %w", err)
	}
	return nil
}

// GetPendingDeliveries retrieves deliveries that are due, locking the
// rows so concurrent workers never send the same delivery twice.
func (r *Repository) GetPendingDeliveries(ctx context.Context, limit int) ([]*model.WebhookDelivery, error) {
	query := `
		SELECT d.id, d.endpoint_id, d.event_id, d.event_type, d.payload,
		       d.status, d.attempt_count, d.max_attempts, d.next_retry_at,
		       d.last_attempt_at, d.last_http_status, d.last_error,
		       d.created_at, d.updated_at
		FROM webhook_deliveries d
		JOIN webhook_endpoints e ON d.endpoint_id = e.id
		WHERE d.status IN ('pending', 'failed')
		  AND d.next_retry_at <= NOW()
		  AND e.deleted_at IS NULL
		  AND e.enabled = true
		ORDER BY d.next_retry_at
		LIMIT $1
		FOR UPDATE OF d SKIP LOCKED
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []*model.WebhookDelivery
	for rows.Next() {
		delivery, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan webhook delivery: %w", err)
		}
		deliveries = append(deliveries, delivery)
	}
	return deliveries, rows.Err()
}

// ListDeliveriesByEndpoint retrieves recent deliveries for an endpoint.
func (r *Repository) ListDeliveriesByEndpoint(ctx context.Context, endpointID string, limit int) ([]*model.WebhookDelivery, error) {
	query := `
		SELECT id, endpoint_id, event_id, event_type, payload,
		       status, attempt_count, max_attempts, next_retry_at,
		       last_attempt_at, last_http_status, last_error,
		       created_at, updated_at
		FROM webhook_deliveries
		WHERE endpoint_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, endpointID, limit)
	if err != nil {
		return nil, fmt.Errorf("query deliveries by endpoint: %w", err)
	}
	defer rows.Close()

	var deliveries []*model.WebhookDelivery
	for rows.Next() {
		delivery, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan webhook delivery: %w", err)
		}
		deliveries = append(deliveries, delivery)
	}
	return deliveries, rows.Err()
}

// UpdateDeliverySuccess marks a delivery as successful.
func (r *Repository) UpdateDeliverySuccess(ctx context.Context, id string, httpStatus int) error {
	query := `
		UPDATE webhook_deliveries
		SET status = 'success',
		    attempt_count = attempt_count + 1,
		    last_attempt_at = NOW(),
		    last_http_status = $2,
		    last_error = '',
		    updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, id, httpStatus); err != nil {
		return fmt.Errorf("update delivery success: %w", err)
	}
	return nil
}

// UpdateDeliveryFailure marks a delivery as failed and schedules retry.
func (r *Repository) UpdateDeliveryFailure(ctx context.Context, id string, httpStatus *int, errMsg string, nextRetryAt time.Time, exhausted bool) error {
	status := "failed"
	if exhausted {
		status = "exhausted"
	}
	if len(errMsg) > 500 {
		errMsg = errMsg[:500]
	}

	query := `
		UPDATE webhook_deliveries
		SET status = $2,
		    attempt_count = attempt_count + 1,
		    last_attempt_at = NOW(),
		    last_http_status = $3,
		    last_error = $4,
		    next_retry_at = $5,
		    updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, id, status, httpStatus, errMsg, nextRetryAt); err != nil {
		return fmt.Errorf("update delivery failure: %w", err)
	}
	return nil
}

// GetQueueDepth returns the number of deliveries waiting to be sent.
func (r *Repository) GetQueueDepth(ctx context.Context) (int64, error) {
	var depth int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM webhook_deliveries WHERE status IN ('pending', 'failed')`,
	).Scan(&depth)
	if err != nil {
		return 0, fmt.Errorf("query queue depth: %w", err)
	}
	return depth, nil
}

func eventTypeStrings(types []model.EventType) []string {
	out := make([]string, len(types))
	for i, et := range types {
		out[i] = string(et)
	}
	return out
}

func scanEndpoint(row pgx.Row) (*model.WebhookEndpoint, error) {
	var endpoint model.WebhookEndpoint
	var eventTypes []string

	err := row.Scan(
		&endpoint.ID,
		&endpoint.UserID,
		&endpoint.TargetURL,
		&endpoint.Secret,
		&endpoint.Enabled,
		pq.Array(&eventTypes),
		&endpoint.Name,
		&endpoint.Description,
		&endpoint.CreatedAt,
		&endpoint.UpdatedAt,
		&endpoint.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	endpoint.EventTypes = make([]model.EventType, len(eventTypes))
	for i, et := range eventTypes {
		endpoint.EventTypes[i] = model.EventType(et)
	}
	return &endpoint, nil
}

func scanDelivery(row pgx.Row) (*model.WebhookDelivery, error) {
	var delivery model.WebhookDelivery
	var eventType, status string
	var payload []byte

	err := row.Scan(
		&delivery.ID,
		&delivery.EndpointID,
		&delivery.EventID,
		&eventType,
		&payload,
		&status,
		&delivery.AttemptCount,
		&delivery.MaxAttempts,
		&delivery.NextRetryAt,
		&delivery.LastAttemptAt,
		&delivery.LastHTTPStatus,
		&delivery.LastError,
		&delivery.CreatedAt,
		&delivery.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	delivery.EventType = model.EventType(eventType)
	delivery.Status = model.DeliveryStatus(status)
	delivery.PayloadJSON = string(payload)
	return &delivery, nil
}
