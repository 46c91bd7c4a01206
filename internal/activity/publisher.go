// Package activity records the user audit log. Events are published to
// a Redis stream and batch-inserted into Postgres by a consumer-group
// worker, keeping audit writes off the request path.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lexicognize/lexicognize/internal/metrics"
)

const (
	// StreamKey is the Redis stream for activity events.
	StreamKey = "stream:activity_events"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "stream:activity_events:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 100 * time.Millisecond
)

// EventPayload is the compact event format on the Redis stream.
type EventPayload struct {
	UserID     string         `json:"uid"`
	Action     string         `json:"a"`
	Resource   string         `json:"res,omitempty"`
	RequestID  string         `json:"rid,omitempty"`
	Detail     map[string]any `json:"d,omitempty"`
	OccurredAt int64          `json:"t"` // Unix milliseconds
}

// Publisher enqueues activity events to the Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new activity event publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "activity.publisher"),
		metrics: recorder,
	}
}

// Publish adds an activity event to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, event EventPayload) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}
	return result, nil
}

// Record publishes without blocking the caller. The audit log is best
// effort from the request's point of view: errors are logged, not
// returned.
func (p *Publisher) Record(userID, action, resource, requestID string, detail map[string]any) {
	event := EventPayload{
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		RequestID:  requestID,
		Detail:     detail,
		OccurredAt: time.Now().UnixMilli(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("failed to publish activity event",
				"action", event.Action,
				"error", err,
			)
			p.metrics.IncActivityEventPublished("dropped")
			return
		}

		p.logger.Debug("activity event published",
			"action", event.Action,
			"stream_id", streamID,
		)
		p.metrics.IncActivityEventPublished("success")
	}()
}
