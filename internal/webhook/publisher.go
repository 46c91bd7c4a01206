package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/lexicognize/lexicognize/internal/model"
)

// Publisher creates webhook delivery records when events occur.
type Publisher struct {
	repo   *Repository
	logger *slog.Logger
}

// NewPublisher creates a new webhook publisher.
func NewPublisher(repo *Repository, logger *slog.Logger) *Publisher {
	return &Publisher{
		repo:   repo,
		logger: logger.With("component", "webhook.publisher"),
	}
}

// PublishTrainingCompleted fans out a training.completed event.
// The registered model may be nil if registration failed.
func (p *Publisher) PublishTrainingCompleted(ctx context.Context, job *model.TrainingJob, m *model.UserModel) error {
	data := map[string]any{
		"job_id":     job.JobID,
		"name":       job.Name,
		"task":       job.Task,
		"model_type": job.ModelType,
		"metrics":    job.Metrics,
	}
	if m != nil {
		data["model_id"] = m.ID
	}
	return p.publish(ctx, job.UserID, model.EventTrainingCompleted, job.ID, data)
}

// PublishTrainingFailed fans out a training.failed event.
func (p *Publisher) PublishTrainingFailed(ctx context.Context, job *model.TrainingJob, reason string) error {
	data := map[string]any{
		"job_id":     job.JobID,
		"name":       job.Name,
		"task":       job.Task,
		"model_type": job.ModelType,
		"error":      reason,
		"attempt":    job.Attempt,
	}
	return p.publish(ctx, job.UserID, model.EventTrainingFailed, job.ID, data)
}

// PublishDatasetImported fans out a dataset.imported event.
func (p *Publisher) PublishDatasetImported(ctx context.Context, ds *model.Dataset) error {
	data := map[string]any{
		"dataset_id": ds.ID,
		"name":       ds.Name,
		"samples":    ds.Metadata.Samples,
		"source":     ds.Metadata.CreatedFrom,
	}
	return p.publish(ctx, ds.UserID, model.EventDatasetImported, ds.ID, data)
}

// publish creates one delivery per subscribed active endpoint.
func (p *Publisher) publish(ctx context.Context, userID string, eventType model.EventType, eventID string, data map[string]any) error {
	endpoints, err := p.repo.ListActiveEndpointsByUserAndEvent(ctx, userID, eventType)
	if err != nil {
		return fmt.Errorf("list active endpoints: %w", err)
	}
	if len(endpoints) == 0 {
		return nil
	}

	payload := model.WebhookPayload{
		EventType: string(eventType),
		EventID:   eventID,
		Timestamp: time.Now(),
		Data:      data,
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	now := time.Now()
	for _, endpoint := range endpoints {
		delivery := &model.WebhookDelivery{
			ID:           ulid.Make().String(),
			EndpointID:   endpoint.ID,
			EventID:      eventID,
			EventType:    eventType,
			PayloadJSON:  string(payloadJSON),
			Status:       model.DeliveryStatusPending,
			AttemptCount: 0,
			MaxAttempts:  DefaultMaxAttempts,
			NextRetryAt:  now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := p.repo.CreateDelivery(ctx, delivery); err != nil {
			p.logger.Warn("failed to create delivery",
				"endpoint_id", endpoint.ID,
				"event_id", eventID,
				"error", err,
			)
			continue
		}

		p.logger.Debug("webhook delivery created",
			"delivery_id", delivery.ID,
			"endpoint_id", endpoint.ID,
			"event_type", eventType,
		)
	}
	return nil
}
