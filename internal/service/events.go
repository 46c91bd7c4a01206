package service

import (
	"context"
	"log/slog"

	"github.com/lexicognize/lexicognize/internal/activity"
	"github.com/lexicognize/lexicognize/internal/model"
	"github.com/lexicognize/lexicognize/internal/notify"
	"github.com/lexicognize/lexicognize/internal/repository"
	"github.com/lexicognize/lexicognize/internal/webhook"
)

// TrainingEvents fans training outcomes out to webhook subscribers,
// email, and the activity stream. Webhook delivery is the only path
// whose failure is reported upward; notification failures are logged.
type TrainingEvents struct {
	repo     *repository.Repository
	webhooks *webhook.Publisher
	mailer   notify.Mailer
	activity *activity.Publisher
	logger   *slog.Logger
}

// NewTrainingEvents creates the fan-out publisher. webhooks, mailer,
// and activityPub may each be nil to disable that path.
func NewTrainingEvents(repo *repository.Repository, webhooks *webhook.Publisher, mailer notify.Mailer, activityPub *activity.Publisher, logger *slog.Logger) *TrainingEvents {
	return &TrainingEvents{
		repo:     repo,
		webhooks: webhooks,
		mailer:   mailer,
		activity: activityPub,
		logger:   logger.With("component", "training.events"),
	}
}

// PublishTrainingCompleted notifies all channels of a finished job.
func (e *TrainingEvents) PublishTrainingCompleted(ctx context.Context, job *model.TrainingJob, m *model.UserModel) error {
	if e.activity != nil {
		detail := map[string]any{"job_id": job.JobID, "task": job.Task}
		if m != nil {
			detail["model_id"] = m.ID
		}
		e.activity.Record(job.UserID, "training.completed", "training_job", "", detail)
	}

	if e.mailer != nil {
		subject, body := notify.TrainingCompletedBody(job)
		e.sendToOwner(ctx, job.UserID, subject, body)
	}

	if e.webhooks != nil {
		return e.webhooks.PublishTrainingCompleted(ctx, job, m)
	}
	return nil
}

// PublishTrainingFailed notifies all channels of a failed job.
func (e *TrainingEvents) PublishTrainingFailed(ctx context.Context, job *model.TrainingJob, reason string) error {
	if e.activity != nil {
		e.activity.Record(job.UserID, "training.failed", "training_job", "", map[string]any{
			"job_id": job.JobID,
			"error":  reason,
		})
	}

	if e.mailer != nil {
		subject, body := notify.TrainingFailedBody(job, reason)
		e.sendToOwner(ctx, job.UserID, subject, body)
	}

	if e.webhooks != nil {
		return e.webhooks.PublishTrainingFailed(ctx, job, reason)
	}
	return nil
}

func (e *TrainingEvents) sendToOwner(ctx context.Context, userID, subject, body string) {
	user, err := e.repo.GetUserByID(ctx, userID)
	if err != nil {
		e.logger.Warn("lookup job owner for email", "user_id", userID, "error", err)
		return
	}
	if err := e.mailer.Send(ctx, user.Email, subject, body); err != nil {
		e.logger.Warn("send training email", "user_id", userID, "error", err)
	}
}
