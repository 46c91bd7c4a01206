package model

import "time"

// Activity actions recorded in the audit log.
const (
	ActivityLogin            = "auth.login"
	ActivityRegister         = "auth.register"
	ActivityPasswordChange   = "auth.password_change"
	ActivityDatasetUpload    = "dataset.upload"
	ActivityDatasetDelete    = "dataset.delete"
	ActivityDatasetImport    = "dataset.import"
	ActivityTrainingStart    = "training.start"
	ActivityTrainingCancel   = "training.cancel"
	ActivityModelDelete      = "model.delete"
	ActivityInference        = "inference.generate"
	ActivityEvaluation       = "evaluation.run"
)

// ActivityEvent is one audit log entry.
// Events flow through a Redis stream before batch insertion,
// so EventID doubles as the idempotency key.
type ActivityEvent struct {
	ID         string         `json:"id"`       // ULID (time-sortable)
	EventID    string         `json:"event_id"` // Redis stream ID
	UserID     string         `json:"user_id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource,omitempty"` // e.g. dataset id, job id
	RequestID  string         `json:"request_id,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	CreatedAt  time.Time      `json:"created_at"` // DB insertion time
}
