package activity

import (
	"errors"
	"time"
)

var (
	ErrMissingUserID  = errors.New("user_id is required")
	ErrMissingAction  = errors.New("action is required")
	ErrBadOccurredAt  = errors.New("occurred_at is out of range")
	ErrActionTooLong  = errors.New("action exceeds maximum length")
	ErrDetailTooLarge = errors.New("detail has too many keys")
)

const (
	maxActionLen  = 64
	maxDetailKeys = 32

	// Events older than this are considered corrupt timestamps, not
	// legitimately delayed messages.
	maxEventAge = 30 * 24 * time.Hour
)

// ValidateEventPayload rejects malformed events before they reach the
// database. Failing events are dead-lettered by the worker.
func ValidateEventPayload(event EventPayload) error {
	if event.UserID == "" {
		return ErrMissingUserID
	}
	if event.Action == "" {
		return ErrMissingAction
	}
	if len(event.Action) > maxActionLen {
		return ErrActionTooLong
	}
	if len(event.Detail) > maxDetailKeys {
		return ErrDetailTooLarge
	}

	occurred := time.UnixMilli(event.OccurredAt)
	now := time.Now()
	if occurred.After(now.Add(5*time.Minute)) || occurred.Before(now.Add(-maxEventAge)) {
		return ErrBadOccurredAt
	}
	return nil
}
