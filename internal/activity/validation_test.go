package activity

import (
	"errors"
	"testing"
	"time"
)

func validPayload() EventPayload {
	return EventPayload{
		UserID:     "01J5TESTUSER",
		Action:     "training.start",
		Resource:   "01J5TESTJOB",
		OccurredAt: time.Now().UnixMilli(),
	}
}

func TestValidateEventPayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*EventPayload)
		wantErr error
	}{
		{
			name:    "valid",
			mutate:  func(p *EventPayload) {},
			wantErr: nil,
		},
		{
			name:    "missing user id",
			mutate:  func(p *EventPayload) { p.UserID = "" },
			wantErr: ErrMissingUserID,
		},
		{
			name:    "missing action",
			mutate:  func(p *EventPayload) { p.Action = "" },
			wantErr: ErrMissingAction,
		},
		{
			name: "action too long",
			mutate: func(p *EventPayload) {
				long := make([]byte, maxActionLen+1)
				for i := range long {
					long[i] = 'a'
				}
				p.Action = string(long)
			},
			wantErr: ErrActionTooLong,
		},
		{
			name: "timestamp in far future",
			mutate: func(p *EventPayload) {
				p.OccurredAt = time.Now().Add(time.Hour).UnixMilli()
			},
			wantErr: ErrBadOccurredAt,
		},
		{
			name: "timestamp too old",
			mutate: func(p *EventPayload) {
				p.OccurredAt = time.Now().Add(-60 * 24 * time.Hour).UnixMilli()
			},
			wantErr: ErrBadOccurredAt,
		},
		{
			name: "detail too large",
			mutate: func(p *EventPayload) {
				p.Detail = make(map[string]any)
				for i := 0; i < maxDetailKeys+1; i++ {
					p.Detail[string(rune('a'+i))] = i
				}
			},
			wantErr: ErrDetailTooLarge,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			payload := validPayload()
			tt.mutate(&payload)

			err := ValidateEventPayload(payload)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateEventPayload() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
