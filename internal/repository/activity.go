package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lexicognize/lexicognize/internal/model"
)

// InsertActivityEvents batch inserts audit events.
// ON CONFLICT on event_id makes re-delivery from the stream idempotent.
func (r *Repository) InsertActivityEvents(ctx context.Context, events []*model.ActivityEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO activity_events (id, event_id, user_id, action, resource, request_id, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING
	`

	for _, e := range events {
		batch.Queue(query,
			e.ID,
			e.EventID,
			e.UserID,
			e.Action,
			e.Resource,
			e.RequestID,
			e.Detail,
			e.OccurredAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range events {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert activity event: %w", err)
		}
	}

	return nil
}

// ListActivityEvents retrieves a user's recent activity, newest first.
func (r *Repository) ListActivityEvents(ctx context.Context, userID string, limit int) ([]*model.ActivityEvent, error) {
	query := `
		SELECT id, event_id, user_id, action, resource, request_id, detail, occurred_at, created_at
		FROM activity_events
		WHERE user_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity events: %w", err)
	}
	defer rows.Close()

	var events []*model.ActivityEvent
	for rows.Next() {
		var e model.ActivityEvent
		err := rows.Scan(
			&e.ID,
			&e.EventID,
			&e.UserID,
			&e.Action,
			&e.Resource,
			&e.RequestID,
			&e.Detail,
			&e.OccurredAt,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity event: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity events: %w", err)
	}

	return events, nil
}
