package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lexicognize/lexicognize/internal/model"
)

// Common errors for inference repository operations.
var (
	ErrInferenceNotFound = errors.New("inference request not found")
)

const inferenceColumns = `id, request_id, user_id, model_id, input_text, input_type, parameters, output_text, status, error_message, processing_time, created_at, completed_at`

// CreateInferenceRequest records a new generation request.
func (r *Repository) CreateInferenceRequest(ctx context.Context, req *model.InferenceRequest) error {
	query := `
		INSERT INTO inference_requests (id, request_id, user_id, model_id, input_text, input_type, parameters, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		req.ID,
		req.RequestID,
		req.UserID,
		req.ModelID,
		req.InputText,
		req.InputType,
		req.Params,
		req.Status,
		req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create inference request: %w", err)
	}
	return nil
}

// CompleteInferenceRequest stores the generation result.
func (r *Repository) CompleteInferenceRequest(ctx context.Context, id, output string, processingTime float64) error {
	query := `
		UPDATE inference_requests
		SET status = 'completed', output_text = $2, processing_time = $3, completed_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, output, processingTime)
	if err != nil {
		return fmt.Errorf("failed to complete inference request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInferenceNotFound
	}
	return nil
}

// FailInferenceRequest records a generation failure.
func (r *Repository) FailInferenceRequest(ctx context.Context, id, errMsg string) error {
	query := `
		UPDATE inference_requests
		SET status = 'failed', error_message = $2, completed_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, errMsg)
	if err != nil {
		return fmt.Errorf("failed to fail inference request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInferenceNotFound
	}
	return nil
}

// GetInferenceRequestByRequestID retrieves a request by its public UUID.
func (r *Repository) GetInferenceRequestByRequestID(ctx context.Context, requestID string) (*model.InferenceRequest, error) {
	query := `SELECT ` + inferenceColumns + ` FROM inference_requests WHERE request_id = $1`

	req, err := scanInference(r.pool.QueryRow(ctx, query, requestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInferenceNotFound
		}
		return nil, fmt.Errorf("failed to get inference request: %w", err)
	}
	return req, nil
}

// ListInferenceRequests retrieves a user's recent generation history.
func (r *Repository) ListInferenceRequests(ctx context.Context, userID string, cursor string, limit int) ([]*model.InferenceRequest, string, error) {
	var cursorData *PaginationCursor
	if cursor != "" {
		var err error
		cursorData, err = decodeCursor(cursor)
		if err != nil {
			return nil, "", ErrInvalidCursor
		}
	}

	query := `SELECT ` + inferenceColumns + ` FROM inference_requests WHERE user_id = $1`
	args := []any{userID}
	argIndex := 2

	if cursorData != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIndex, argIndex+1)
		args = append(args, cursorData.CreatedAt, cursorData.ID)
		argIndex += 2
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argIndex)
	args = append(args, limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list inference requests: %w", err)
	}
	defer rows.Close()

	var reqs []*model.InferenceRequest
	for rows.Next() {
		req, err := scanInferenceFromRows(rows)
		if err != nil {
			return nil, "", fmt.Errorf("failed to scan inference request: %w", err)
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating inference requests: %w", err)
	}

	var nextCursor string
	if len(reqs) > limit {
		reqs = reqs[:limit]
		last := reqs[len(reqs)-1]
		nextCursor = encodeCursor(&PaginationCursor{ID: last.ID, CreatedAt: last.CreatedAt})
	}

	return reqs, nextCursor, nil
}

func scanInference(row pgx.Row) (*model.InferenceRequest, error) {
	var req model.InferenceRequest
	err := row.Scan(
		&req.ID,
		&req.RequestID,
		&req.UserID,
		&req.ModelID,
		&req.InputText,
		&req.InputType,
		&req.Params,
		&req.OutputText,
		&req.Status,
		&req.ErrorMessage,
		&req.ProcessingTime,
		&req.CreatedAt,
		&req.CompletedAt,
	)
	return &req, err
}

func scanInferenceFromRows(rows pgx.Rows) (*model.InferenceRequest, error) {
	var req model.InferenceRequest
	err := rows.Scan(
		&req.ID,
		&req.RequestID,
		&req.UserID,
		&req.ModelID,
		&req.InputText,
		&req.InputType,
		&req.Params,
		&req.OutputText,
		&req.Status,
		&req.ErrorMessage,
		&req.ProcessingTime,
		&req.CreatedAt,
		&req.CompletedAt,
	)
	return &req, err
}
