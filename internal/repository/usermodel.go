package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lexicognize/lexicognize/internal/model"
	"github.com/lib/pq"
)

// Common errors for user model repository operations.
var (
	ErrModelNotFound = errors.New("model not found")
	ErrModelExists   = errors.New("model with this name already exists")
)

const userModelColumns = `id, user_id, name, description, model_type, task, base_model, model_path, training_job_id, dataset_id, metadata, is_public, is_shared, shared_with, usage_count, last_used_at, archive_url, created_at, updated_at`

// ModelFilter defines filters for listing user models.
type ModelFilter struct {
	UserID     string
	OwnedOnly  bool
	PublicOnly bool
	Task       string
}

// CreateUserModel registers a fine-tuned model.
func (r *Repository) CreateUserModel(ctx context.Context, m *model.UserModel) error {
	query := `
		INSERT INTO user_models (id, user_id, name, description, model_type, task, base_model, model_path, training_job_id, dataset_id, metadata, is_public, is_shared, shared_with, usage_count, archive_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.pool.Exec(ctx, query,
		m.ID,
		m.UserID,
		m.Name,
		m.Description,
		m.ModelType,
		m.Task,
		m.BaseModel,
		m.ModelPath,
		m.TrainingJobID,
		m.DatasetID,
		m.Metadata,
		m.IsPublic,
		m.IsShared,
		pq.Array(m.SharedWith),
		m.UsageCount,
		m.ArchiveURL,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrModelExists
		}
		return fmt.Errorf("failed to create user model: %w", err)
	}
	return nil
}

// GetUserModelByID retrieves a model by its ID.
func (r *Repository) GetUserModelByID(ctx context.Context, id string) (*model.UserModel, error) {
	query := `SELECT ` + userModelColumns + ` FROM user_models WHERE id = $1 AND deleted_at IS NULL`

	m, err := scanUserModel(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("failed to get user model: %w", err)
	}
	return m, nil
}

// ListUserModels retrieves a paginated list of models the user can run:
// owned, public, or explicitly shared with them.
func (r *Repository) ListUserModels(ctx context.Context, filter ModelFilter, cursor string, limit int) ([]*model.UserModel, string, error) {
	var cursorData *PaginationCursor
	if cursor != "" {
		var err error
		cursorData, err = decodeCursor(cursor)
		if err != nil {
			return nil, "", ErrInvalidCursor
		}
	}

	query := `SELECT ` + userModelColumns + ` FROM user_models WHERE deleted_at IS NULL`
	args := []any{}
	argIndex := 1

	switch {
	case filter.OwnedOnly:
		query += fmt.Sprintf(" AND user_id = $%d", argIndex)
		args = append(args, filter.UserID)
		argIndex++
	case filter.PublicOnly:
		query += " AND is_public"
	default:
		query += fmt.Sprintf(" AND (user_id = $%d OR is_public OR (is_shared AND $%d = ANY(shared_with)))", argIndex, argIndex)
		args = append(args, filter.UserID)
		argIndex++
	}

	if filter.Task != "" {
		query += fmt.Sprintf(" AND task = $%d", argIndex)
		args = append(args, filter.Task)
		argIndex++
	}

	if cursorData != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIndex, argIndex+1)
		args = append(args, cursorData.CreatedAt, cursorData.ID)
		argIndex += 2
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argIndex)
	args = append(args, limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list user models: %w", err)
	}
	defer rows.Close()

	var models []*model.UserModel
	for rows.Next() {
		m, err := scanUserModelFromRows(rows)
		if err != nil {
			return nil, "", fmt.Errorf("failed to scan user model: %w", err)
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating user models: %w", err)
	}

	var nextCursor string
	if len(models) > limit {
		models = models[:limit]
		last := models[len(models)-1]
		nextCursor = encodeCursor(&PaginationCursor{ID: last.ID, CreatedAt: last.CreatedAt})
	}

	return models, nextCursor, nil
}

// UpdateUserModel updates mutable model fields.
func (r *Repository) UpdateUserModel(ctx context.Context, m *model.UserModel) error {
	query := `
		UPDATE user_models
		SET name = $2, description = $3, is_public = $4, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.pool.Exec(ctx, query, m.ID, m.Name, m.Description, m.IsPublic)
	if err != nil {
		return fmt.Errorf("failed to update user model: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrModelNotFound
	}
	return nil
}

// ShareUserModel replaces the share list for a model.
func (r *Repository) ShareUserModel(ctx context.Context, id string, sharedWith []string) error {
	query := `
		UPDATE user_models
		SET is_shared = $2, shared_with = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.pool.Exec(ctx, query, id, len(sharedWith) > 0, pq.Array(sharedWith))
	if err != nil {
		return fmt.Errorf("failed to share user model: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrModelNotFound
	}
	return nil
}

// DeleteUserModel performs a soft delete on a model.
func (r *Repository) DeleteUserModel(ctx context.Context, id string) error {
	query := `UPDATE user_models SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user model: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrModelNotFound
	}
	return nil
}

// IncrementModelUsage bumps the usage counter after an inference call.
func (r *Repository) IncrementModelUsage(ctx context.Context, id string) error {
	query := `
		UPDATE user_models
		SET usage_count = usage_count + 1, last_used_at = NOW()
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to increment model usage: %w", err)
	}
	return nil
}

// SetModelArchiveURL records where the model artifacts were archived.
func (r *Repository) SetModelArchiveURL(ctx context.Context, id, archiveURL string) error {
	query := `UPDATE user_models SET archive_url = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, archiveURL)
	if err != nil {
		return fmt.Errorf("failed to set archive URL: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrModelNotFound
	}
	return nil
}

func scanUserModel(row pgx.Row) (*model.UserModel, error) {
	var m model.UserModel
	var sharedWith []string
	var trainingJobID, datasetID *string
	err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.Name,
		&m.Description,
		&m.ModelType,
		&m.Task,
		&m.BaseModel,
		&m.ModelPath,
		&trainingJobID,
		&datasetID,
		&m.Metadata,
		&m.IsPublic,
		&m.IsShared,
		pq.Array(&sharedWith),
		&m.UsageCount,
		&m.LastUsedAt,
		&m.ArchiveURL,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.SharedWith = sharedWith
	if trainingJobID != nil {
		m.TrainingJobID = *trainingJobID
	}
	if datasetID != nil {
		m.DatasetID = *datasetID
	}
	return &m, nil
}

func scanUserModelFromRows(rows pgx.Rows) (*model.UserModel, error) {
	var m model.UserModel
	var sharedWith []string
	var trainingJobID, datasetID *string
	err := rows.Scan(
		&m.ID,
		&m.UserID,
		&m.Name,
		&m.Description,
		&m.ModelType,
		&m.Task,
		&m.BaseModel,
		&m.ModelPath,
		&trainingJobID,
		&datasetID,
		&m.Metadata,
		&m.IsPublic,
		&m.IsShared,
		pq.Array(&sharedWith),
		&m.UsageCount,
		&m.LastUsedAt,
		&m.ArchiveURL,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.SharedWith = sharedWith
	if trainingJobID != nil {
		m.TrainingJobID = *trainingJobID
	}
	if datasetID != nil {
		m.DatasetID = *datasetID
	}
	return &m, nil
}
