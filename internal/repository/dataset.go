package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lexicognize/lexicognize/internal/model"
	"github.com/lib/pq"
)

// Common errors for dataset repository operations.
var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrDatasetExists   = errors.New("dataset with this name already exists")
)

const datasetColumns = `id, user_id, name, description, file_path, file_size, file_format, original_filename, content_hash, metadata, statistics, is_public, is_shared, shared_with, created_at, updated_at`

// DatasetFilter defines filters for listing datasets.
type DatasetFilter struct {
	UserID      string // requesting user; scoping is owned OR public OR shared-with
	OwnedOnly   bool
	PublicOnly  bool
	CreatedFrom string // metadata origin marker
	Search      string // case-insensitive substring match on name or description
}

// LanguageDataStat aggregates dataset coverage for one language.
type LanguageDataStat struct {
	Language string `json:"language"`
	Datasets int    `json:"datasets"`
	Samples  int64  `json:"samples"`
}

// DatasetLanguageStats aggregates readable datasets per declared language.
func (r *Repository) DatasetLanguageStats(ctx context.Context, userID string) ([]LanguageDataStat, error) {
	query := `
		SELECT lang, COUNT(*), COALESCE(SUM((metadata->>'samples')::bigint), 0)
		FROM datasets, jsonb_array_elements_text(metadata->'languages') AS lang
		WHERE deleted_at IS NULL
		  AND (user_id = $1 OR is_public OR (is_shared AND $1 = ANY(shared_with)))
		GROUP BY lang
		ORDER BY lang
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate language stats: %w", err)
	}
	defer rows.Close()

	var stats []LanguageDataStat
	for rows.Next() {
		var s LanguageDataStat
		if err := rows.Scan(&s.Language, &s.Datasets, &s.Samples); err != nil {
			return nil, fmt.Errorf("failed to scan language stat: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating language stats: %w", err)
	}
	return stats, nil
}

// CreateDataset inserts a new dataset into the database.
func (r *Repository) CreateDataset(ctx context.Context, ds *model.Dataset) error {
	query := `
		INSERT INTO datasets (id, user_id, name, description, file_path, file_size, file_format, original_filename, content_hash, metadata, statistics, is_public, is_shared, shared_with, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.pool.Exec(ctx, query,
		ds.ID,
		ds.UserID,
		ds.Name,
		ds.Description,
		ds.FilePath,
		ds.FileSize,
		ds.FileFormat,
		ds.OriginalFilename,
		ds.ContentHash,
		ds.Metadata,
		ds.Statistics,
		ds.IsPublic,
		ds.IsShared,
		pq.Array(ds.SharedWith),
		ds.CreatedAt,
		ds.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDatasetExists
		}
		return fmt.Errorf("failed to create dataset: %w", err)
	}

	return nil
}

// GetDatasetByID retrieves a dataset by its ID.
func (r *Repository) GetDatasetByID(ctx context.Context, id string) (*model.Dataset, error) {
	query := `SELECT ` + datasetColumns + ` FROM datasets WHERE id = $1 AND deleted_at IS NULL`

	ds, err := scanDataset(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDatasetNotFound
		}
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}
	return ds, nil
}

// ListDatasets retrieves a paginated list of datasets the user can read:
// owned, public, or explicitly shared with them.
func (r *Repository) ListDatasets(ctx context.Context, filter DatasetFilter, cursor string, limit int) ([]*model.Dataset, string, error) {
	var cursorData *PaginationCursor
	if cursor != "" {
		var err error
		cursorData, err = decodeCursor(cursor)
		if err != nil {
			return nil, "", ErrInvalidCursor
		}
	}

	query := `SELECT ` + datasetColumns + ` FROM datasets WHERE deleted_at IS NULL`
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

	if filter.CreatedFrom != "" {
		query += fmt.Sprintf(" AND metadata->>'created_from' = $%d", argIndex)
		args = append(args, filter.CreatedFrom)
		argIndex++
	}

	if filter.Search != "" {
		query += fmt.Sprintf(" AND (name ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+escapeLike(filter.Search)+"%")
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
		return nil, "", fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	var datasets []*model.Dataset
	for rows.Next() {
		ds, err := scanDatasetFromRows(rows)
		if err != nil {
			return nil, "", fmt.Errorf("failed to scan dataset: %w", err)
		}
		datasets = append(datasets, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating datasets: %w", err)
	}

	var nextCursor string
	if len(datasets) > limit {
		datasets = datasets[:limit]
		last := datasets[len(datasets)-1]
		nextCursor = encodeCursor(&PaginationCursor{ID: last.ID, CreatedAt: last.CreatedAt})
	}

	return datasets, nextCursor, nil
}

// UpdateDataset updates mutable dataset fields.
func (r *Repository) UpdateDataset(ctx context.Context, ds *model.Dataset) error {
	query := `
		UPDATE datasets
		SET name = $2, description = $3, is_public = $4, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.pool.Exec(ctx, query, ds.ID, ds.Name, ds.Description, ds.IsPublic)
	if err != nil {
		return fmt.Errorf("failed to update dataset: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrDatasetNotFound
	}
	return nil
}

// UpdateDatasetStatistics stores computed corpus statistics.
func (r *Repository) UpdateDatasetStatistics(ctx context.Context, id string, stats map[string]any) error {
	query := `UPDATE datasets SET statistics = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.pool.Exec(ctx, query, id, stats)
	if err != nil {
		return fmt.Errorf("failed to update dataset statistics: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrDatasetNotFound
	}
	return nil
}

// ShareDataset replaces the share list for a dataset.
func (r *Repository) ShareDataset(ctx context.Context, id string, sharedWith []string) error {
	query := `
		UPDATE datasets
		SET is_shared = $2, shared_with = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.pool.Exec(ctx, query, id, len(sharedWith) > 0, pq.Array(sharedWith))
	if err != nil {
		return fmt.Errorf("failed to share dataset: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrDatasetNotFound
	}
	return nil
}

// DeleteDataset performs a soft delete on a dataset.
func (r *Repository) DeleteDataset(ctx context.Context, id string) error {
	query := `UPDATE datasets SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrDatasetNotFound
	}
	return nil
}

// DatasetInUse reports whether any non-terminal training job references
// the dataset. Deletion is blocked while a job depends on it.
func (r *Repository) DatasetInUse(ctx context.Context, id string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM training_jobs
			WHERE dataset_id = $1 AND status IN ('pending', 'running')
		)
	`

	var inUse bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&inUse); err != nil {
		return false, fmt.Errorf("failed to check dataset usage: %w", err)
	}
	return inUse, nil
}

func scanDataset(row pgx.Row) (*model.Dataset, error) {
	var ds model.Dataset
	var sharedWith []string
	err := row.Scan(
		&ds.ID,
		&ds.UserID,
		&ds.Name,
		&ds.Description,
		&ds.FilePath,
		&ds.FileSize,
		&ds.FileFormat,
		&ds.OriginalFilename,
		&ds.ContentHash,
		&ds.Metadata,
		&ds.Statistics,
		&ds.IsPublic,
		&ds.IsShared,
		pq.Array(&sharedWith),
		&ds.CreatedAt,
		&ds.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	ds.SharedWith = sharedWith
	return &ds, nil
}

func scanDatasetFromRows(rows pgx.Rows) (*model.Dataset, error) {
	var ds model.Dataset
	var sharedWith []string
	err := rows.Scan(
		&ds.ID,
		&ds.UserID,
		&ds.Name,
		&ds.Description,
		&ds.FilePath,
		&ds.FileSize,
		&ds.FileFormat,
		&ds.OriginalFilename,
		&ds.ContentHash,
		&ds.Metadata,
		&ds.Statistics,
		&ds.IsPublic,
		&ds.IsShared,
		pq.Array(&sharedWith),
		&ds.CreatedAt,
		&ds.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	ds.SharedWith = sharedWith
	return &ds, nil
}
