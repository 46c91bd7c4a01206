package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lexicognize/lexicognize/internal/model"
)

// Common errors for training job repository operations.
var (
	ErrJobNotFound          = errors.New("training job not found")
	ErrInvalidJobTransition = errors.New("invalid job status transition")
)

const jobColumns = `id, job_id, user_id, name, description, model_type, task, dataset_id, config, status, progress, attempt, error_message, metrics, model_path, log, created_at, started_at, completed_at, updated_at`

// JobFilter defines filters for listing training jobs.
type JobFilter struct {
	UserID string
	Status model.JobStatus
}

// CreateTrainingJob inserts a new training job in pending state.
func (r *Repository) CreateTrainingJob(ctx context.Context, job *model.TrainingJob) error {
	query := `
		INSERT INTO training_jobs (id, job_id, user_id, name, description, model_type, task, dataset_id, config, status, progress, attempt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.JobID,
		job.UserID,
		job.Name,
		job.Description,
		job.ModelType,
		job.Task,
		job.DatasetID,
		job.Config,
		job.Status,
		job.Progress,
		job.Attempt,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create training job: %w", err)
	}
	return nil
}

// GetTrainingJobByID retrieves a job by its internal ID.
func (r *Repository) GetTrainingJobByID(ctx context.Context, id string) (*model.TrainingJob, error) {
	query := `SELECT ` + jobColumns + ` FROM training_jobs WHERE id = $1`
	return r.getJob(ctx, query, id)
}

// GetTrainingJobByJobID retrieves a job by its public UUID.
func (r *Repository) GetTrainingJobByJobID(ctx context.Context, jobID string) (*model.TrainingJob, error) {
	query := `SELECT ` + jobColumns + ` FROM training_jobs WHERE job_id = $1`
	return r.getJob(ctx, query, jobID)
}

func (r *Repository) getJob(ctx context.Context, query string, arg any) (*model.TrainingJob, error) {
	job, err := scanJob(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get training job: %w", err)
	}
	return job, nil
}

// ListTrainingJobs retrieves a paginated list of a user's jobs.
func (r *Repository) ListTrainingJobs(ctx context.Context, filter JobFilter, cursor string, limit int) ([]*model.TrainingJob, string, error) {
	var cursorData *PaginationCursor
	if cursor != "" {
		var err error
		cursorData, err = decodeCursor(cursor)
		if err != nil {
			return nil, "", ErrInvalidCursor
		}
	}

	query := `SELECT ` + jobColumns + ` FROM training_jobs WHERE user_id = $1`
	args := []any{filter.UserID}
	argIndex := 2

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, filter.Status)
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
		return nil, "", fmt.Errorf("failed to list training jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.TrainingJob
	for rows.Next() {
		job, err := scanJobFromRows(rows)
		if err != nil {
			return nil, "", fmt.Errorf("failed to scan training job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating training jobs: %w", err)
	}

	var nextCursor string
	if len(jobs) > limit {
		jobs = jobs[:limit]
		last := jobs[len(jobs)-1]
		nextCursor = encodeCursor(&PaginationCursor{ID: last.ID, CreatedAt: last.CreatedAt})
	}

	return jobs, nextCursor, nil
}

// ClaimPendingJob atomically claims the oldest pending job and marks it
// running. SKIP LOCKED lets multiple workers poll concurrently without
// claiming the same job twice. Returns ErrJobNotFound when the queue is
// empty.
func (r *Repository) ClaimPendingJob(ctx context.Context) (*model.TrainingJob, error) {
	query := `
		UPDATE training_jobs
		SET status = 'running', started_at = NOW(), updated_at = NOW()
		WHERE id = (
			SELECT id FROM training_jobs
			WHERE status = 'pending'
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING ` + jobColumns

	job, err := scanJob(r.pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to claim pending job: %w", err)
	}
	return job, nil
}

// UpdateJobProgress sets the progress percentage for a running job.
func (r *Repository) UpdateJobProgress(ctx context.Context, id string, progress int) error {
	query := `
		UPDATE training_jobs
		SET progress = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'running'
	`

	if _, err := r.pool.Exec(ctx, query, id, progress); err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}
	return nil
}

// AppendJobLog appends trainer output to the job log.
func (r *Repository) AppendJobLog(ctx context.Context, id string, chunk string) error {
	query := `
		UPDATE training_jobs
		SET log = log || $2, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, id, chunk); err != nil {
		return fmt.Errorf("failed to append job log: %w", err)
	}
	return nil
}

// CompleteJob transitions a running job to completed with its results.
func (r *Repository) CompleteJob(ctx context.Context, id string, metrics map[string]any, modelPath string) error {
	query := `
		UPDATE training_jobs
		SET status = 'completed', progress = 100, metrics = $2, model_path = $3,
		    completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'running'
	`

	result, err := r.pool.Exec(ctx, query, id, metrics, modelPath)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInvalidJobTransition
	}
	return nil
}

// FailJob transitions a running job to failed with an error message.
func (r *Repository) FailJob(ctx context.Context, id string, errMsg string) error {
	query := `
		UPDATE training_jobs
		SET status = 'failed', error_message = $2, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'running'
	`

	result, err := r.pool.Exec(ctx, query, id, errMsg)
	if err != nil {
		return fmt.Errorf("failed to fail job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInvalidJobTransition
	}
	return nil
}

// CancelJob transitions a pending or running job to cancelled.
// The status guard enforces the state machine at the database level, so
// a cancel racing a completion loses cleanly.
func (r *Repository) CancelJob(ctx context.Context, id string) error {
	query := `
		UPDATE training_jobs
		SET status = 'cancelled', completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'running')
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to cancel job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInvalidJobTransition
	}
	return nil
}

// RequeueJob returns a running job to pending for one retry after a
// transient failure, incrementing the attempt counter.
func (r *Repository) RequeueJob(ctx context.Context, id string) error {
	query := `
		UPDATE training_jobs
		SET status = 'pending', progress = 0, attempt = attempt + 1,
		    started_at = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'running'
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to requeue job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInvalidJobTransition
	}
	return nil
}

// ResetOrphanedJobs recovers jobs left in running state by a crashed
// process. The interrupted run counts as a used attempt: jobs with
// attempts remaining go back to pending, the rest are failed so a job
// that crashes the process cannot loop forever.
func (r *Repository) ResetOrphanedJobs(ctx context.Context, maxAttempts int) (reset, failed int64, err error) {
	failQuery := `
		UPDATE training_jobs
		SET status = 'failed', error_message = 'process exited during training',
		    completed_at = NOW(), updated_at = NOW()
		WHERE status = 'running' AND attempt + 1 >= $1
	`
	failResult, err := r.pool.Exec(ctx, failQuery, maxAttempts)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fail exhausted orphaned jobs: %w", err)
	}

	resetQuery := `
		UPDATE training_jobs
		SET status = 'pending', progress = 0, attempt = attempt + 1,
		    started_at = NULL, updated_at = NOW()
		WHERE status = 'running'
	`
	resetResult, err := r.pool.Exec(ctx, resetQuery)
	if err != nil {
		return 0, failResult.RowsAffected(), fmt.Errorf("failed to reset orphaned jobs: %w", err)
	}
	return resetResult.RowsAffected(), failResult.RowsAffected(), nil
}

// CountPendingJobs returns the training queue depth.
func (r *Repository) CountPendingJobs(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM training_jobs WHERE status = 'pending'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending jobs: %w", err)
	}
	return count, nil
}

// CountActiveJobsForUser counts a user's pending and running jobs.
// Used to enforce the per-user admission cap.
func (r *Repository) CountActiveJobsForUser(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM training_jobs
		WHERE user_id = $1 AND status IN ('pending', 'running')
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active jobs: %w", err)
	}
	return count, nil
}

func scanJob(row pgx.Row) (*model.TrainingJob, error) {
	var job model.TrainingJob
	err := row.Scan(
		&job.ID,
		&job.JobID,
		&job.UserID,
		&job.Name,
		&job.Description,
		&job.ModelType,
		&job.Task,
		&job.DatasetID,
		&job.Config,
		&job.Status,
		&job.Progress,
		&job.Attempt,
		&job.ErrorMessage,
		&job.Metrics,
		&job.ModelPath,
		&job.Log,
		&job.CreatedAt,
		&job.StartedAt,
		&job.CompletedAt,
		&job.UpdatedAt,
	)
	return &job, err
}

func scanJobFromRows(rows pgx.Rows) (*model.TrainingJob, error) {
	var job model.TrainingJob
	err := rows.Scan(
		&job.ID,
		&job.JobID,
		&job.UserID,
		&job.Name,
		&job.Description,
		&job.ModelType,
		&job.Task,
		&job.DatasetID,
		&job.Config,
		&job.Status,
		&job.Progress,
		&job.Attempt,
		&job.ErrorMessage,
		&job.Metrics,
		&job.ModelPath,
		&job.Log,
		&job.CreatedAt,
		&job.StartedAt,
		&job.CompletedAt,
		&job.UpdatedAt,
	)
	return &job, err
}
