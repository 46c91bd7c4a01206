// Package training runs fine-tuning jobs claimed from the database
// queue. Each worker claims a pending job with a row lock, launches the
// external trainer process, streams progress back, and registers the
// exported model on success.
package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/lexicognize/lexicognize/internal/metrics"
	"github.com/lexicognize/lexicognize/internal/model"
	"github.com/lexicognize/lexicognize/internal/repository"
	"github.com/lexicognize/lexicognize/internal/storage"
)

// MaxAttempts is the total number of tries per job: the original run
// plus one retry after a transient failure.
const MaxAttempts = 2

// EventPublisher fans out training lifecycle events to webhooks.
type EventPublisher interface {
	PublishTrainingCompleted(ctx context.Context, job *model.TrainingJob, m *model.UserModel) error
	PublishTrainingFailed(ctx context.Context, job *model.TrainingJob, reason string) error
}

// Runner is the training worker pool.
type Runner struct {
	repo      *repository.Repository
	store     *storage.Local
	trainer   *Trainer
	archiver  storage.Archiver // nil when archival is disabled
	publisher EventPublisher   // nil when webhooks are disabled
	metrics   metrics.Recorder
	logger    *slog.Logger

	workers       int
	poll          time.Duration
	jobTimeout    time.Duration
	archivePrefix string

	mu      sync.Mutex
	running map[string]context.CancelFunc // public job ID -> cancel
}

// RunnerConfig wires the runner's collaborators.
type RunnerConfig struct {
	Repository    *repository.Repository
	Storage       *storage.Local
	Trainer       *Trainer
	Archiver      storage.Archiver
	Publisher     EventPublisher
	Metrics       metrics.Recorder
	Logger        *slog.Logger
	Workers       int
	PollInterval  time.Duration
	JobTimeout    time.Duration
	ArchivePrefix string
}

// NewRunner creates a training runner.
func NewRunner(cfg RunnerConfig) *Runner {
	rec := cfg.Metrics
	if rec == nil {
		rec = metrics.NewNoop()
	}
	return &Runner{
		repo:          cfg.Repository,
		store:         cfg.Storage,
		trainer:       cfg.Trainer,
		archiver:      cfg.Archiver,
		publisher:     cfg.Publisher,
		metrics:       rec,
		logger:        cfg.Logger.With("component", "training.runner"),
		workers:       cfg.Workers,
		poll:          cfg.PollInterval,
		jobTimeout:    cfg.JobTimeout,
		archivePrefix: cfg.ArchivePrefix,
		running:       make(map[string]context.CancelFunc),
	}
}

// Run starts the worker pool and blocks until ctx is cancelled.
// Jobs left running by a crashed process are reset to pending first.
func (r *Runner) Run(ctx context.Context) error {
	reset, failed, err := r.repo.ResetOrphanedJobs(ctx, MaxAttempts)
	if err != nil {
		return fmt.Errorf("reset orphaned jobs: %w", err)
	}
	if reset > 0 || failed > 0 {
		r.logger.Warn("recovered orphaned training jobs", "reset", reset, "failed", failed)
	}

	r.logger.Info("training runner started", "workers", r.workers)

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r.workerLoop(ctx, worker)
		}(i)
	}
	wg.Wait()

	r.logger.Info("training runner stopped")
	return ctx.Err()
}

// Cancel signals the worker running the job with the given public job
// ID to stop. Returns false if the job is not currently executing in
// this process; the database row guard still handles the pending case.
func (r *Runner) Cancel(jobID string) bool {
	r.mu.Lock()
	cancel, ok := r.running[jobID]
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// register tracks a running job under its public job ID so Cancel can
// reach its context.
func (r *Runner) register(job *model.TrainingJob, cancel context.CancelFunc) {
	r.mu.Lock()
	r.running[job.JobID] = cancel
	r.mu.Unlock()
}

func (r *Runner) unregister(job *model.TrainingJob) {
	r.mu.Lock()
	delete(r.running, job.JobID)
	r.mu.Unlock()
}

// canRetry reports whether a job that has already used the given
// number of attempts may run again. Orphan recovery applies the same
// bound in SQL with attempt + 1 >= MaxAttempts.
func canRetry(attempt int) bool {
	return attempt+1 < MaxAttempts
}

func (r *Runner) workerLoop(ctx context.Context, worker int) {
	logger := r.logger.With("worker", worker)

	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		r.updateQueueDepth(ctx)

		job, err := r.repo.ClaimPendingJob(ctx)
		if err != nil {
			if errors.Is(err, repository.ErrJobNotFound) || errors.Is(err, context.Canceled) {
				continue
			}
			logger.Error("claim job", "error", err)
			continue
		}

		logger.Info("claimed training job",
			"job_id", job.JobID,
			"task", job.Task,
			"model_type", job.ModelType,
			"attempt", job.Attempt,
		)
		r.process(ctx, job, logger)
	}
}

func (r *Runner) process(ctx context.Context, job *model.TrainingJob, logger *slog.Logger) {
	jobCtx, cancel := context.WithTimeout(ctx, r.jobTimeout)
	defer cancel()

	r.register(job, cancel)
	defer r.unregister(job)

	start := time.Now()
	err := r.execute(jobCtx, job)
	duration := time.Since(start)

	switch {
	case err == nil:
		r.metrics.IncTrainingJobCompleted("completed")
		r.metrics.ObserveTrainingDuration(duration)
		logger.Info("training job completed",
			"job_id", job.JobID,
			"duration_ms", duration.Milliseconds(),
		)

	case errors.Is(err, context.Canceled):
		// Cancel() fired or the process is shutting down. On shutdown
		// the job goes back to pending; an explicit cancel already
		// moved the row to cancelled, so the requeue guard misses.
		if ctx.Err() != nil {
			if reqErr := r.repo.RequeueJob(context.Background(), job.ID); reqErr != nil && !errors.Is(reqErr, repository.ErrInvalidJobTransition) {
				logger.Error("requeue on shutdown", "job_id", job.JobID, "error", reqErr)
			}
			return
		}
		r.metrics.IncTrainingJobCompleted("cancelled")
		logger.Info("training job cancelled", "job_id", job.JobID)

	case errors.Is(err, context.DeadlineExceeded):
		r.finishFailed(job, fmt.Sprintf("training exceeded time limit of %s", r.jobTimeout), logger)

	default:
		if canRetry(job.Attempt) && errors.Is(err, ErrTrainerFailed) {
			if reqErr := r.repo.RequeueJob(context.Background(), job.ID); reqErr == nil {
				logger.Warn("training job requeued for retry",
					"job_id", job.JobID,
					"attempt", job.Attempt,
					"error", err,
				)
				return
			}
		}
		r.finishFailed(job, err.Error(), logger)
	}
}

// execute runs one claimed job to completion.
func (r *Runner) execute(ctx context.Context, job *model.TrainingJob) error {
	dataset, err := r.repo.GetDatasetByID(ctx, job.DatasetID)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	outputDir := r.store.ModelDir(job.JobID)

	onProgress := func(progress int) {
		if err := r.repo.UpdateJobProgress(ctx, job.ID, progress); err != nil {
			r.logger.Warn("update progress", "job_id", job.JobID, "error", err)
		}
	}
	var logBuf strings.Builder
	onLog := func(line string) {
		logBuf.WriteString(line)
		logBuf.WriteByte('\n')
		if logBuf.Len() >= 4096 {
			r.flushLog(ctx, job, &logBuf)
		}
	}

	result, err := r.trainer.Run(ctx, job, dataset.FilePath, outputDir, onProgress, onLog)
	r.flushLog(context.Background(), job, &logBuf)
	if err != nil {
		return err
	}

	if err := VerifyArtifacts(outputDir); err != nil {
		return fmt.Errorf("verify artifacts: %w", err)
	}

	if err := r.repo.CompleteJob(ctx, job.ID, result.Metrics, outputDir); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}

	registered, err := r.registerModel(ctx, job, dataset, outputDir, result.Metrics)
	if err != nil {
		// The job itself succeeded; registration failure is logged but
		// does not flip the row back to failed.
		r.logger.Error("register model", "job_id", job.JobID, "error", err)
	}

	if r.archiver != nil && registered != nil {
		r.archive(ctx, job, registered)
	}

	if r.publisher != nil {
		if err := r.publisher.PublishTrainingCompleted(ctx, job, registered); err != nil {
			r.logger.Warn("publish training.completed", "job_id", job.JobID, "error", err)
		}
	}
	return nil
}

func (r *Runner) registerModel(ctx context.Context, job *model.TrainingJob, dataset *model.Dataset, outputDir string, trainMetrics map[string]any) (*model.UserModel, error) {
	m := &model.UserModel{
		ID:            ulid.Make().String(),
		UserID:        job.UserID,
		Name:          job.Name,
		Description:   job.Description,
		ModelType:     job.ModelType,
		Task:          job.Task,
		BaseModel:     model.BaseModelFor(job.ModelType, job.Task),
		ModelPath:     outputDir,
		TrainingJobID: job.ID,
		DatasetID:     dataset.ID,
		Metadata: map[string]any{
			"training_metrics": trainMetrics,
			"dataset_name":     dataset.Name,
		},
	}
	if err := r.repo.CreateUserModel(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *Runner) archive(ctx context.Context, job *model.TrainingJob, m *model.UserModel) {
	prefix := fmt.Sprintf("%s/%s/%s", r.archivePrefix, job.UserID, job.JobID)
	url, err := r.archiver.ArchiveDirectory(ctx, m.ModelPath, prefix)
	if err != nil {
		r.logger.Warn("archive model artifacts", "job_id", job.JobID, "error", err)
		return
	}
	if err := r.repo.SetModelArchiveURL(ctx, m.ID, url); err != nil {
		r.logger.Warn("record archive url", "model_id", m.ID, "error", err)
		return
	}
	r.logger.Info("model artifacts archived", "job_id", job.JobID, "url", url)
}

func (r *Runner) finishFailed(job *model.TrainingJob, reason string, logger *slog.Logger) {
	// Shutdown must not stop the failure from being recorded.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.repo.FailJob(ctx, job.ID, reason); err != nil {
		if !errors.Is(err, repository.ErrInvalidJobTransition) {
			logger.Error("mark job failed", "job_id", job.JobID, "error", err)
		}
		return
	}
	r.metrics.IncTrainingJobCompleted("failed")
	logger.Warn("training job failed", "job_id", job.JobID, "reason", reason)

	if r.publisher != nil {
		if err := r.publisher.PublishTrainingFailed(ctx, job, reason); err != nil {
			logger.Warn("publish training.failed", "job_id", job.JobID, "error", err)
		}
	}
}

func (r *Runner) flushLog(ctx context.Context, job *model.TrainingJob, buf *strings.Builder) {
	if buf.Len() == 0 {
		return
	}
	if err := r.repo.AppendJobLog(ctx, job.ID, buf.String()); err != nil {
		r.logger.Warn("append job log", "job_id", job.JobID, "error", err)
	}
	buf.Reset()
}

func (r *Runner) updateQueueDepth(ctx context.Context) {
	depth, err := r.repo.CountPendingJobs(ctx)
	if err != nil {
		return
	}
	r.metrics.SetTrainingQueueDepth(depth)
}
