package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/lexicognize/lexicognize/internal/langid"
	"github.com/lexicognize/lexicognize/internal/metrics"
	"github.com/lexicognize/lexicognize/internal/middleware"
	"github.com/lexicognize/lexicognize/internal/model"
	"github.com/lexicognize/lexicognize/internal/repository"
	"github.com/lexicognize/lexicognize/internal/training"
)

// Training service errors.
var (
	ErrJobNotFound       = errors.New("training job not found")
	ErrJobNotCancellable = errors.New("job is not pending or running")
	ErrJobCapExceeded    = errors.New("active training job limit reached")
	ErrInvalidModelType  = errors.New("unsupported model type")
	ErrInvalidTask       = errors.New("unsupported task")
	ErrInvalidConfig     = errors.New("invalid training configuration")
)

// Hyperparameter bounds. Anything outside is almost certainly a client
// bug, and epochs in particular multiply GPU cost.
const (
	maxEpochs    = 20
	maxBatchSize = 64
	maxSeqLength = 4096
)

// TrainingService validates and manages fine-tuning jobs. The actual
// execution happens in the training.Runner worker pool.
type TrainingService struct {
	repo       *repository.Repository
	runner     *training.Runner
	metrics    metrics.Recorder
	logger     *slog.Logger
	maxPerUser int
}

// NewTrainingService creates a TrainingService. maxPerUser caps
// queued+running jobs per user; zero disables the cap.
func NewTrainingService(repo *repository.Repository, runner *training.Runner, recorder metrics.Recorder, logger *slog.Logger, maxPerUser int) *TrainingService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &TrainingService{
		repo:       repo,
		runner:     runner,
		metrics:    recorder,
		logger:     logger.With("component", "service.training"),
		maxPerUser: maxPerUser,
	}
}

// CreateJobInput defines input for submitting a fine-tuning job.
type CreateJobInput struct {
	UserID      string
	Name        string
	Description string
	ModelType   string
	Task        string
	DatasetID   string
	Config      *model.TrainingConfig
}

// CreateJob validates and enqueues a fine-tuning job.
func (s *TrainingService) CreateJob(ctx context.Context, input CreateJobInput) (*model.TrainingJob, error) {
	if err := middleware.ValidateResourceName(input.Name); err != nil {
		return nil, err
	}
	if err := middleware.ValidateDescription(input.Description); err != nil {
		return nil, err
	}
	if !model.ValidModelType(input.ModelType) {
		return nil, ErrInvalidModelType
	}
	if !model.ValidTask(input.Task) {
		return nil, ErrInvalidTask
	}
	if input.Task == model.TaskTranslation && input.ModelType != model.ModelTypeMultilingual {
		return nil, fmt.Errorf("%w: translation requires the multilingual model type", ErrInvalidTask)
	}

	cfg := model.DefaultTrainingConfig()
	if input.Config != nil {
		cfg = mergeConfig(cfg, *input.Config)
	}
	if err := validateConfig(cfg, input.ModelType); err != nil {
		return nil, err
	}

	ds, err := s.repo.GetDatasetByID(ctx, input.DatasetID)
	if err != nil {
		if errors.Is(err, repository.ErrDatasetNotFound) {
			return nil, ErrDatasetNotFound
		}
		return nil, fmt.Errorf("get dataset: %w", err)
	}
	if !ds.AccessibleBy(input.UserID) {
		return nil, ErrDatasetNotFound
	}
	if ds.Metadata.Samples < MinTrainingRecords {
		return nil, ErrDatasetTooSmall
	}

	if s.maxPerUser > 0 {
		active, err := s.repo.CountActiveJobsForUser(ctx, input.UserID)
		if err != nil {
			return nil, fmt.Errorf("count active jobs: %w", err)
		}
		if active >= s.maxPerUser {
			return nil, ErrJobCapExceeded
		}
	}

	now := time.Now().UTC()
	job := &model.TrainingJob{
		ID:          ulid.Make().String(),
		JobID:       uuid.NewString(),
		UserID:      input.UserID,
		Name:        input.Name,
		Description: input.Description,
		ModelType:   input.ModelType,
		Task:        input.Task,
		DatasetID:   input.DatasetID,
		Config:      cfg,
		Status:      model.JobPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateTrainingJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create training job: %w", err)
	}

	s.metrics.IncTrainingJobSubmitted()
	s.logger.Info("training job submitted",
		"job_id", job.JobID,
		"user_id", input.UserID,
		"model_type", input.ModelType,
		"task", input.Task,
	)
	return job, nil
}

// Get returns a job owned by the user, looked up by public job ID.
func (s *TrainingService) Get(ctx context.Context, userID, jobID string) (*model.TrainingJob, error) {
	job, err := s.repo.GetTrainingJobByJobID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("get training job: %w", err)
	}
	if job.UserID != userID {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// List returns the user's jobs, newest first.
func (s *TrainingService) List(ctx context.Context, userID string, status model.JobStatus, cursor string, limit int) ([]*model.TrainingJob, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	filter := repository.JobFilter{UserID: userID, Status: status}
	return s.repo.ListTrainingJobs(ctx, filter, cursor, limit)
}

// Cancel stops a pending or running job. For running jobs the trainer
// process is killed through the runner; the row is moved to cancelled
// first so a racing completion loses.
func (s *TrainingService) Cancel(ctx context.Context, userID, jobID string) (*model.TrainingJob, error) {
	job, err := s.Get(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	if !job.Cancellable() {
		return nil, ErrJobNotCancellable
	}

	if err := s.repo.CancelJob(ctx, job.ID); err != nil {
		if errors.Is(err, repository.ErrInvalidJobTransition) {
			return nil, ErrJobNotCancellable
		}
		return nil, fmt.Errorf("cancel job: %w", err)
	}

	if s.runner != nil {
		s.runner.Cancel(job.JobID)
	}
	s.metrics.IncTrainingJobCompleted("cancelled")
	s.logger.Info("training job cancelled", "job_id", jobID, "user_id", userID)

	return s.Get(ctx, userID, jobID)
}

// Logs returns the accumulated trainer output for a job.
func (s *TrainingService) Logs(ctx context.Context, userID, jobID string) (string, error) {
	job, err := s.Get(ctx, userID, jobID)
	if err != nil {
		return "", err
	}
	return job.Log, nil
}

func mergeConfig(base, override model.TrainingConfig) model.TrainingConfig {
	if override.Epochs > 0 {
		base.Epochs = override.Epochs
	}
	if override.BatchSize > 0 {
		base.BatchSize = override.BatchSize
	}
	if override.LearningRate > 0 {
		base.LearningRate = override.LearningRate
	}
	if override.MaxLength > 0 {
		base.MaxLength = override.MaxLength
	}
	if override.TargetMaxLength > 0 {
		base.TargetMaxLength = override.TargetMaxLength
	}
	if len(override.Languages) > 0 {
		base.Languages = override.Languages
	}
	return base
}

func validateConfig(cfg model.TrainingConfig, modelType string) error {
	if cfg.Epochs < 1 || cfg.Epochs > maxEpochs {
		return fmt.Errorf("%w: epochs must be 1-%d", ErrInvalidConfig, maxEpochs)
	}
	if cfg.BatchSize < 1 || cfg.BatchSize > maxBatchSize {
		return fmt.Errorf("%w: batch size must be 1-%d", ErrInvalidConfig, maxBatchSize)
	}
	if cfg.LearningRate <= 0 || cfg.LearningRate > 1 {
		return fmt.Errorf("%w: learning rate must be in (0, 1]", ErrInvalidConfig)
	}
	if cfg.MaxLength < 16 || cfg.MaxLength > maxSeqLength {
		return fmt.Errorf("%w: max length must be 16-%d", ErrInvalidConfig, maxSeqLength)
	}
	if cfg.TargetMaxLength < 8 || cfg.TargetMaxLength > cfg.MaxLength {
		return fmt.Errorf("%w: target max length must be 8-%d", ErrInvalidConfig, cfg.MaxLength)
	}
	for _, lang := range cfg.Languages {
		if !slices.Contains(langid.Supported, lang) {
			return fmt.Errorf("%w: unsupported language %q", ErrInvalidConfig, lang)
		}
	}
	if len(cfg.Languages) > 0 && modelType != model.ModelTypeMultilingual {
		return fmt.Errorf("%w: languages require the multilingual model type", ErrInvalidConfig)
	}
	return nil
}
