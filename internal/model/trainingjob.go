package model

import (
	"slices"
	"time"
)

// Model families supported for fine-tuning.
const (
	ModelTypeBART         = "bart"
	ModelTypePEGASUS      = "pegasus"
	ModelTypeMultilingual = "multilingual"
)

// ValidModelTypes contains the trainable model families.
var ValidModelTypes = []string{ModelTypeBART, ModelTypePEGASUS, ModelTypeMultilingual}

// Fine-tuning tasks.
const (
	TaskSummarization  = "summarization"
	TaskSimplification = "simplification"
	TaskTranslation    = "translation"
)

// ValidTasks contains the supported fine-tuning tasks.
var ValidTasks = []string{TaskSummarization, TaskSimplification, TaskTranslation}

// JobStatus represents the lifecycle state of a training job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// CanTransitionTo enforces the job state machine:
// pending -> running|cancelled, running -> completed|failed|cancelled.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobPending:
		return next == JobRunning || next == JobCancelled
	case JobRunning:
		return next == JobCompleted || next == JobFailed || next == JobCancelled
	default:
		return false
	}
}

// TrainingConfig holds the hyperparameters for a job.
type TrainingConfig struct {
	Epochs          int      `json:"epochs"`
	BatchSize       int      `json:"batch_size"`
	LearningRate    float64  `json:"learning_rate"`
	MaxLength       int      `json:"max_length"`
	TargetMaxLength int      `json:"target_max_length"`
	Languages       []string `json:"languages,omitempty"`
}

// DefaultTrainingConfig returns the hyperparameter defaults.
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		Epochs:          3,
		BatchSize:       4,
		LearningRate:    5e-5,
		MaxLength:       1024,
		TargetMaxLength: 256,
	}
}

// TrainingJob represents one fine-tuning run.
type TrainingJob struct {
	ID           string         `json:"id"`
	JobID        string         `json:"job_id"` // public UUID
	UserID       string         `json:"user_id"`
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	ModelType    string         `json:"model_type"`
	Task         string         `json:"task"`
	DatasetID    string         `json:"dataset_id"`
	Config       TrainingConfig `json:"config"`
	Status       JobStatus      `json:"status"`
	Progress     int            `json:"progress"` // 0-100
	Attempt      int            `json:"attempt"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Metrics      map[string]any `json:"metrics,omitempty"`
	ModelPath    string         `json:"model_path,omitempty"`
	Log          string         `json:"log,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Cancellable reports whether the job may still be cancelled.
func (j *TrainingJob) Cancellable() bool {
	return j.Status == JobPending || j.Status == JobRunning
}

// ValidModelType reports whether the given model family is trainable.
func ValidModelType(mt string) bool {
	return slices.Contains(ValidModelTypes, mt)
}

// ValidTask reports whether the given task is supported.
func ValidTask(task string) bool {
	return slices.Contains(ValidTasks, task)
}

// BaseModelFor maps a model family and task to the pretrained checkpoint
// the trainer starts from.
func BaseModelFor(modelType, task string) string {
	switch modelType {
	case ModelTypePEGASUS:
		return "google/pegasus-cnn_dailymail"
	case ModelTypeMultilingual:
		return "facebook/mbart-large-50-many-to-many-mmt"
	default:
		if task == TaskSimplification {
			return "facebook/bart-base"
		}
		return "facebook/bart-large-cnn"
	}
}
