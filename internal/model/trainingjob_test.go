package model

import (
	"testing"
)

func TestJobStatus_CanTransitionTo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		from JobStatus
		to   JobStatus
		want bool
	}{
		{"pending to running", JobPending, JobRunning, true},
		{"pending to cancelled", JobPending, JobCancelled, true},
		{"pending cannot complete", JobPending, JobCompleted, false},
		{"pending cannot fail", JobPending, JobFailed, false},
		{"running to completed", JobRunning, JobCompleted, true},
		{"running to failed", JobRunning, JobFailed, true},
		{"running to cancelled", JobRunning, JobCancelled, true},
		{"running cannot go back to pending", JobRunning, JobPending, false},
		{"completed is terminal", JobCompleted, JobRunning, false},
		{"failed is terminal", JobFailed, JobRunning, false},
		{"cancelled is terminal", JobCancelled, JobRunning, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestJobStatus_Terminal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status JobStatus
		want   bool
	}{
		{JobPending, false},
		{JobRunning, false},
		{JobCompleted, true},
		{JobFailed, true},
		{JobCancelled, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestTrainingJob_Cancellable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status JobStatus
		want   bool
	}{
		{JobPending, true},
		{JobRunning, true},
		{JobCompleted, false},
		{JobFailed, false},
		{JobCancelled, false},
	}

	for _, tt := range tests {
		job := &TrainingJob{Status: tt.status}
		if got := job.Cancellable(); got != tt.want {
			t.Errorf("Cancellable() with status %s = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestValidModelType(t *testing.T) {
	t.Parallel()

	for _, mt := range []string{ModelTypeBART, ModelTypePEGASUS, ModelTypeMultilingual} {
		if !ValidModelType(mt) {
			t.Errorf("ValidModelType(%q) = false, want true", mt)
		}
	}
	for _, mt := range []string{"", "gpt", "BART"} {
		if ValidModelType(mt) {
			t.Errorf("ValidModelType(%q) = true, want false", mt)
		}
	}
}

func TestValidTask(t *testing.T) {
	t.Parallel()

	for _, task := range []string{TaskSummarization, TaskSimplification, TaskTranslation} {
		if !ValidTask(task) {
			t.Errorf("ValidTask(%q) = false, want true", task)
		}
	}
	if ValidTask("classification") {
		t.Error("ValidTask(classification) = true, want false")
	}
}

func TestBaseModelFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		modelType string
		task      string
		want      string
	}{
		{ModelTypePEGASUS, TaskSummarization, "google/pegasus-cnn_dailymail"},
		{ModelTypeMultilingual, TaskTranslation, "facebook/mbart-large-50-many-to-many-mmt"},
		{ModelTypeBART, TaskSimplification, "facebook/bart-base"},
		{ModelTypeBART, TaskSummarization, "facebook/bart-large-cnn"},
	}

	for _, tt := range tests {
		if got := BaseModelFor(tt.modelType, tt.task); got != tt.want {
			t.Errorf("BaseModelFor(%s, %s) = %s, want %s", tt.modelType, tt.task, got, tt.want)
		}
	}
}

func TestDefaultTrainingConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultTrainingConfig()
	if cfg.Epochs != 3 {
		t.Errorf("Epochs = %d, want 3", cfg.Epochs)
	}
	if cfg.BatchSize != 4 {
		t.Errorf("BatchSize = %d, want 4", cfg.BatchSize)
	}
	if cfg.MaxLength != 1024 {
		t.Errorf("MaxLength = %d, want 1024", cfg.MaxLength)
	}
}
