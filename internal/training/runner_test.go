package training

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func testRunner() *Runner {
	return NewRunner(RunnerConfig{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Workers: 1,
	})
}

// Cancel must find a running job by the public job ID, because that is
// the identifier callers outside the runner hold.
func TestRunner_CancelRunningJob(t *testing.T) {
	t.Parallel()

	r := testRunner()
	job := testJob()

	ctx, cancel := context.WithCancel(context.Background())
	r.register(job, cancel)
	defer r.unregister(job)

	if !r.Cancel(job.JobID) {
		t.Fatal("Cancel(job.JobID) did not find the registered job")
	}

	select {
	case <-ctx.Done():
	default:
		t.Fatal("job context was not cancelled")
	}
}

func TestRunner_CancelUnknownJob(t *testing.T) {
	t.Parallel()

	r := testRunner()
	if r.Cancel("8b6f3a1e-0000-0000-0000-00000000dead") {
		t.Error("Cancel reported success for a job that is not running")
	}
}

// A job interrupted mid-run has spent an attempt; the retry bound must
// stop exactly at MaxAttempts so a crashing job cannot loop forever.
func TestCanRetry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		attempt int
		want    bool
	}{
		{"first attempt may retry", 0, true},
		{"last attempt may not retry", MaxAttempts - 1, false},
		{"beyond the cap may not retry", MaxAttempts, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := canRetry(tt.attempt); got != tt.want {
				t.Errorf("canRetry(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestRunner_UnregisterRemovesJob(t *testing.T) {
	t.Parallel()

	r := testRunner()
	job := testJob()

	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	r.register(job, cancel)
	r.unregister(job)

	if r.Cancel(job.JobID) {
		t.Error("Cancel found a job after unregister")
	}
}
