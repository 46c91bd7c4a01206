package training

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/lexicognize/lexicognize/internal/model"
)

func testJob() *model.TrainingJob {
	return &model.TrainingJob{
		ID:        "01TESTJOB",
		JobID:     "8b6f3a1e-0000-0000-0000-000000000001",
		UserID:    "01TESTUSER",
		Name:      "judgment summarizer",
		ModelType: model.ModelTypeBART,
		Task:      model.TaskSummarization,
		DatasetID: "01TESTDATASET",
		Config:    model.DefaultTrainingConfig(),
		Status:    model.JobRunning,
	}
}

// writeScript drops an executable shell script into a temp dir and
// returns its path, so tests can stand in for the real trainer.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trainer.sh")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestBuildArgs(t *testing.T) {
	t.Parallel()

	tr := NewTrainer("python3 -m trainer")
	job := testJob()
	args := tr.buildArgs(job, "/data/uploads/u/ds.json", "/data/models/j")

	wantPairs := map[string]string{
		"--job-id":     job.JobID,
		"--task":       "summarization",
		"--model-type": "bart",
		"--base-model": "facebook/bart-large-cnn",
		"--dataset":    "/data/uploads/u/ds.json",
		"--output-dir": "/data/models/j",
		"--epochs":     "3",
		"--batch-size": "4",
		"--max-length": "1024",
	}
	for flag, want := range wantPairs {
		i := slices.Index(args, flag)
		if i < 0 || i+1 >= len(args) {
			t.Fatalf("missing flag %s in %v", flag, args)
		}
		if args[i+1] != want {
			t.Errorf("%s = %q, want %q", flag, args[i+1], want)
		}
	}
	if slices.Contains(args, "--languages") {
		t.Error("languages flag present without configured languages")
	}
}

func TestBuildArgs_Languages(t *testing.T) {
	t.Parallel()

	tr := NewTrainer("python3 -m trainer")
	job := testJob()
	job.ModelType = model.ModelTypeMultilingual
	job.Task = model.TaskTranslation
	job.Config.Languages = []string{"en", "hi"}

	args := tr.buildArgs(job, "ds", "out")
	i := slices.Index(args, "--languages")
	if i < 0 || args[i+1] != "en,hi" {
		t.Errorf("languages flag wrong in %v", args)
	}
}

func TestTrainerRun_ParsesOutput(t *testing.T) {
	t.Parallel()

	script := writeScript(t, `
echo "epoch 1/3"
echo "PROGRESS 33"
echo "PROGRESS 100"
echo 'METRICS {"train_loss": 0.5, "rouge1": 0.41}'
`)
	tr := NewTrainer(script)

	var progress []int
	var logs []string
	result, err := tr.Run(context.Background(), testJob(), "ds", "out",
		func(p int) { progress = append(progress, p) },
		func(line string) { logs = append(logs, line) },
	)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !slices.Equal(progress, []int{33, 100}) {
		t.Errorf("progress = %v, want [33 100]", progress)
	}
	if result.Metrics["train_loss"] != 0.5 {
		t.Errorf("metrics = %v, want train_loss 0.5", result.Metrics)
	}
	if len(logs) == 0 || !strings.Contains(logs[0], "epoch 1/3") {
		t.Errorf("logs = %v, want epoch line", logs)
	}
}

func TestTrainerRun_ClampsProgress(t *testing.T) {
	t.Parallel()

	script := writeScript(t, `
echo "PROGRESS 150"
echo "PROGRESS -5"
`)
	tr := NewTrainer(script)

	var progress []int
	if _, err := tr.Run(context.Background(), testJob(), "ds", "out",
		func(p int) { progress = append(progress, p) }, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !slices.Equal(progress, []int{100, 0}) {
		t.Errorf("progress = %v, want [100 0]", progress)
	}
}

func TestTrainerRun_NonZeroExit(t *testing.T) {
	t.Parallel()

	script := writeScript(t, `
echo "CUDA out of memory"
exit 1
`)
	tr := NewTrainer(script)

	_, err := tr.Run(context.Background(), testJob(), "ds", "out", nil, nil)
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !errors.Is(err, ErrTrainerFailed) {
		t.Errorf("err = %v, want ErrTrainerFailed", err)
	}
}

func TestTrainerRun_Cancelled(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "sleep 60")
	tr := NewTrainer(script)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := tr.Run(ctx, testJob(), "ds", "out", nil, nil)
	if err == nil {
		t.Fatal("expected error from cancelled run")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("cancellation did not stop the process promptly")
	}
}
