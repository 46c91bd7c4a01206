package training

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/lexicognize/lexicognize/internal/model"
)

// Trainer lines the worker understands on stdout. Everything else is
// treated as opaque log output.
//
//	PROGRESS <0-100>
//	METRICS <json object>
const (
	progressPrefix = "PROGRESS "
	metricsPrefix  = "METRICS "
)

// ErrTrainerFailed indicates the trainer process exited non-zero.
var ErrTrainerFailed = errors.New("trainer process failed")

// Trainer launches the external fine-tuning process and streams its
// output back to the caller.
type Trainer struct {
	command string // e.g. "python3 -m lexicognize_trainer"
}

// NewTrainer creates a trainer wrapper around the configured command.
func NewTrainer(command string) *Trainer {
	return &Trainer{command: command}
}

// RunResult is what a finished trainer run produced.
type RunResult struct {
	Metrics map[string]any
}

// ProgressFunc receives progress updates (0-100) during a run.
type ProgressFunc func(progress int)

// LogFunc receives raw trainer output, one chunk per line.
type LogFunc func(line string)

// Run executes the trainer for one job and blocks until it exits or
// ctx is cancelled. Cancelling ctx kills the process group.
func (t *Trainer) Run(ctx context.Context, job *model.TrainingJob, datasetPath, outputDir string, onProgress ProgressFunc, onLog LogFunc) (*RunResult, error) {
	args := t.buildArgs(job, datasetPath, outputDir)

	parts := strings.Fields(t.command)
	if len(parts) == 0 {
		return nil, fmt.Errorf("trainer command is empty")
	}

	cmd := exec.CommandContext(ctx, parts[0], append(parts[1:], args...)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("trainer stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start trainer: %w", err)
	}

	result := &RunResult{}
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, progressPrefix):
			if p, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, progressPrefix))); err == nil {
				if p < 0 {
					p = 0
				}
				if p > 100 {
					p = 100
				}
				if onProgress != nil {
					onProgress(p)
				}
			}
		case strings.HasPrefix(line, metricsPrefix):
			var m map[string]any
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, metricsPrefix)), &m); err == nil {
				result.Metrics = m
			}
		default:
			if onLog != nil {
				onLog(line)
			}
		}
	}
	scanErr := scanner.Err()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrTrainerFailed, err)
	}
	if scanErr != nil {
		return nil, fmt.Errorf("read trainer output: %w", scanErr)
	}

	return result, nil
}

func (t *Trainer) buildArgs(job *model.TrainingJob, datasetPath, outputDir string) []string {
	cfg := job.Config
	args := []string{
		"--job-id", job.JobID,
		"--task", job.Task,
		"--model-type", job.ModelType,
		"--base-model", model.BaseModelFor(job.ModelType, job.Task),
		"--dataset", datasetPath,
		"--output-dir", outputDir,
		"--epochs", strconv.Itoa(cfg.Epochs),
		"--batch-size", strconv.Itoa(cfg.BatchSize),
		"--learning-rate", strconv.FormatFloat(cfg.LearningRate, 'g', -1, 64),
		"--max-length", strconv.Itoa(cfg.MaxLength),
		"--target-max-length", strconv.Itoa(cfg.TargetMaxLength),
	}
	if len(cfg.Languages) > 0 {
		args = append(args, "--languages", strings.Join(cfg.Languages, ","))
	}
	return args
}
