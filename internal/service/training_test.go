package service

import (
	"errors"
	"testing"

	"github.com/lexicognize/lexicognize/internal/model"
)

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	base := model.DefaultTrainingConfig()

	tests := []struct {
		name      string
		mutate    func(*model.TrainingConfig)
		modelType string
		wantErr   bool
	}{
		{name: "defaults", mutate: func(c *model.TrainingConfig) {}, modelType: model.ModelTypeBART},
		{
			name:      "zero epochs",
			mutate:    func(c *model.TrainingConfig) { c.Epochs = 0 },
			modelType: model.ModelTypeBART,
			wantErr:   true,
		},
		{
			name:      "too many epochs",
			mutate:    func(c *model.TrainingConfig) { c.Epochs = 100 },
			modelType: model.ModelTypeBART,
			wantErr:   true,
		},
		{
			name:      "oversized batch",
			mutate:    func(c *model.TrainingConfig) { c.BatchSize = 128 },
			modelType: model.ModelTypeBART,
			wantErr:   true,
		},
		{
			name:      "learning rate above one",
			mutate:    func(c *model.TrainingConfig) { c.LearningRate = 1.5 },
			modelType: model.ModelTypeBART,
			wantErr:   true,
		},
		{
			name:      "target longer than source window",
			mutate:    func(c *model.TrainingConfig) { c.TargetMaxLength = c.MaxLength + 1 },
			modelType: model.ModelTypeBART,
			wantErr:   true,
		},
		{
			name:      "languages on multilingual",
			mutate:    func(c *model.TrainingConfig) { c.Languages = []string{"hi", "ta"} },
			modelType: model.ModelTypeMultilingual,
		},
		{
			name:      "languages on bart",
			mutate:    func(c *model.TrainingConfig) { c.Languages = []string{"hi"} },
			modelType: model.ModelTypeBART,
			wantErr:   true,
		},
		{
			name:      "unknown language",
			mutate:    func(c *model.TrainingConfig) { c.Languages = []string{"xx"} },
			modelType: model.ModelTypeMultilingual,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := base
			tt.mutate(&cfg)

			err := validateConfig(cfg, tt.modelType)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("err = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Errorf("validateConfig: %v", err)
			}
		})
	}
}

func TestMergeConfig(t *testing.T) {
	t.Parallel()

	base := model.DefaultTrainingConfig()
	merged := mergeConfig(base, model.TrainingConfig{Epochs: 5, Languages: []string{"hi"}})

	if merged.Epochs != 5 {
		t.Errorf("epochs = %d, want 5", merged.Epochs)
	}
	if merged.BatchSize != base.BatchSize {
		t.Errorf("batch size = %d, want default %d", merged.BatchSize, base.BatchSize)
	}
	if len(merged.Languages) != 1 || merged.Languages[0] != "hi" {
		t.Errorf("languages = %v, want [hi]", merged.Languages)
	}
}
