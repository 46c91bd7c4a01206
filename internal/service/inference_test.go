package service

import (
	"errors"
	"testing"

	"github.com/lexicognize/lexicognize/internal/model"
)

func TestValidateParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*model.GenerationParams)
		wantErr bool
	}{
		{name: "defaults", mutate: func(p *model.GenerationParams) {}},
		{name: "max length too large", mutate: func(p *model.GenerationParams) { p.MaxLength = 2048 }, wantErr: true},
		{name: "min above max", mutate: func(p *model.GenerationParams) { p.MinLength = p.MaxLength }, wantErr: true},
		{name: "zero beams", mutate: func(p *model.GenerationParams) { p.NumBeams = 0 }, wantErr: true},
		{name: "too many beams", mutate: func(p *model.GenerationParams) { p.NumBeams = 32 }, wantErr: true},
		{name: "zero temperature", mutate: func(p *model.GenerationParams) { p.Temperature = 0 }, wantErr: true},
		{name: "hot temperature", mutate: func(p *model.GenerationParams) { p.Temperature = 3 }, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := model.DefaultGenerationParams()
			tt.mutate(&p)

			err := validateParams(p)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidParams) {
					t.Errorf("err = %v, want ErrInvalidParams", err)
				}
				return
			}
			if err != nil {
				t.Errorf("validateParams: %v", err)
			}
		})
	}
}

func TestMergeParams(t *testing.T) {
	t.Parallel()

	base := model.DefaultGenerationParams()
	merged := mergeParams(base, model.GenerationParams{MaxLength: 128, DoSample: true})

	if merged.MaxLength != 128 {
		t.Errorf("max length = %d, want 128", merged.MaxLength)
	}
	if merged.NumBeams != base.NumBeams {
		t.Errorf("num beams = %d, want default %d", merged.NumBeams, base.NumBeams)
	}
	if !merged.DoSample {
		t.Error("do_sample not carried over")
	}
}
