package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lexicognize/lexicognize/internal/evaluation"
	"github.com/lexicognize/lexicognize/internal/model"
	"github.com/lexicognize/lexicognize/internal/modelserver"
)

// Evaluation service errors.
var (
	ErrEvalTooLarge = errors.New("evaluation set exceeds the maximum size")
	ErrNoModels     = errors.New("no models to evaluate")
)

// MaxEvalSamples bounds a synchronous evaluation run. Larger sets
// belong in a training job's held-out split.
const MaxEvalSamples = 200

// EvaluationService scores model output against references using
// ROUGE and BLEU, and compares multiple models on the same set.
type EvaluationService struct {
	models   *ModelService
	datasets *DatasetService
	server   *modelserver.Client
	logger   *slog.Logger
}

// NewEvaluationService creates an EvaluationService.
func NewEvaluationService(models *ModelService, datasets *DatasetService, server *modelserver.Client, logger *slog.Logger) *EvaluationService {
	return &EvaluationService{
		models:   models,
		datasets: datasets,
		server:   server,
		logger:   logger.With("component", "service.evaluation"),
	}
}

// ScoreResult is the metric bundle for one candidate/reference set.
type ScoreResult struct {
	Rouge   evaluation.RougeResult `json:"rouge"`
	Bleu    evaluation.BleuResult  `json:"bleu"`
	Samples int                    `json:"samples"`
}

// Score computes ROUGE and BLEU over parallel candidate and reference
// slices, without running any model.
func Score(candidates, references []string) (*ScoreResult, error) {
	if len(candidates) == 0 || len(candidates) != len(references) {
		return nil, fmt.Errorf("%w: candidates and references must be parallel and non-empty", ErrInvalidRecord)
	}
	if len(candidates) > MaxEvalSamples {
		return nil, ErrEvalTooLarge
	}

	agg := aggregateRouge(candidates, references)
	return &ScoreResult{
		Rouge:   agg,
		Bleu:    evaluation.Bleu(candidates, references),
		Samples: len(candidates),
	}, nil
}

// ModelScore is one model's result in a comparison run.
type ModelScore struct {
	ModelID   string      `json:"model_id"`
	ModelName string      `json:"model_name"`
	Scores    ScoreResult `json:"scores"`
	Error     string      `json:"error,omitempty"`
}

// EvaluateInput defines input for evaluating models on a dataset.
type EvaluateInput struct {
	UserID     string
	ModelIDs   []string
	DatasetID  string
	MaxSamples int
	Params     *model.GenerationParams
}

// Evaluate runs each model over the dataset's sources and scores the
// outputs against the targets. Models failing mid-run report an error
// instead of aborting the whole comparison.
func (s *EvaluationService) Evaluate(ctx context.Context, input EvaluateInput) ([]ModelScore, error) {
	if len(input.ModelIDs) == 0 {
		return nil, ErrNoModels
	}

	records, err := s.datasets.ReadRecords(ctx, input.UserID, input.DatasetID)
	if err != nil {
		return nil, err
	}

	limit := input.MaxSamples
	if limit <= 0 || limit > MaxEvalSamples {
		limit = MaxEvalSamples
	}
	if len(records) > limit {
		records = records[:limit]
	}

	sources := make([]string, len(records))
	references := make([]string, len(records))
	for i, rec := range records {
		sources[i] = rec.Source
		references[i] = rec.Target
	}

	params := model.DefaultGenerationParams()
	if input.Params != nil {
		params = mergeParams(params, *input.Params)
	}
	if err := validateParams(params); err != nil {
		return nil, err
	}

	results := make([]ModelScore, 0, len(input.ModelIDs))
	for _, modelID := range input.ModelIDs {
		m, err := s.models.Get(ctx, input.UserID, modelID)
		if err != nil {
			return nil, err
		}

		score := ModelScore{ModelID: m.ID, ModelName: m.Name}
		candidates, err := s.generateAll(ctx, m, sources, params)
		if err != nil {
			s.logger.Warn("evaluation generation failed", "model_id", m.ID, "error", err)
			score.Error = err.Error()
			results = append(results, score)
			continue
		}

		score.Scores = ScoreResult{
			Rouge:   aggregateRouge(candidates, references),
			Bleu:    evaluation.Bleu(candidates, references),
			Samples: len(candidates),
		}
		results = append(results, score)
	}
	return results, nil
}

// generateAll runs sources through one model in server-sized batches.
func (s *EvaluationService) generateAll(ctx context.Context, m *model.UserModel, sources []string, params model.GenerationParams) ([]string, error) {
	outputs := make([]string, 0, len(sources))
	for i := 0; i < len(sources); i += modelserver.MaxBatchSize {
		batch := sources[i:min(i+modelserver.MaxBatchSize, len(sources))]
		resp, err := s.server.BatchGenerate(ctx, modelserver.BatchGenerateRequest{
			ModelPath: m.ModelPath,
			Task:      m.Task,
			Inputs:    batch,
			Params:    params,
		})
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, resp.Outputs...)
	}
	return outputs, nil
}

// aggregateRouge macro-averages per-sample ROUGE over the set.
func aggregateRouge(candidates, references []string) evaluation.RougeResult {
	var agg evaluation.RougeResult
	n := float64(len(candidates))
	if n == 0 {
		return agg
	}

	for i := range candidates {
		r := evaluation.Rouge(candidates[i], references[i])
		agg.Rouge1 = addScore(agg.Rouge1, r.Rouge1)
		agg.Rouge2 = addScore(agg.Rouge2, r.Rouge2)
		agg.RougeL = addScore(agg.RougeL, r.RougeL)
	}
	agg.Rouge1 = divScore(agg.Rouge1, n)
	agg.Rouge2 = divScore(agg.Rouge2, n)
	agg.RougeL = divScore(agg.RougeL, n)
	return agg
}

func addScore(a, b evaluation.RougeScore) evaluation.RougeScore {
	return evaluation.RougeScore{
		Precision: a.Precision + b.Precision,
		Recall:    a.Recall + b.Recall,
		F1:        a.F1 + b.F1,
	}
}

func divScore(a evaluation.RougeScore, n float64) evaluation.RougeScore {
	return evaluation.RougeScore{
		Precision: a.Precision / n,
		Recall:    a.Recall / n,
		F1:        a.F1 / n,
	}
}
