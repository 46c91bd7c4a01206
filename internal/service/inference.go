package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/lexicognize/lexicognize/internal/metrics"
	"github.com/lexicognize/lexicognize/internal/model"
	"github.com/lexicognize/lexicognize/internal/modelserver"
	"github.com/lexicognize/lexicognize/internal/pdftext"
	"github.com/lexicognize/lexicognize/internal/repository"
)

// Inference service errors.
var (
	ErrEmptyInput       = errors.New("input text is empty")
	ErrInputTooLong     = errors.New("input text exceeds the maximum length")
	ErrBatchTooLarge    = errors.New("batch exceeds the maximum size")
	ErrInvalidParams    = errors.New("invalid generation parameters")
	ErrModelUnavailable = errors.New("model server unavailable")
	ErrGenerationFailed = errors.New("generation failed")
	ErrRequestNotFound  = errors.New("inference request not found")
)

// MaxInputChars bounds a single inference input. Longer documents go
// through the PDF/chunked path.
const MaxInputChars = 100_000

// chunkChars caps each chunk for long-document summarization,
// roughly matching the 1024-token encoder window of the base models.
const chunkChars = 4000

// InferenceService runs generation against registered models and
// records each request.
type InferenceService struct {
	repo    *repository.Repository
	models  *ModelService
	server  *modelserver.Client
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewInferenceService creates an InferenceService.
func NewInferenceService(repo *repository.Repository, models *ModelService, server *modelserver.Client, recorder metrics.Recorder, logger *slog.Logger) *InferenceService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &InferenceService{
		repo:    repo,
		models:  models,
		server:  server,
		metrics: recorder,
		logger:  logger.With("component", "service.inference"),
	}
}

// GenerateInput defines input for a single generation call.
type GenerateInput struct {
	UserID  string
	ModelID string
	Text    string
	Params  *model.GenerationParams
}

// Generate runs one text through a model the user can access. The
// request row is written up front so failures stay auditable.
func (s *InferenceService) Generate(ctx context.Context, input GenerateInput) (*model.InferenceRequest, error) {
	m, params, err := s.prepare(ctx, input.UserID, input.ModelID, input.Text, input.Params)
	if err != nil {
		return nil, err
	}

	req, err := s.createRequest(ctx, input.UserID, m.ID, input.Text, model.InputTypeText, params)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := s.server.Generate(ctx, modelserver.GenerateRequest{
		ModelPath: m.ModelPath,
		Task:      m.Task,
		Input:     input.Text,
		Params:    params,
	})
	if err != nil {
		return nil, s.finishFailed(ctx, req, err)
	}

	return s.finishCompleted(ctx, req, m, resp.Output, time.Since(start))
}

// BatchGenerateInput defines input for a batch generation call.
type BatchGenerateInput struct {
	UserID  string
	ModelID string
	Texts   []string
	Params  *model.GenerationParams
}

// BatchGenerate runs several texts through one model. Outputs come back
// in input order. The batch is recorded as one request row with inputs
// joined for audit.
func (s *InferenceService) BatchGenerate(ctx context.Context, input BatchGenerateInput) ([]string, *model.InferenceRequest, error) {
	if len(input.Texts) == 0 {
		return nil, nil, ErrEmptyInput
	}
	if len(input.Texts) > modelserver.MaxBatchSize {
		return nil, nil, fmt.Errorf("%w: %d texts, maximum %d", ErrBatchTooLarge, len(input.Texts), modelserver.MaxBatchSize)
	}
	for _, text := range input.Texts {
		if strings.TrimSpace(text) == "" {
			return nil, nil, ErrEmptyInput
		}
		if len(text) > MaxInputChars {
			return nil, nil, ErrInputTooLong
		}
	}

	m, params, err := s.prepare(ctx, input.UserID, input.ModelID, input.Texts[0], input.Params)
	if err != nil {
		return nil, nil, err
	}

	req, err := s.createRequest(ctx, input.UserID, m.ID, strings.Join(input.Texts, "\n---\n"), model.InputTypeText, params)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	resp, err := s.server.BatchGenerate(ctx, modelserver.BatchGenerateRequest{
		ModelPath: m.ModelPath,
		Task:      m.Task,
		Inputs:    input.Texts,
		Params:    params,
	})
	if err != nil {
		return nil, nil, s.finishFailed(ctx, req, err)
	}

	completed, err := s.finishCompleted(ctx, req, m, strings.Join(resp.Outputs, "\n---\n"), time.Since(start))
	if err != nil {
		return nil, nil, err
	}
	return resp.Outputs, completed, nil
}

// SummarizePDF extracts text from a PDF and summarizes it, chunking
// long documents and summarizing chunk outputs in a second pass.
func (s *InferenceService) SummarizePDF(ctx context.Context, userID, modelID string, pdfData []byte, params *model.GenerationParams) (*model.InferenceRequest, error) {
	doc, err := pdftext.ExtractBytes(pdfData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmptyInput, err)
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, fmt.Errorf("%w: no extractable text in PDF", ErrEmptyInput)
	}

	m, p, err := s.prepare(ctx, userID, modelID, doc.Text[:min(len(doc.Text), MaxInputChars)], params)
	if err != nil {
		return nil, err
	}

	req, err := s.createRequest(ctx, userID, m.ID, doc.Text, model.InputTypePDF, p)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	output, err := s.summarizeLong(ctx, m, doc.Text, p)
	if err != nil {
		return nil, s.finishFailed(ctx, req, err)
	}

	return s.finishCompleted(ctx, req, m, output, time.Since(start))
}

// GetRequest returns one of the user's past inference requests.
func (s *InferenceService) GetRequest(ctx context.Context, userID, requestID string) (*model.InferenceRequest, error) {
	req, err := s.repo.GetInferenceRequestByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrInferenceNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("get inference request: %w", err)
	}
	if req.UserID != userID {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

// ListRequests returns the user's inference history, newest first.
func (s *InferenceService) ListRequests(ctx context.Context, userID, cursor string, limit int) ([]*model.InferenceRequest, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListInferenceRequests(ctx, userID, cursor, limit)
}

// summarizeLong chunks oversized documents on sentence boundaries,
// summarizes each chunk, then summarizes the concatenated summaries.
func (s *InferenceService) summarizeLong(ctx context.Context, m *model.UserModel, text string, params model.GenerationParams) (string, error) {
	chunks := pdftext.Chunk(text, chunkChars)
	if len(chunks) <= 1 {
		resp, err := s.server.Generate(ctx, modelserver.GenerateRequest{
			ModelPath: m.ModelPath,
			Task:      m.Task,
			Input:     text,
			Params:    params,
		})
		if err != nil {
			return "", err
		}
		return resp.Output, nil
	}

	var partials []string
	for i := 0; i < len(chunks); i += modelserver.MaxBatchSize {
		batch := chunks[i:min(i+modelserver.MaxBatchSize, len(chunks))]
		resp, err := s.server.BatchGenerate(ctx, modelserver.BatchGenerateRequest{
			ModelPath: m.ModelPath,
			Task:      m.Task,
			Inputs:    batch,
			Params:    params,
		})
		if err != nil {
			return "", err
		}
		partials = append(partials, resp.Outputs...)
	}

	combined := strings.Join(partials, " ")
	if len(combined) <= chunkChars {
		return combined, nil
	}
	resp, err := s.server.Generate(ctx, modelserver.GenerateRequest{
		ModelPath: m.ModelPath,
		Task:      m.Task,
		Input:     combined[:min(len(combined), MaxInputChars)],
		Params:    params,
	})
	if err != nil {
		return "", err
	}
	return resp.Output, nil
}

func (s *InferenceService) prepare(ctx context.Context, userID, modelID, text string, params *model.GenerationParams) (*model.UserModel, model.GenerationParams, error) {
	var zero model.GenerationParams
	if strings.TrimSpace(text) == "" {
		return nil, zero, ErrEmptyInput
	}
	if len(text) > MaxInputChars {
		return nil, zero, ErrInputTooLong
	}

	p := model.DefaultGenerationParams()
	if params != nil {
		p = mergeParams(p, *params)
	}
	if err := validateParams(p); err != nil {
		return nil, zero, err
	}

	m, err := s.models.Get(ctx, userID, modelID)
	if err != nil {
		return nil, zero, err
	}
	return m, p, nil
}

func (s *InferenceService) createRequest(ctx context.Context, userID, modelID, text, inputType string, params model.GenerationParams) (*model.InferenceRequest, error) {
	req := &model.InferenceRequest{
		ID:        ulid.Make().String(),
		RequestID: uuid.NewString(),
		UserID:    userID,
		ModelID:   modelID,
		InputText: text,
		InputType: inputType,
		Params:    params,
		Status:    model.InferenceProcessing,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateInferenceRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("create inference request: %w", err)
	}
	return req, nil
}

func (s *InferenceService) finishCompleted(ctx context.Context, req *model.InferenceRequest, m *model.UserModel, output string, elapsed time.Duration) (*model.InferenceRequest, error) {
	if err := s.repo.CompleteInferenceRequest(ctx, req.ID, output, elapsed.Seconds()); err != nil {
		s.logger.Error("complete inference request", "request_id", req.RequestID, "error", err)
	}
	if err := s.repo.IncrementModelUsage(ctx, m.ID); err != nil {
		s.logger.Warn("increment model usage", "model_id", m.ID, "error", err)
	}

	s.metrics.IncInferenceRequest("completed")
	s.metrics.ObserveInferenceDuration(elapsed)

	req.OutputText = output
	req.Status = model.InferenceCompleted
	req.ProcessingTime = elapsed.Seconds()
	now := time.Now().UTC()
	req.CompletedAt = &now
	return req, nil
}

// finishFailed marks the request row failed and maps the model server
// error to a service error.
func (s *InferenceService) finishFailed(ctx context.Context, req *model.InferenceRequest, cause error) error {
	if err := s.repo.FailInferenceRequest(ctx, req.ID, cause.Error()); err != nil {
		s.logger.Error("fail inference request", "request_id", req.RequestID, "error", err)
	}
	s.metrics.IncInferenceRequest("failed")

	switch {
	case errors.Is(cause, modelserver.ErrUnavailable):
		return fmt.Errorf("%w: %v", ErrModelUnavailable, cause)
	case errors.Is(cause, modelserver.ErrModelNotLoaded):
		return ErrModelNotFound
	case errors.Is(cause, modelserver.ErrBadRequest):
		return fmt.Errorf("%w: %v", ErrInvalidParams, cause)
	default:
		return fmt.Errorf("%w: %v", ErrGenerationFailed, cause)
	}
}

func mergeParams(base, override model.GenerationParams) model.GenerationParams {
	if override.MaxLength > 0 {
		base.MaxLength = override.MaxLength
	}
	if override.MinLength > 0 {
		base.MinLength = override.MinLength
	}
	if override.NumBeams > 0 {
		base.NumBeams = override.NumBeams
	}
	if override.Temperature > 0 {
		base.Temperature = override.Temperature
	}
	base.DoSample = override.DoSample
	return base
}

func validateParams(p model.GenerationParams) error {
	if p.MaxLength < 1 || p.MaxLength > 1024 {
		return fmt.Errorf("%w: max_length must be 1-1024", ErrInvalidParams)
	}
	if p.MinLength < 0 || p.MinLength >= p.MaxLength {
		return fmt.Errorf("%w: min_length must be below max_length", ErrInvalidParams)
	}
	if p.NumBeams < 1 || p.NumBeams > 16 {
		return fmt.Errorf("%w: num_beams must be 1-16", ErrInvalidParams)
	}
	if p.Temperature <= 0 || p.Temperature > 2 {
		return fmt.Errorf("%w: temperature must be in (0, 2]", ErrInvalidParams)
	}
	return nil
}
