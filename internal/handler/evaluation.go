package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lexicognize/lexicognize/internal/activity"
	"github.com/lexicognize/lexicognize/internal/auth"
	"github.com/lexicognize/lexicognize/internal/handler/dto"
	"github.com/lexicognize/lexicognize/internal/middleware"
	"github.com/lexicognize/lexicognize/internal/model"
	"github.com/lexicognize/lexicognize/internal/service"
)

// EvaluationHandler handles model evaluation endpoints.
type EvaluationHandler struct {
	svc      *service.EvaluationService
	activity *activity.Publisher
	logger   *slog.Logger
}

// NewEvaluationHandler creates a new EvaluationHandler. activityPub may be nil.
func NewEvaluationHandler(svc *service.EvaluationService, activityPub *activity.Publisher, logger *slog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		svc:      svc,
		activity: activityPub,
		logger:   logger,
	}
}

// Evaluate handles POST /api/v1/evaluate. Runs each requested model
// over the dataset and scores outputs against the references.
func (h *EvaluationHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req dto.EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	scores, err := h.svc.Evaluate(r.Context(), service.EvaluateInput{
		UserID:     userID,
		ModelIDs:   req.ModelIDs,
		DatasetID:  req.DatasetID,
		MaxSamples: req.MaxSamples,
		Params:     req.Params,
	})
	if err != nil {
		h.handleEvaluationError(w, r, err)
		return
	}

	if h.activity != nil {
		h.activity.Record(userID, model.ActivityEvaluation, req.DatasetID, middleware.GetRequestID(r.Context()), map[string]any{
			"models": len(req.ModelIDs),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": scores})
}

// Score handles POST /api/v1/evaluate/score. Scores caller-provided
// candidates against references without running any model.
func (h *EvaluationHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req dto.ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	result, err := service.Score(req.Candidates, req.References)
	if err != nil {
		h.handleEvaluationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleEvaluationError maps evaluation service errors to HTTP responses.
func (h *EvaluationHandler) handleEvaluationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNoModels):
		writeError(w, http.StatusBadRequest, "NO_MODELS", "At least one model ID is required")
	case errors.Is(err, service.ErrEvalTooLarge):
		writeError(w, http.StatusBadRequest, "EVAL_TOO_LARGE", err.Error())
	case errors.Is(err, service.ErrModelNotFound):
		writeError(w, http.StatusNotFound, "MODEL_NOT_FOUND", "Model not found")
	case errors.Is(err, service.ErrDatasetNotFound):
		writeError(w, http.StatusNotFound, "DATASET_NOT_FOUND", "Dataset not found")
	case errors.Is(err, service.ErrEmptyDataset):
		writeError(w, http.StatusBadRequest, "EMPTY_DATASET", "Dataset contains no records")
	case errors.Is(err, service.ErrInvalidRecord):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, service.ErrModelUnavailable):
		writeError(w, http.StatusServiceUnavailable, "MODEL_UNAVAILABLE", "Model server is unavailable")
	default:
		h.logger.Error("internal_error",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
