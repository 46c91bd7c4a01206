package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lexicognize/lexicognize/internal/activity"
	"github.com/lexicognize/lexicognize/internal/auth"
	"github.com/lexicognize/lexicognize/internal/handler/dto"
	"github.com/lexicognize/lexicognize/internal/middleware"
	"github.com/lexicognize/lexicognize/internal/model"
	"github.com/lexicognize/lexicognize/internal/service"
)

// TrainingHandler handles fine-tuning job endpoints.
type TrainingHandler struct {
	svc      *service.TrainingService
	activity *activity.Publisher
	logger   *slog.Logger
}

// NewTrainingHandler creates a new TrainingHandler. activityPub may be nil.
func NewTrainingHandler(svc *service.TrainingService, activityPub *activity.Publisher, logger *slog.Logger) *TrainingHandler {
	return &TrainingHandler{
		svc:      svc,
		activity: activityPub,
		logger:   logger,
	}
}

// Create handles POST /api/v1/training/jobs.
func (h *TrainingHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req dto.CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	job, err := h.svc.CreateJob(r.Context(), service.CreateJobInput{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		ModelType:   req.ModelType,
		Task:        req.Task,
		DatasetID:   req.DatasetID,
		Config:      req.Config,
	})
	if err != nil {
		h.handleTrainingError(w, r, err)
		return
	}

	h.record(r, userID, model.ActivityTrainingStart, job.JobID, map[string]any{
		"task":       job.Task,
		"model_type": job.ModelType,
	})
	writeJSON(w, http.StatusCreated, job)
}

// List handles GET /api/v1/training/jobs.
func (h *TrainingHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	query := r.URL.Query()

	jobs, next, err := h.svc.List(r.Context(), userID,
		model.JobStatus(query.Get("status")),
		query.Get("cursor"),
		parseLimit(query.Get("limit")),
	)
	if err != nil {
		h.handleTrainingError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.JobListResponse{
		Data:       jobs,
		Pagination: dto.NewPagination(next),
	})
}

// Get handles GET /api/v1/training/jobs/{job_id}.
func (h *TrainingHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.Get(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "job_id"))
	if err != nil {
		h.handleTrainingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// Cancel handles POST /api/v1/training/jobs/{job_id}/cancel.
func (h *TrainingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	jobID := chi.URLParam(r, "job_id")

	job, err := h.svc.Cancel(r.Context(), userID, jobID)
	if err != nil {
		h.handleTrainingError(w, r, err)
		return
	}

	h.record(r, userID, model.ActivityTrainingCancel, jobID, nil)
	writeJSON(w, http.StatusOK, job)
}

// Logs handles GET /api/v1/training/jobs/{job_id}/logs.
func (h *TrainingHandler) Logs(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	log, err := h.svc.Logs(r.Context(), auth.UserIDFromContext(r.Context()), jobID)
	if err != nil {
		h.handleTrainingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.JobLogResponse{JobID: jobID, Log: log})
}

func (h *TrainingHandler) record(r *http.Request, userID, action, resource string, detail map[string]any) {
	if h.activity == nil {
		return
	}
	h.activity.Record(userID, action, resource, middleware.GetRequestID(r.Context()), detail)
}

// handleTrainingError maps training service errors to HTTP responses.
func (h *TrainingHandler) handleTrainingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "JOB_NOT_FOUND", "Training job not found")
	case errors.Is(err, service.ErrJobNotCancellable):
		writeError(w, http.StatusConflict, "JOB_NOT_CANCELLABLE", "Job is not pending or running")
	case errors.Is(err, service.ErrJobCapExceeded):
		writeError(w, http.StatusConflict, "JOB_CAP_EXCEEDED", "Active training job limit reached")
	case errors.Is(err, service.ErrDatasetNotFound):
		writeError(w, http.StatusNotFound, "DATASET_NOT_FOUND", "Dataset not found")
	case errors.Is(err, service.ErrDatasetTooSmall):
		writeError(w, http.StatusBadRequest, "DATASET_TOO_SMALL", err.Error())
	case errors.Is(err, service.ErrInvalidModelType):
		writeError(w, http.StatusBadRequest, "INVALID_MODEL_TYPE", "Unsupported model type")
	case errors.Is(err, service.ErrInvalidTask):
		writeError(w, http.StatusBadRequest, "INVALID_TASK", err.Error())
	case errors.Is(err, service.ErrInvalidConfig):
		writeError(w, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
	case middleware.IsValidationError(err):
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
	default:
		h.logger.Error("internal_error",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
