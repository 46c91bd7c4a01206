package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lexicognize/lexicognize/internal/activity"
	"github.com/lexicognize/lexicognize/internal/auth"
	"github.com/lexicognize/lexicognize/internal/handler/dto"
	"github.com/lexicognize/lexicognize/internal/middleware"
	"github.com/lexicognize/lexicognize/internal/model"
	"github.com/lexicognize/lexicognize/internal/pdftext"
	"github.com/lexicognize/lexicognize/internal/service"
)

// InferenceHandler handles text generation endpoints.
type InferenceHandler struct {
	svc      *service.InferenceService
	activity *activity.Publisher
	logger   *slog.Logger
}

// NewInferenceHandler creates a new InferenceHandler. activityPub may be nil.
func NewInferenceHandler(svc *service.InferenceService, activityPub *activity.Publisher, logger *slog.Logger) *InferenceHandler {
	return &InferenceHandler{
		svc:      svc,
		activity: activityPub,
		logger:   logger,
	}
}

// Generate handles POST /api/v1/generate.
func (h *InferenceHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req dto.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	result, err := h.svc.Generate(r.Context(), service.GenerateInput{
		UserID:  userID,
		ModelID: req.ModelID,
		Text:    req.Text,
		Params:  req.Params,
	})
	if err != nil {
		h.handleInferenceError(w, r, err)
		return
	}

	h.record(r, userID, result.RequestID, map[string]any{"model_id": req.ModelID})
	writeJSON(w, http.StatusOK, result)
}

// BatchGenerate handles POST /api/v1/generate/batch.
func (h *InferenceHandler) BatchGenerate(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req dto.BatchGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	outputs, recorded, err := h.svc.BatchGenerate(r.Context(), service.BatchGenerateInput{
		UserID:  userID,
		ModelID: req.ModelID,
		Texts:   req.Texts,
		Params:  req.Params,
	})
	if err != nil {
		h.handleInferenceError(w, r, err)
		return
	}

	h.record(r, userID, recorded.RequestID, map[string]any{
		"model_id": req.ModelID,
		"batch":    len(req.Texts),
	})
	writeJSON(w, http.StatusOK, dto.BatchGenerateResponse{
		Outputs:   outputs,
		RequestID: recorded.RequestID,
	})
}

// SummarizePDF handles POST /api/v1/summarize/pdf. Multipart form with
// a "file" part plus "model_id" and optional generation parameter fields
// as a JSON "parameters" value.
func (h *InferenceHandler) SummarizePDF(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE", "Upload exceeds the size limit")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "MISSING_FILE", "A file part named 'file' is required")
		return
	}
	defer file.Close()

	pdfData, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "READ_FAILED", "Failed to read the uploaded file")
		return
	}

	var params *model.GenerationParams
	if raw := r.FormValue("parameters"); raw != "" {
		params = &model.GenerationParams{}
		if err := json.Unmarshal([]byte(raw), params); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid parameters field")
			return
		}
	}

	result, err := h.svc.SummarizePDF(r.Context(), userID, r.FormValue("model_id"), pdfData, params)
	if err != nil {
		h.handleInferenceError(w, r, err)
		return
	}

	h.record(r, userID, result.RequestID, map[string]any{
		"model_id":   r.FormValue("model_id"),
		"input_type": model.InputTypePDF,
	})
	writeJSON(w, http.StatusOK, result)
}

// ExtractPDF handles POST /api/v1/pdf/extract. Multipart form with a
// "file" part; returns the extracted text without running a model.
func (h *InferenceHandler) ExtractPDF(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE", "Upload exceeds the size limit")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "MISSING_FILE", "A file part named 'file' is required")
		return
	}
	defer file.Close()

	pdfData, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "READ_FAILED", "Failed to read the uploaded file")
		return
	}

	doc, err := pdftext.ExtractBytes(pdfData)
	if err != nil {
		writeError(w, http.StatusBadRequest, "PDF_EXTRACT_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// GetRequest handles GET /api/v1/inference/requests/{request_id}.
func (h *InferenceHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.svc.GetRequest(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "request_id"))
	if err != nil {
		h.handleInferenceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// ListRequests handles GET /api/v1/inference/requests.
func (h *InferenceHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	reqs, next, err := h.svc.ListRequests(r.Context(), auth.UserIDFromContext(r.Context()),
		query.Get("cursor"), parseLimit(query.Get("limit")))
	if err != nil {
		h.handleInferenceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.InferenceListResponse{
		Data:       reqs,
		Pagination: dto.NewPagination(next),
	})
}

func (h *InferenceHandler) record(r *http.Request, userID, resource string, detail map[string]any) {
	if h.activity == nil {
		return
	}
	h.activity.Record(userID, model.ActivityInference, resource, middleware.GetRequestID(r.Context()), detail)
}

// handleInferenceError maps inference service errors to HTTP responses.
func (h *InferenceHandler) handleInferenceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, "EMPTY_INPUT", err.Error())
	case errors.Is(err, service.ErrInputTooLong):
		writeError(w, http.StatusRequestEntityTooLarge, "INPUT_TOO_LONG", "Input exceeds the maximum length")
	case errors.Is(err, service.ErrBatchTooLarge):
		writeError(w, http.StatusBadRequest, "BATCH_TOO_LARGE", err.Error())
	case errors.Is(err, service.ErrInvalidParams):
		writeError(w, http.StatusBadRequest, "INVALID_PARAMS", err.Error())
	case errors.Is(err, service.ErrModelNotFound):
		writeError(w, http.StatusNotFound, "MODEL_NOT_FOUND", "Model not found")
	case errors.Is(err, service.ErrRequestNotFound):
		writeError(w, http.StatusNotFound, "REQUEST_NOT_FOUND", "Inference request not found")
	case errors.Is(err, service.ErrModelUnavailable):
		writeError(w, http.StatusServiceUnavailable, "MODEL_UNAVAILABLE", "Model server is unavailable")
	case errors.Is(err, service.ErrGenerationFailed):
		writeError(w, http.StatusBadGateway, "GENERATION_FAILED", "Generation failed")
	default:
		h.logger.Error("internal_error",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
