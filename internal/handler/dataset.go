package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lexicognize/lexicognize/internal/activity"
	"github.com/lexicognize/lexicognize/internal/auth"
	"github.com/lexicognize/lexicognize/internal/handler/dto"
	"github.com/lexicognize/lexicognize/internal/middleware"
	"github.com/lexicognize/lexicognize/internal/model"
	"github.com/lexicognize/lexicognize/internal/repository"
	"github.com/lexicognize/lexicognize/internal/service"
)

// maxUploadMemory bounds the multipart form parse buffer; larger file
// parts spill to disk.
const maxUploadMemory = 16 << 20 // 16 MiB

// DatasetHandler handles dataset management endpoints.
type DatasetHandler struct {
	svc      *service.DatasetService
	activity *activity.Publisher
	logger   *slog.Logger
}

// NewDatasetHandler creates a new DatasetHandler. activityPub may be nil.
func NewDatasetHandler(svc *service.DatasetService, activityPub *activity.Publisher, logger *slog.Logger) *DatasetHandler {
	return &DatasetHandler{
		svc:      svc,
		activity: activityPub,
		logger:   logger,
	}
}

// Upload handles POST /api/v1/datasets. Multipart form with one or
// more "file" parts plus "name" and optional "description" fields.
// Records from all file parts merge into a single dataset.
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE", "Upload exceeds the size limit")
		return
	}

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "MISSING_FILE", "At least one file part named 'file' is required")
		return
	}

	files := make([]service.UploadFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", "Could not read uploaded file "+header.Filename)
			return
		}
		defer f.Close()
		files = append(files, service.UploadFile{Filename: header.Filename, Body: f})
	}

	ds, err := h.svc.Upload(r.Context(), service.UploadInput{
		UserID:      userID,
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Files:       files,
	})
	if err != nil {
		h.handleDatasetError(w, r, err)
		return
	}

	h.logger.Info("dataset_uploaded",
		"dataset_id", ds.ID,
		"user_id", userID,
		"samples", ds.Metadata.Samples,
	)
	h.record(r, userID, model.ActivityDatasetUpload, ds.ID, map[string]any{"name": ds.Name})

	writeJSON(w, http.StatusCreated, ds)
}

// Import handles POST /api/v1/datasets/import. The import runs in the
// background; clients poll the dataset list for the result.
func (h *DatasetHandler) Import(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req dto.ImportDatasetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if req.HubDataset == "" {
		writeError(w, http.StatusBadRequest, "MISSING_DATASET", "hub_dataset is required")
		return
	}

	err := h.svc.ImportFromHub(r.Context(), userID, req.Name, req.HubDataset, req.Config, req.Split, req.Mapping())
	if err != nil {
		h.handleDatasetError(w, r, err)
		return
	}

	h.record(r, userID, model.ActivityDatasetImport, req.HubDataset, nil)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":      "importing",
		"hub_dataset": req.HubDataset,
	})
}

// List handles GET /api/v1/datasets.
func (h *DatasetHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	query := r.URL.Query()

	filter := repository.DatasetFilter{UserID: userID}
	switch query.Get("visibility") {
	case "owned":
		filter.OwnedOnly = true
	case "public":
		filter.PublicOnly = true
	}
	filter.CreatedFrom = query.Get("source")
	filter.Search = query.Get("search")

	datasets, next, err := h.svc.List(r.Context(), filter, query.Get("cursor"), parseLimit(query.Get("limit")))
	if err != nil {
		h.handleDatasetError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DatasetListResponse{
		Data:       datasets,
		Pagination: dto.NewPagination(next),
	})
}

// Get handles GET /api/v1/datasets/{id}. The response carries the
// first few records so clients can inspect content without a download.
func (h *DatasetHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	ds, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		h.handleDatasetError(w, r, err)
		return
	}

	preview, err := h.svc.Preview(r.Context(), userID, id)
	if err != nil {
		// The stored file may be temporarily unreadable; the metadata
		// is still worth returning.
		h.logger.Warn("dataset preview", "dataset_id", id, "error", err)
	}

	writeJSON(w, http.StatusOK, dto.DatasetDetailResponse{
		Dataset: ds,
		Preview: preview,
	})
}

// Update handles PATCH /api/v1/datasets/{id}.
func (h *DatasetHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateDatasetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	ds, err := h.svc.Update(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"), service.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		h.handleDatasetError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

// Share handles PUT /api/v1/datasets/{id}/share.
func (h *DatasetHandler) Share(w http.ResponseWriter, r *http.Request) {
	var req dto.ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.svc.Share(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"), req.SharedWith); err != nil {
		h.handleDatasetError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LanguageStats handles GET /api/v1/datasets/languages. Read-only view
// of how much training data exists per language.
func (h *DatasetHandler) LanguageStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.LanguageStats(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.handleDatasetError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"languages": stats})
}

// RecomputeStats handles POST /api/v1/datasets/{id}/stats. Re-derives
// the statistics blob from the stored records.
func (h *DatasetHandler) RecomputeStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.RecomputeStats(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.handleDatasetError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"statistics": stats})
}

// Delete handles DELETE /api/v1/datasets/{id}.
func (h *DatasetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		h.handleDatasetError(w, r, err)
		return
	}

	h.logger.Info("dataset_deleted", "dataset_id", id, "user_id", userID)
	h.record(r, userID, model.ActivityDatasetDelete, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *DatasetHandler) record(r *http.Request, userID, action, resource string, detail map[string]any) {
	if h.activity == nil {
		return
	}
	h.activity.Record(userID, action, resource, middleware.GetRequestID(r.Context()), detail)
}

// handleDatasetError maps dataset service errors to HTTP responses.
func (h *DatasetHandler) handleDatasetError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrDatasetNotFound):
		writeError(w, http.StatusNotFound, "DATASET_NOT_FOUND", "Dataset not found")
	case errors.Is(err, service.ErrDatasetInUse):
		writeError(w, http.StatusConflict, "DATASET_IN_USE", "Dataset is used by an active training job")
	case errors.Is(err, service.ErrEmptyDataset):
		writeError(w, http.StatusBadRequest, "EMPTY_DATASET", "Dataset contains no records")
	case errors.Is(err, service.ErrInvalidRecord):
		writeError(w, http.StatusBadRequest, "INVALID_RECORD", err.Error())
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

// parseLimit parses a limit query parameter, returning 0 for the
// service default when absent or invalid.
func parseLimit(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
