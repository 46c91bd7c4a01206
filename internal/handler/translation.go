package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lexicognize/lexicognize/internal/handler/dto"
	"github.com/lexicognize/lexicognize/internal/langid"
	"github.com/lexicognize/lexicognize/internal/middleware"
	"github.com/lexicognize/lexicognize/internal/service"
	"github.com/lexicognize/lexicognize/internal/translit"
)

// TranslationHandler handles translation and transliteration endpoints.
type TranslationHandler struct {
	svc    *service.TranslationService
	logger *slog.Logger
}

// NewTranslationHandler creates a new TranslationHandler.
func NewTranslationHandler(svc *service.TranslationService, logger *slog.Logger) *TranslationHandler {
	return &TranslationHandler{
		svc:    svc,
		logger: logger,
	}
}

// Translate handles POST /api/v1/translate.
func (h *TranslationHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req dto.TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	result, err := h.svc.Translate(r.Context(), service.TranslateInput{
		Text:       req.Text,
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
	})
	if err != nil {
		h.handleTranslationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// TranslateBatch handles POST /api/v1/translate/batch.
func (h *TranslationHandler) TranslateBatch(w http.ResponseWriter, r *http.Request) {
	var req dto.BatchTranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if len(req.Texts) == 0 {
		writeError(w, http.StatusBadRequest, "EMPTY_INPUT", "At least one text is required")
		return
	}

	results, err := h.svc.TranslateBatch(r.Context(), req.Texts, req.SourceLang, req.TargetLang)
	if err != nil {
		h.handleTranslationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// TranslateDocument handles POST /api/v1/translate/document. Only the
// named string fields are translated; everything else passes through.
func (h *TranslationHandler) TranslateDocument(w http.ResponseWriter, r *http.Request) {
	var req dto.TranslateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if len(req.Document) == 0 || len(req.Fields) == 0 {
		writeError(w, http.StatusBadRequest, "EMPTY_INPUT", "document and fields are required")
		return
	}

	translated, err := h.svc.TranslateFields(r.Context(), req.Document, req.Fields, req.SourceLang, req.TargetLang)
	if err != nil {
		h.handleTranslationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"document": translated})
}

// Languages handles GET /api/v1/translate/languages.
func (h *TranslationHandler) Languages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"languages": h.svc.SupportedLanguages(),
		"pairs":     h.svc.LanguagePairs(),
	})
}

// Detect handles POST /api/v1/translate/detect. Returns the dominant
// language with confidence and the per-language segments of mixed text.
func (h *TranslationHandler) Detect(w http.ResponseWriter, r *http.Request) {
	var req dto.DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "EMPTY_INPUT", "Text is required")
		return
	}

	result := langid.Detect(req.Text)
	writeJSON(w, http.StatusOK, map[string]any{
		"language":   result.Language,
		"confidence": result.Confidence,
		"counts":     result.Counts,
		"segments":   langid.Segments(req.Text),
	})
}

// DetectScript handles POST /api/v1/transliterate/detect.
func (h *TranslationHandler) DetectScript(w http.ResponseWriter, r *http.Request) {
	var req dto.DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "EMPTY_INPUT", "Text is required")
		return
	}

	result := langid.Detect(req.Text)
	script := translit.ScriptForLanguage[result.Language]
	if script == "" {
		writeError(w, http.StatusBadRequest, "UNKNOWN_SCRIPT", "Could not detect the script")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"script":     script,
		"language":   result.Language,
		"confidence": result.Confidence,
	})
}

// Transliterate handles POST /api/v1/transliterate.
func (h *TranslationHandler) Transliterate(w http.ResponseWriter, r *http.Request) {
	var req dto.TransliterateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	resp, ok := h.transliterateOne(w, req.Text, req.SourceScript, req.TargetScript)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// TransliterateBatch handles POST /api/v1/transliterate/batch.
func (h *TranslationHandler) TransliterateBatch(w http.ResponseWriter, r *http.Request) {
	var req dto.BatchTransliterateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if len(req.Texts) == 0 {
		writeError(w, http.StatusBadRequest, "EMPTY_INPUT", "At least one text is required")
		return
	}

	results := make([]dto.TransliterateResponse, 0, len(req.Texts))
	for _, text := range req.Texts {
		resp, ok := h.transliterateOne(w, text, req.SourceScript, req.TargetScript)
		if !ok {
			return
		}
		results = append(results, resp)
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// transliterateOne resolves the source script and converts one text.
// It writes the error response itself and reports success via ok.
func (h *TranslationHandler) transliterateOne(w http.ResponseWriter, text, sourceScript, targetScript string) (dto.TransliterateResponse, bool) {
	if text == "" {
		writeError(w, http.StatusBadRequest, "EMPTY_INPUT", "Text is required")
		return dto.TransliterateResponse{}, false
	}
	if targetScript == "" {
		writeError(w, http.StatusBadRequest, "MISSING_SCRIPT", "target_script is required")
		return dto.TransliterateResponse{}, false
	}

	src := sourceScript
	if src == "" {
		detected := langid.Detect(text)
		src = translit.ScriptForLanguage[detected.Language]
		if src == "" {
			writeError(w, http.StatusBadRequest, "UNKNOWN_SCRIPT", "Could not detect the source script; pass source_script")
			return dto.TransliterateResponse{}, false
		}
	}

	result, err := translit.Transliterate(text, src, targetScript)
	if err != nil {
		var unsupported *translit.ErrUnsupportedScript
		if errors.As(err, &unsupported) {
			writeError(w, http.StatusBadRequest, "UNSUPPORTED_SCRIPT", err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		}
		return dto.TransliterateResponse{}, false
	}

	return dto.TransliterateResponse{
		Result:       result,
		SourceScript: src,
		TargetScript: targetScript,
	}, true
}

// handleTranslationError maps translation service errors to HTTP responses.
func (h *TranslationHandler) handleTranslationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, "EMPTY_INPUT", err.Error())
	case errors.Is(err, service.ErrInputTooLong):
		writeError(w, http.StatusRequestEntityTooLarge, "INPUT_TOO_LONG", "Input exceeds the maximum length")
	case errors.Is(err, service.ErrBatchTooLarge):
		writeError(w, http.StatusBadRequest, "BATCH_TOO_LARGE", err.Error())
	case errors.Is(err, service.ErrUnsupportedLanguage):
		writeError(w, http.StatusBadRequest, "UNSUPPORTED_LANGUAGE", err.Error())
	case errors.Is(err, service.ErrSameLanguage):
		writeError(w, http.StatusBadRequest, "SAME_LANGUAGE", "Source and target languages are identical")
	case errors.Is(err, service.ErrTranslationFailed):
		writeError(w, http.StatusBadGateway, "TRANSLATION_FAILED", "Translation failed")
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
