package dto

import "github.com/lexicognize/lexicognize/internal/model"

// GenerateRequest represents the request body for single generation.
type GenerateRequest struct {
	ModelID string                  `json:"model_id"`
	Text    string                  `json:"text"`
	Params  *model.GenerationParams `json:"parameters,omitempty"`
}

// BatchGenerateRequest represents the request body for batch generation.
type BatchGenerateRequest struct {
	ModelID string                  `json:"model_id"`
	Texts   []string                `json:"texts"`
	Params  *model.GenerationParams `json:"parameters,omitempty"`
}

// BatchGenerateResponse carries outputs in input order plus the
// recorded request.
type BatchGenerateResponse struct {
	Outputs   []string `json:"outputs"`
	RequestID string   `json:"request_id"`
}

// InferenceListResponse represents a paginated inference history.
type InferenceListResponse struct {
	Data       []*model.InferenceRequest `json:"data"`
	Pagination *Pagination               `json:"pagination"`
}

// TranslateRequest represents the request body for translation.
type TranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang,omitempty"`
	TargetLang string `json:"target_lang"`
}

// BatchTranslateRequest represents the request body for batch translation.
type BatchTranslateRequest struct {
	Texts      []string `json:"texts"`
	SourceLang string   `json:"source_lang,omitempty"`
	TargetLang string   `json:"target_lang"`
}

// TranslateDocumentRequest translates selected fields of a document.
type TranslateDocumentRequest struct {
	Document   map[string]any `json:"document"`
	Fields     []string       `json:"fields"`
	SourceLang string         `json:"source_lang,omitempty"`
	TargetLang string         `json:"target_lang"`
}

// DetectRequest asks for language or script detection of one text.
type DetectRequest struct {
	Text string `json:"text"`
}

// TransliterateRequest represents the request body for transliteration.
type TransliterateRequest struct {
	Text         string `json:"text"`
	SourceScript string `json:"source_script,omitempty"`
	TargetScript string `json:"target_script"`
}

// BatchTransliterateRequest transliterates several texts at once.
type BatchTransliterateRequest struct {
	Texts        []string `json:"texts"`
	SourceScript string   `json:"source_script,omitempty"`
	TargetScript string   `json:"target_script"`
}

// TransliterateResponse carries one transliteration result.
type TransliterateResponse struct {
	Result       string `json:"result"`
	SourceScript string `json:"source_script"`
	TargetScript string `json:"target_script"`
}

// EvaluateRequest represents the request body for model evaluation.
type EvaluateRequest struct {
	ModelIDs   []string                `json:"model_ids"`
	DatasetID  string                  `json:"dataset_id"`
	MaxSamples int                     `json:"max_samples,omitempty"`
	Params     *model.GenerationParams `json:"parameters,omitempty"`
}

// ScoreRequest scores provided candidates against references without
// running a model.
type ScoreRequest struct {
	Candidates []string `json:"candidates"`
	References []string `json:"references"`
}
