package model

import "time"

// InferenceStatus tracks a generation request lifecycle.
type InferenceStatus string

const (
	InferencePending    InferenceStatus = "pending"
	InferenceProcessing InferenceStatus = "processing"
	InferenceCompleted  InferenceStatus = "completed"
	InferenceFailed     InferenceStatus = "failed"
)

// Input types for inference requests.
const (
	InputTypeText = "text"
	InputTypePDF  = "pdf"
)

// GenerationParams are decoding parameters forwarded to the model server.
type GenerationParams struct {
	MaxLength   int     `json:"max_length"`
	MinLength   int     `json:"min_length"`
	NumBeams    int     `json:"num_beams"`
	Temperature float64 `json:"temperature"`
	DoSample    bool    `json:"do_sample"`
}

// DefaultGenerationParams returns the decoding defaults.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		MaxLength:   256,
		MinLength:   50,
		NumBeams:    4,
		Temperature: 1.0,
	}
}

// InferenceRequest records one generation call against a registered model.
type InferenceRequest struct {
	ID             string           `json:"id"`
	RequestID      string           `json:"request_id"` // public UUID
	UserID         string           `json:"user_id"`
	ModelID        string           `json:"model_id"`
	InputText      string           `json:"input_text"`
	InputType      string           `json:"input_type"`
	Params         GenerationParams `json:"parameters"`
	OutputText     string           `json:"output_text,omitempty"`
	Status         InferenceStatus  `json:"status"`
	ErrorMessage   string           `json:"error_message,omitempty"`
	ProcessingTime float64          `json:"processing_time,omitempty"` // seconds
	CreatedAt      time.Time        `json:"created_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
}
