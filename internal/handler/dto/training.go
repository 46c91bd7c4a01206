package dto

import "github.com/lexicognize/lexicognize/internal/model"

// CreateJobRequest represents the request body for submitting a
// fine-tuning job.
type CreateJobRequest struct {
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	ModelType   string                `json:"model_type"`
	Task        string                `json:"task"`
	DatasetID   string                `json:"dataset_id"`
	Config      *model.TrainingConfig `json:"config,omitempty"`
}

// JobListResponse represents a paginated list of training jobs.
type JobListResponse struct {
	Data       []*model.TrainingJob `json:"data"`
	Pagination *Pagination          `json:"pagination"`
}

// JobLogResponse carries a job's trainer output.
type JobLogResponse struct {
	JobID string `json:"job_id"`
	Log   string `json:"log"`
}

// UpdateModelRequest represents the request body for model updates.
type UpdateModelRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPublic    *bool   `json:"is_public,omitempty"`
}

// ModelListResponse represents a paginated list of fine-tuned models.
type ModelListResponse struct {
	Data       []*model.UserModel `json:"data"`
	Pagination *Pagination        `json:"pagination"`
}
