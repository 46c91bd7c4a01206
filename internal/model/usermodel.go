package model

import (
	"slices"
	"time"
)

// UserModel is a fine-tuned model registered after a completed training job.
type UserModel struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	ModelType     string         `json:"model_type"`
	Task          string         `json:"task"`
	BaseModel     string         `json:"base_model"`
	ModelPath     string         `json:"model_path"`
	TrainingJobID string         `json:"training_job_id,omitempty"`
	DatasetID     string         `json:"dataset_id,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	IsPublic      bool           `json:"is_public"`
	IsShared      bool           `json:"is_shared"`
	SharedWith    []string       `json:"shared_with,omitempty"`
	UsageCount    int64          `json:"usage_count"`
	LastUsedAt    *time.Time     `json:"last_used_at,omitempty"`
	ArchiveURL    string         `json:"archive_url,omitempty"` // S3 location when archived
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// AccessibleBy reports whether a user may run inference with this model.
func (m *UserModel) AccessibleBy(userID string) bool {
	if m.UserID == userID {
		return true
	}
	if m.IsPublic {
		return true
	}
	return m.IsShared && slices.Contains(m.SharedWith, userID)
}

// BaseModelInfo describes a pretrained checkpoint in the catalog.
type BaseModelInfo struct {
	ModelType string   `json:"model_type"`
	HFModelID string   `json:"hf_model_id"`
	Tasks     []string `json:"tasks"`
	Languages []string `json:"languages"`
}

// BaseModelCatalog lists the pretrained checkpoints fine-tuning can start from.
func BaseModelCatalog() []BaseModelInfo {
	return []BaseModelInfo{
		{
			ModelType: ModelTypeBART,
			HFModelID: "facebook/bart-large-cnn",
			Tasks:     []string{TaskSummarization, TaskSimplification},
			Languages: []string{"en"},
		},
		{
			ModelType: ModelTypePEGASUS,
			HFModelID: "google/pegasus-cnn_dailymail",
			Tasks:     []string{TaskSummarization},
			Languages: []string{"en"},
		},
		{
			ModelType: ModelTypeMultilingual,
			HFModelID: "facebook/mbart-large-50-many-to-many-mmt",
			Tasks:     []string{TaskSummarization, TaskTranslation},
			Languages: []string{"en", "hi", "ta", "kn", "te", "ml", "bn", "mr", "gu", "pa", "or", "ur"},
		},
	}
}
