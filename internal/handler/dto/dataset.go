package dto

import (
	"github.com/lexicognize/lexicognize/internal/hfimport"
	"github.com/lexicognize/lexicognize/internal/model"
)

// UpdateDatasetRequest represents the request body for dataset updates.
type UpdateDatasetRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPublic    *bool   `json:"is_public,omitempty"`
}

// ShareRequest replaces a resource's share list.
type ShareRequest struct {
	SharedWith []string `json:"shared_with"`
}

// ImportDatasetRequest represents the request body for a Hugging Face
// Hub import.
type ImportDatasetRequest struct {
	Name        string `json:"name"`
	HubDataset  string `json:"hub_dataset"`
	Config      string `json:"config,omitempty"`
	Split       string `json:"split,omitempty"`
	SourceField string `json:"source_field,omitempty"`
	TargetField string `json:"target_field,omitempty"`
	Language    string `json:"language,omitempty"`
}

// Mapping converts the request's column hints to a field mapping.
func (r *ImportDatasetRequest) Mapping() hfimport.FieldMapping {
	return hfimport.FieldMapping{
		Source:   r.SourceField,
		Target:   r.TargetField,
		Language: r.Language,
	}
}

// DatasetDetailResponse is a dataset plus a preview of its first
// stored records.
type DatasetDetailResponse struct {
	*model.Dataset
	Preview []model.Record `json:"preview"`
}

// DatasetListResponse represents a paginated list of datasets.
type DatasetListResponse struct {
	Data       []*model.Dataset `json:"data"`
	Pagination *Pagination      `json:"pagination"`
}
