// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Pagination provides cursor-based pagination info.
type Pagination struct {
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// NewPagination builds pagination info from a repository cursor.
func NewPagination(nextCursor string) *Pagination {
	return &Pagination{
		NextCursor: nextCursor,
		HasMore:    nextCursor != "",
	}
}
