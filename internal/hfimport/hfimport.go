// Package hfimport pulls datasets from the Hugging Face Hub through
// the datasets-server rows API and maps them into the canonical
// source/target record shape.
package hfimport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lexicognize/lexicognize/internal/model"
)

const (
	// DefaultBaseURL is the public datasets-server endpoint.
	DefaultBaseURL = "https://datasets-server.huggingface.co"

	// PageSize is the rows fetched per request; the API caps at 100.
	PageSize = 100

	// MaxRecords bounds an import so one job cannot fill the disk.
	MaxRecords = 50000
)

var (
	// ErrDatasetNotFound indicates the hub has no such dataset.
	ErrDatasetNotFound = errors.New("dataset not found on hub")
	// ErrNoMappableFields indicates no source/target columns were found.
	ErrNoMappableFields = errors.New("dataset has no mappable text columns")
)

// sourceFields and targetFields are the column names tried, in order,
// when no explicit mapping is given. Covers the common legal-NLP
// corpora layouts (judgement/summary, article/highlights, text/target).
var (
	sourceFields = []string{"source", "text", "article", "document", "judgement", "judgment", "input"}
	targetFields = []string{"target", "summary", "highlights", "headnote", "output", "simplified"}
)

// FieldMapping names the columns to read. Empty fields fall back to
// the defaults above.
type FieldMapping struct {
	Source   string `json:"source,omitempty"`
	Target   string `json:"target,omitempty"`
	Language string `json:"language,omitempty"`
}

// Client talks to the datasets-server API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a hub import client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// rowsResponse is the subset of the /rows payload we read.
type rowsResponse struct {
	Rows []struct {
		Row map[string]any `json:"row"`
	} `json:"rows"`
	NumRowsTotal int `json:"num_rows_total"`
}

// Import fetches up to maxRecords rows of a dataset split and maps them
// to canonical records. A zero maxRecords means the package default.
func (c *Client) Import(ctx context.Context, datasetID, config, split string, mapping FieldMapping, maxRecords int) ([]model.Record, error) {
	if config == "" {
		config = "default"
	}
	if split == "" {
		split = "train"
	}
	if maxRecords <= 0 || maxRecords > MaxRecords {
		maxRecords = MaxRecords
	}

	var records []model.Record
	for offset := 0; len(records) < maxRecords; offset += PageSize {
		page, err := c.fetchRows(ctx, datasetID, config, split, offset)
		if err != nil {
			return nil, err
		}
		if len(page.Rows) == 0 {
			break
		}

		for _, row := range page.Rows {
			rec, ok := mapRow(row.Row, mapping)
			if !ok {
				continue
			}
			records = append(records, rec)
			if len(records) >= maxRecords {
				break
			}
		}

		if offset+PageSize >= page.NumRowsTotal {
			break
		}
	}

	if len(records) == 0 {
		return nil, ErrNoMappableFields
	}
	return records, nil
}

func (c *Client) fetchRows(ctx context.Context, datasetID, config, split string, offset int) (*rowsResponse, error) {
	q := url.Values{}
	q.Set("dataset", datasetID)
	q.Set("config", config)
	q.Set("split", split)
	q.Set("offset", fmt.Sprint(offset))
	q.Set("length", fmt.Sprint(PageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rows?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rows: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusUnprocessableEntity:
		return nil, ErrDatasetNotFound
	default:
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("datasets-server returned %d", resp.StatusCode)
	}

	var page rowsResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return &page, nil
}

// mapRow pulls source/target text out of one hub row.
func mapRow(row map[string]any, mapping FieldMapping) (model.Record, bool) {
	source := pickField(row, mapping.Source, sourceFields)
	target := pickField(row, mapping.Target, targetFields)
	if source == "" || target == "" {
		return model.Record{}, false
	}

	rec := model.Record{Source: source, Target: target}
	if lang := pickField(row, mapping.Language, []string{"language", "lang"}); lang != "" {
		rec.Language = lang
	}
	return rec, true
}

func pickField(row map[string]any, explicit string, fallbacks []string) string {
	if explicit != "" {
		if s, ok := row[explicit].(string); ok {
			return s
		}
		return ""
	}
	for _, name := range fallbacks {
		if s, ok := row[name].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
