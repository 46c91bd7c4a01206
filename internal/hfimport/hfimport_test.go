package hfimport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMapRow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		row     map[string]any
		mapping FieldMapping
		want    bool
		source  string
		target  string
	}{
		{
			name:   "judgement and summary columns",
			row:    map[string]any{"judgement": "The appeal is allowed.", "summary": "Appeal allowed."},
			want:   true,
			source: "The appeal is allowed.",
			target: "Appeal allowed.",
		},
		{
			name:   "article and highlights columns",
			row:    map[string]any{"article": "long text", "highlights": "short text"},
			want:   true,
			source: "long text",
			target: "short text",
		},
		{
			name:    "explicit mapping",
			row:     map[string]any{"body": "full", "tldr": "brief"},
			mapping: FieldMapping{Source: "body", Target: "tldr"},
			want:    true,
			source:  "full",
			target:  "brief",
		},
		{
			name: "no target column",
			row:  map[string]any{"text": "only source"},
			want: false,
		},
		{
			name: "non-string values skipped",
			row:  map[string]any{"text": 42, "summary": "s"},
			want: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, ok := mapRow(tt.row, tt.mapping)
			if ok != tt.want {
				t.Fatalf("mapRow ok = %v, want %v", ok, tt.want)
			}
			if !ok {
				return
			}
			if rec.Source != tt.source || rec.Target != tt.target {
				t.Errorf("mapRow = %q/%q, want %q/%q", rec.Source, rec.Target, tt.source, tt.target)
			}
		})
	}
}

func TestImport(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rows" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("dataset") == "missing/dataset" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		resp := map[string]any{
			"num_rows_total": 2,
			"rows": []map[string]any{
				{"row": map[string]any{"text": "doc one", "summary": "sum one", "language": "en"}},
				{"row": map[string]any{"text": "doc two", "summary": "sum two"}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)

	t.Run("maps rows", func(t *testing.T) {
		records, err := client.Import(context.Background(), "org/legal-sum", "", "", FieldMapping{}, 0)
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("got %d records, want 2", len(records))
		}
		if records[0].Source != "doc one" || records[0].Target != "sum one" {
			t.Errorf("record 0 = %+v", records[0])
		}
		if records[0].Language != "en" {
			t.Errorf("record 0 language = %q, want en", records[0].Language)
		}
	})

	t.Run("respects max records", func(t *testing.T) {
		records, err := client.Import(context.Background(), "org/legal-sum", "", "", FieldMapping{}, 1)
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		if len(records) != 1 {
			t.Errorf("got %d records, want 1", len(records))
		}
	})

	t.Run("dataset not found", func(t *testing.T) {
		_, err := client.Import(context.Background(), "missing/dataset", "", "", FieldMapping{}, 0)
		if !errors.Is(err, ErrDatasetNotFound) {
			t.Errorf("err = %v, want ErrDatasetNotFound", err)
		}
	})
}
