package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/lexicognize/lexicognize/internal/model"
)

func TestDecodeRecords(t *testing.T) {
	t.Parallel()

	t.Run("array form", func(t *testing.T) {
		t.Parallel()

		input := `[{"source":"The appeal is dismissed.","target":"Appeal dismissed."}]`
		records, err := DecodeRecords(strings.NewReader(input))
		if err != nil {
			t.Fatalf("DecodeRecords: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("got %d records, want 1", len(records))
		}
		if records[0].Source != "The appeal is dismissed." {
			t.Errorf("source = %q", records[0].Source)
		}
	})

	t.Run("wrapped form", func(t *testing.T) {
		t.Parallel()

		input := `{"data":[{"source":"s","target":"t"}]}`
		records, err := DecodeRecords(strings.NewReader(input))
		if err != nil {
			t.Fatalf("DecodeRecords: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("got %d records, want 1", len(records))
		}
	})

	t.Run("multilingual targets", func(t *testing.T) {
		t.Parallel()

		input := `[{"source":"s","targets":{"hi":"अनुवाद"}}]`
		if _, err := DecodeRecords(strings.NewReader(input)); err != nil {
			t.Fatalf("DecodeRecords: %v", err)
		}
	})

	t.Run("missing source", func(t *testing.T) {
		t.Parallel()

		input := `[{"target":"t"}]`
		_, err := DecodeRecords(strings.NewReader(input))
		if !errors.Is(err, ErrInvalidRecord) {
			t.Errorf("err = %v, want ErrInvalidRecord", err)
		}
	})

	t.Run("missing target", func(t *testing.T) {
		t.Parallel()

		input := `[{"source":"s"}]`
		_, err := DecodeRecords(strings.NewReader(input))
		if !errors.Is(err, ErrInvalidRecord) {
			t.Errorf("err = %v, want ErrInvalidRecord", err)
		}
	})

	t.Run("not json", func(t *testing.T) {
		t.Parallel()

		_, err := DecodeRecords(strings.NewReader("source,target\na,b"))
		if !errors.Is(err, ErrInvalidRecord) {
			t.Errorf("err = %v, want ErrInvalidRecord", err)
		}
	})

	t.Run("empty array", func(t *testing.T) {
		t.Parallel()

		_, err := DecodeRecords(strings.NewReader("[]"))
		if !errors.Is(err, ErrEmptyDataset) {
			t.Errorf("err = %v, want ErrEmptyDataset", err)
		}
	})
}

func TestMergeUploadFiles(t *testing.T) {
	t.Parallel()

	t.Run("concatenates in upload order", func(t *testing.T) {
		t.Parallel()

		files := []UploadFile{
			{Filename: "a.json", Body: strings.NewReader(`[{"source":"first","target":"t1"}]`)},
			{Filename: "b.json", Body: strings.NewReader(`[{"source":"second","target":"t2"},{"source":"third","target":"t3"}]`)},
		}

		records, name, err := mergeUploadFiles(files)
		if err != nil {
			t.Fatalf("mergeUploadFiles: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("got %d records, want 3", len(records))
		}
		if records[0].Source != "first" || records[2].Source != "third" {
			t.Errorf("records out of order: %q ... %q", records[0].Source, records[2].Source)
		}
		if name != "a.json,b.json" {
			t.Errorf("original name = %q, want %q", name, "a.json,b.json")
		}
	})

	t.Run("bad file names the offender", func(t *testing.T) {
		t.Parallel()

		files := []UploadFile{
			{Filename: "good.json", Body: strings.NewReader(`[{"source":"s","target":"t"}]`)},
			{Filename: "bad.json", Body: strings.NewReader(`not json`)},
		}

		_, _, err := mergeUploadFiles(files)
		if !errors.Is(err, ErrInvalidRecord) {
			t.Fatalf("err = %v, want ErrInvalidRecord", err)
		}
		if !strings.Contains(err.Error(), "bad.json") {
			t.Errorf("error %q does not name the offending file", err)
		}
	})

	t.Run("no files", func(t *testing.T) {
		t.Parallel()

		_, _, err := mergeUploadFiles(nil)
		if !errors.Is(err, ErrEmptyDataset) {
			t.Errorf("err = %v, want ErrEmptyDataset", err)
		}
	})
}

func TestComputeStatistics(t *testing.T) {
	t.Parallel()

	records := []model.Record{
		{Source: "The Supreme Court dismissed the petition under Section 482 CrPC.", Target: "Petition dismissed."},
		{Source: "उच्च न्यायालय ने याचिका स्वीकार की।", Target: "याचिका स्वीकार।", Language: "hi"},
	}

	stats := ComputeStatistics(records)

	if stats["samples"] != 2 {
		t.Errorf("samples = %v, want 2", stats["samples"])
	}

	langs, ok := stats["languages"].(map[string]int)
	if !ok {
		t.Fatalf("languages has type %T", stats["languages"])
	}
	if langs["en"] != 1 || langs["hi"] != 1 {
		t.Errorf("languages = %v, want en:1 hi:1", langs)
	}

	terms, ok := stats["legal_terms"].(map[string]int)
	if !ok {
		t.Fatalf("legal_terms has type %T", stats["legal_terms"])
	}
	if terms["CrPC"] != 1 {
		t.Errorf("CrPC count = %d, want 1", terms["CrPC"])
	}
	if terms["Supreme Court"] != 1 {
		t.Errorf("Supreme Court count = %d, want 1", terms["Supreme Court"])
	}

	srcLen, ok := stats["source_length"].(map[string]any)
	if !ok {
		t.Fatalf("source_length has type %T", stats["source_length"])
	}
	if srcLen["min"].(int) < 1 {
		t.Errorf("source min length = %v", srcLen["min"])
	}
}
