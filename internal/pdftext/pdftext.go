// Package pdftext extracts plain text from PDF documents for
// summarization and dataset creation.
package pdftext

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// MaxPages caps extraction; court filings occasionally run to
// thousands of pages and one request should not pin a worker that long.
const MaxPages = 500

// Document is the extraction result.
type Document struct {
	Text  string `json:"text"`
	Pages int    `json:"pages"`
}

// Extract pulls plain text from a PDF.
func Extract(r io.ReaderAt, size int64) (*Document, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}

	numPages := reader.NumPage()
	if numPages > MaxPages {
		return nil, fmt.Errorf("pdf has %d pages, maximum is %d", numPages, MaxPages)
	}

	var buf bytes.Buffer
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail to decode; scanned pages have no
			// text layer at all.
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}

	cleaned := Normalize(buf.String())
	if cleaned == "" {
		return nil, fmt.Errorf("pdf contains no extractable text")
	}

	return &Document{Text: cleaned, Pages: numPages}, nil
}

// ExtractBytes is a convenience wrapper over Extract.
func ExtractBytes(data []byte) (*Document, error) {
	return Extract(bytes.NewReader(data), int64(len(data)))
}

// Normalize collapses runs of whitespace left behind by PDF layout.
func Normalize(text string) string {
	fields := strings.Fields(text)
	return strings.Join(fields, " ")
}

// Chunk splits text into pieces of at most maxChars, breaking on
// sentence boundaries where possible. Model context windows cap input
// length; long judgments are summarized chunk by chunk.
func Chunk(text string, maxChars int) []string {
	if maxChars <= 0 || len(text) <= maxChars {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	var chunks []string
	for len(text) > maxChars {
		cut := maxChars

		// Prefer the last sentence end inside the window.
		if idx := strings.LastIndexAny(text[:cut], ".!?।"); idx > maxChars/2 {
			cut = idx + 1
		} else if idx := strings.LastIndex(text[:cut], " "); idx > 0 {
			cut = idx + 1
		}

		chunks = append(chunks, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
