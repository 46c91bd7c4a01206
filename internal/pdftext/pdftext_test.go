package pdftext

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "collapses newlines", in: "one\n\ntwo\n three", want: "one two three"},
		{name: "collapses spaces", in: "a   b\t\tc", want: "a b c"},
		{name: "empty", in: "", want: ""},
		{name: "already clean", in: "a b c", want: "a b c"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestChunk(t *testing.T) {
	t.Parallel()

	t.Run("short text single chunk", func(t *testing.T) {
		t.Parallel()

		chunks := Chunk("short text", 100)
		if len(chunks) != 1 || chunks[0] != "short text" {
			t.Errorf("Chunk = %v, want single chunk", chunks)
		}
	})

	t.Run("empty text", func(t *testing.T) {
		t.Parallel()

		if chunks := Chunk("", 100); chunks != nil {
			t.Errorf("Chunk(\"\") = %v, want nil", chunks)
		}
	})

	t.Run("splits on sentence boundary", func(t *testing.T) {
		t.Parallel()

		text := strings.Repeat("The court held that the appeal is allowed. ", 10)
		chunks := Chunk(text, 100)

		if len(chunks) < 2 {
			t.Fatalf("expected multiple chunks, got %d", len(chunks))
		}
		for i, c := range chunks {
			if len(c) > 100 {
				t.Errorf("chunk %d exceeds max: %d chars", i, len(c))
			}
		}
		if !strings.HasSuffix(chunks[0], ".") {
			t.Errorf("chunk should end on sentence boundary, got %q", chunks[0])
		}
	})

	t.Run("splits on danda", func(t *testing.T) {
		t.Parallel()

		text := strings.Repeat("न्यायालय ने अपील स्वीकार की। ", 20)
		chunks := Chunk(text, 120)
		if len(chunks) < 2 {
			t.Fatalf("expected multiple chunks, got %d", len(chunks))
		}
	})

	t.Run("no boundary falls back to word split", func(t *testing.T) {
		t.Parallel()

		text := strings.Repeat("word ", 50)
		chunks := Chunk(text, 60)
		for i, c := range chunks {
			if len(c) > 60 {
				t.Errorf("chunk %d exceeds max: %d chars", i, len(c))
			}
		}
	})

	t.Run("reassembles to original words", func(t *testing.T) {
		t.Parallel()

		text := "One sentence here. Another sentence there. A third one closes."
		chunks := Chunk(text, 25)
		joined := strings.Join(chunks, " ")
		if Normalize(joined) != Normalize(text) {
			t.Errorf("chunks lose content: %q vs %q", joined, text)
		}
	})
}
