package service

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func newTestTranslationService() *TranslationService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewTranslationService(nil, nil, nil, logger)
}

func TestResolveLanguages(t *testing.T) {
	t.Parallel()

	svc := newTestTranslationService()

	t.Run("explicit pair", func(t *testing.T) {
		t.Parallel()

		src, tgt, err := svc.resolveLanguages("some text", "en", "hi")
		if err != nil {
			t.Fatalf("resolveLanguages: %v", err)
		}
		if src != "en" || tgt != "hi" {
			t.Errorf("pair = %s->%s, want en->hi", src, tgt)
		}
	})

	t.Run("auto-detect devanagari", func(t *testing.T) {
		t.Parallel()

		src, _, err := svc.resolveLanguages("न्यायालय ने आदेश दिया", "", "en")
		if err != nil {
			t.Fatalf("resolveLanguages: %v", err)
		}
		if src != "hi" {
			t.Errorf("detected source = %q, want hi", src)
		}
	})

	t.Run("same language", func(t *testing.T) {
		t.Parallel()

		_, _, err := svc.resolveLanguages("text", "en", "en")
		if !errors.Is(err, ErrSameLanguage) {
			t.Errorf("err = %v, want ErrSameLanguage", err)
		}
	})

	t.Run("unknown target", func(t *testing.T) {
		t.Parallel()

		_, _, err := svc.resolveLanguages("text", "en", "fr")
		if !errors.Is(err, ErrUnsupportedLanguage) {
			t.Errorf("err = %v, want ErrUnsupportedLanguage", err)
		}
	})

	t.Run("unknown source", func(t *testing.T) {
		t.Parallel()

		_, _, err := svc.resolveLanguages("text", "de", "hi")
		if !errors.Is(err, ErrUnsupportedLanguage) {
			t.Errorf("err = %v, want ErrUnsupportedLanguage", err)
		}
	})
}

func TestLanguagePairs(t *testing.T) {
	t.Parallel()

	svc := newTestTranslationService()
	pairs := svc.LanguagePairs()

	n := len(svc.SupportedLanguages())
	if want := n * (n - 1); len(pairs) != want {
		t.Fatalf("len(pairs) = %d, want %d", len(pairs), want)
	}

	seen := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		if p.Source == p.Target {
			t.Errorf("identity pair %s->%s", p.Source, p.Target)
		}
		key := p.Source + "->" + p.Target
		if seen[key] {
			t.Errorf("duplicate pair %s", key)
		}
		seen[key] = true
	}
	if !seen["en->hi"] || !seen["hi->en"] {
		t.Error("expected both en->hi and hi->en directions")
	}
}

func TestHashContent(t *testing.T) {
	t.Parallel()

	a := hashContent("the judgment text")
	b := hashContent("the judgment text")
	c := hashContent("a different text")

	if a != b {
		t.Error("same input produced different hashes")
	}
	if a == c {
		t.Error("different inputs produced the same hash")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64", len(a))
	}
}
