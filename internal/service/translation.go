package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/lexicognize/lexicognize/internal/cache"
	"github.com/lexicognize/lexicognize/internal/langid"
	"github.com/lexicognize/lexicognize/internal/metrics"
	"github.com/lexicognize/lexicognize/internal/modelserver"
	"github.com/lexicognize/lexicognize/internal/translit"
)

// Translation service errors.
var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrSameLanguage        = errors.New("source and target language are the same")
	ErrTranslationFailed   = errors.New("translation failed")
)

// TranslationService translates legal text between supported languages
// through the model server's pretrained mBART route, with Redis-backed
// result caching and legal-term preservation.
type TranslationService struct {
	server    *modelserver.Client
	cache     *cache.Cache
	preserver *translit.TermPreserver
	metrics   metrics.Recorder
	logger    *slog.Logger
}

// NewTranslationService creates a TranslationService. cache may be nil
// to disable result caching.
func NewTranslationService(server *modelserver.Client, c *cache.Cache, recorder metrics.Recorder, logger *slog.Logger) *TranslationService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &TranslationService{
		server:    server,
		cache:     c,
		preserver: translit.NewTermPreserver(),
		metrics:   recorder,
		logger:    logger.With("component", "service.translation"),
	}
}

// TranslateInput defines input for a single translation.
type TranslateInput struct {
	Text       string
	SourceLang string // empty for auto-detect
	TargetLang string
}

// TranslateResult carries one translation with its detected source.
type TranslateResult struct {
	Translated string `json:"translated"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Cached     bool   `json:"cached"`
}

// Translate translates one text. An empty source language triggers
// script-based detection. Known legal terms survive verbatim.
func (s *TranslationService) Translate(ctx context.Context, input TranslateInput) (*TranslateResult, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, ErrEmptyInput
	}
	if len(input.Text) > MaxInputChars {
		return nil, ErrInputTooLong
	}

	src, tgt, err := s.resolveLanguages(input.Text, input.SourceLang, input.TargetLang)
	if err != nil {
		return nil, err
	}

	key := cache.TranslationCacheKey(src, tgt, hashContent(input.Text))
	if s.cache != nil {
		if cached, err := s.cache.GetTranslation(ctx, key); err == nil {
			s.metrics.IncTranslationCacheHit()
			return &TranslateResult{Translated: cached, SourceLang: src, TargetLang: tgt, Cached: true}, nil
		}
		s.metrics.IncTranslationCacheMiss()
	}

	translated, err := s.translateBatch(ctx, []string{input.Text}, src, tgt)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetTranslation(ctx, key, translated[0]); err != nil {
			s.logger.Warn("cache translation", "error", err)
		}
	}
	return &TranslateResult{Translated: translated[0], SourceLang: src, TargetLang: tgt}, nil
}

// TranslateBatch translates up to the model server batch limit of
// texts sharing one language pair. Cached entries are served from
// Redis; only misses hit the model server.
func (s *TranslationService) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]TranslateResult, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	if len(texts) > modelserver.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d texts, maximum %d", ErrBatchTooLarge, len(texts), modelserver.MaxBatchSize)
	}

	results := make([]TranslateResult, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, ErrEmptyInput
		}
		if len(text) > MaxInputChars {
			return nil, ErrInputTooLong
		}

		src, tgt, err := s.resolveLanguages(text, sourceLang, targetLang)
		if err != nil {
			return nil, err
		}
		results[i] = TranslateResult{SourceLang: src, TargetLang: tgt}

		if s.cache != nil {
			key := cache.TranslationCacheKey(src, tgt, hashContent(text))
			if cached, err := s.cache.GetTranslation(ctx, key); err == nil {
				s.metrics.IncTranslationCacheHit()
				results[i].Translated = cached
				results[i].Cached = true
				continue
			}
			s.metrics.IncTranslationCacheMiss()
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	// Mixed detected sources within one batch go to the server per the
	// first miss's pair; callers wanting precision pass sourceLang.
	if len(missTexts) > 0 {
		first := results[missIdx[0]]
		translated, err := s.translateBatch(ctx, missTexts, first.SourceLang, first.TargetLang)
		if err != nil {
			return nil, err
		}
		for j, i := range missIdx {
			results[i].Translated = translated[j]
			if s.cache != nil {
				key := cache.TranslationCacheKey(results[i].SourceLang, results[i].TargetLang, hashContent(texts[i]))
				if err := s.cache.SetTranslation(ctx, key, translated[j]); err != nil {
					s.logger.Warn("cache translation", "error", err)
				}
			}
		}
	}
	return results, nil
}

// TranslateFields translates selected fields of a JSON document,
// leaving the rest untouched.
func (s *TranslationService) TranslateFields(ctx context.Context, doc map[string]any, fields []string, sourceLang, targetLang string) (map[string]any, error) {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}

	for _, field := range fields {
		val, ok := doc[field]
		if !ok {
			continue
		}
		text, ok := val.(string)
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		res, err := s.Translate(ctx, TranslateInput{Text: text, SourceLang: sourceLang, TargetLang: targetLang})
		if err != nil {
			return nil, fmt.Errorf("translate field %q: %w", field, err)
		}
		out[field] = res.Translated
	}
	return out, nil
}

// SupportedLanguages returns the language codes accepted for translation.
func (s *TranslationService) SupportedLanguages() []string {
	return langid.Supported
}

// LanguagePairs returns the trainable/translatable direction matrix.
// mBART-50 covers every ordered pair of the supported set.
func (s *TranslationService) LanguagePairs() []LanguagePair {
	pairs := make([]LanguagePair, 0, len(langid.Supported)*(len(langid.Supported)-1))
	for _, src := range langid.Supported {
		for _, tgt := range langid.Supported {
			if src == tgt {
				continue
			}
			pairs = append(pairs, LanguagePair{Source: src, Target: tgt})
		}
	}
	return pairs
}

// LanguagePair is one translatable direction.
type LanguagePair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// translateBatch shields legal terms, calls the server, and restores.
func (s *TranslationService) translateBatch(ctx context.Context, texts []string, src, tgt string) ([]string, error) {
	shielded := make([]string, len(texts))
	captured := make([][]string, len(texts))
	for i, text := range texts {
		shielded[i], captured[i] = s.preserver.Shield(text)
	}

	resp, err := s.server.Translate(ctx, modelserver.TranslateRequest{
		Texts:      shielded,
		SourceLang: src,
		TargetLang: tgt,
	})
	if err != nil {
		switch {
		case errors.Is(err, modelserver.ErrUnavailable):
			return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		case errors.Is(err, modelserver.ErrBadRequest):
			return nil, fmt.Errorf("%w: %v", ErrTranslationFailed, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrTranslationFailed, err)
		}
	}

	out := make([]string, len(resp.Translations))
	for i, translated := range resp.Translations {
		out[i] = s.preserver.Restore(translated, captured[i])
	}
	return out, nil
}

func (s *TranslationService) resolveLanguages(text, src, tgt string) (string, string, error) {
	if src == "" {
		src = langid.Detect(text).Language
	}
	if !slices.Contains(langid.Supported, src) {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, src)
	}
	if !slices.Contains(langid.Supported, tgt) {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, tgt)
	}
	if src == tgt {
		return "", "", ErrSameLanguage
	}
	return src, tgt, nil
}

func hashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
