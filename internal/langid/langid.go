// Package langid detects the language of legal text by Unicode script
// analysis. Indic scripts map one-to-one onto the supported languages;
// Perso-Arabic is reported as Urdu and Latin as English.
package langid

import (
	"strings"
	"unicode"
)

// Language codes returned by Detect.
const (
	English   = "en"
	Hindi     = "hi"
	Tamil     = "ta"
	Kannada   = "kn"
	Telugu    = "te"
	Malayalam = "ml"
	Bengali   = "bn"
	Marathi   = "mr"
	Gujarati  = "gu"
	Punjabi   = "pa"
	Odia      = "or"
	Urdu      = "ur"
)

// Supported lists every language code Detect can return.
var Supported = []string{
	English, Hindi, Tamil, Kannada, Telugu, Malayalam,
	Bengali, Marathi, Gujarati, Punjabi, Odia, Urdu,
}

// scriptLangs maps Unicode script names to language codes.
// Devanagari is shared by Hindi and Marathi; Hindi wins as the far more
// common case, callers needing Marathi pass an explicit hint.
var scriptLangs = map[*unicode.RangeTable]string{
	unicode.Devanagari: Hindi,
	unicode.Tamil:      Tamil,
	unicode.Kannada:    Kannada,
	unicode.Telugu:     Telugu,
	unicode.Malayalam:  Malayalam,
	unicode.Bengali:    Bengali,
	unicode.Gujarati:   Gujarati,
	unicode.Gurmukhi:   Punjabi,
	unicode.Oriya:      Odia,
	unicode.Arabic:     Urdu,
}

// Result holds a detection outcome with per-script letter counts.
type Result struct {
	Language   string         `json:"language"`
	Confidence float64        `json:"confidence"` // dominant script share of letters
	Counts     map[string]int `json:"counts,omitempty"`
}

// Detect returns the dominant language of the text.
// Empty or non-letter input detects as English with zero confidence.
func Detect(text string) Result {
	counts := make(map[string]int)
	totalLetters := 0

	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		totalLetters++

		matched := false
		for table, lang := range scriptLangs {
			if unicode.Is(table, r) {
				counts[lang]++
				matched = true
				break
			}
		}
		if !matched && r < 0x250 {
			// Latin letters, including accented forms
			counts[English]++
		}
	}

	if totalLetters == 0 {
		return Result{Language: English, Confidence: 0, Counts: counts}
	}

	best := English
	bestCount := 0
	for lang, count := range counts {
		if count > bestCount {
			best = lang
			bestCount = count
		}
	}

	return Result{
		Language:   best,
		Confidence: float64(bestCount) / float64(totalLetters),
		Counts:     counts,
	}
}

// Segment is a contiguous run of text in one language.
type Segment struct {
	Language string `json:"language"`
	Text     string `json:"text"`
}

// Segments splits mixed-script text into contiguous same-language runs.
// Non-letter characters attach to the run in progress, so punctuation
// and whitespace never start a segment of their own.
func Segments(text string) []Segment {
	var segments []Segment
	var current strings.Builder
	currentLang := ""

	flush := func() {
		if current.Len() > 0 {
			lang := currentLang
			if lang == "" {
				lang = English
			}
			segments = append(segments, Segment{Language: lang, Text: current.String()})
			current.Reset()
		}
	}

	for _, r := range text {
		if !unicode.IsLetter(r) {
			current.WriteRune(r)
			continue
		}

		lang := English
		for table, l := range scriptLangs {
			if unicode.Is(table, r) {
				lang = l
				break
			}
		}

		if currentLang == "" {
			currentLang = lang
		} else if lang != currentLang {
			flush()
			currentLang = lang
		}
		current.WriteRune(r)
	}
	flush()
	return segments
}

// IsSupported reports whether the code is a detectable language.
func IsSupported(code string) bool {
	for _, lang := range Supported {
		if lang == code {
			return true
		}
	}
	return false
}
