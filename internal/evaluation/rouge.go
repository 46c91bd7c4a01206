// Package evaluation computes summarization quality metrics.
// ROUGE recall-oriented overlap for summaries, BLEU precision-oriented
// overlap for translations.
package evaluation

import (
	"strings"
	"unicode"
)

// RougeScore holds precision, recall, and F1 for one ROUGE variant.
type RougeScore struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// RougeResult bundles the standard reporting set.
type RougeResult struct {
	Rouge1 RougeScore `json:"rouge1"`
	Rouge2 RougeScore `json:"rouge2"`
	RougeL RougeScore `json:"rougeL"`
}

// Rouge computes ROUGE-1, ROUGE-2, and ROUGE-L between a candidate
// summary and a reference.
func Rouge(candidate, reference string) RougeResult {
	candTokens := Tokenize(candidate)
	refTokens := Tokenize(reference)

	return RougeResult{
		Rouge1: rougeN(candTokens, refTokens, 1),
		Rouge2: rougeN(candTokens, refTokens, 2),
		RougeL: rougeL(candTokens, refTokens),
	}
}

// Tokenize lowercases and splits text into word tokens.
// Punctuation separates tokens; Indic scripts tokenize on the same
// boundaries since they use spaces and danda between words.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// rougeN computes n-gram overlap scores.
func rougeN(candidate, reference []string, n int) RougeScore {
	candGrams := ngramCounts(candidate, n)
	refGrams := ngramCounts(reference, n)

	if len(candGrams) == 0 || len(refGrams) == 0 {
		return RougeScore{}
	}

	overlap := 0
	candTotal := 0
	refTotal := 0

	for gram, count := range candGrams {
		candTotal += count
		if refCount, ok := refGrams[gram]; ok {
			overlap += min(count, refCount)
		}
	}
	for _, count := range refGrams {
		refTotal += count
	}

	precision := float64(overlap) / float64(candTotal)
	recall := float64(overlap) / float64(refTotal)

	return RougeScore{
		Precision: precision,
		Recall:    recall,
		F1:        f1(precision, recall),
	}
}

// rougeL scores on the longest common subsequence of tokens.
func rougeL(candidate, reference []string) RougeScore {
	if len(candidate) == 0 || len(reference) == 0 {
		return RougeScore{}
	}

	lcs := lcsLength(candidate, reference)
	precision := float64(lcs) / float64(len(candidate))
	recall := float64(lcs) / float64(len(reference))

	return RougeScore{
		Precision: precision,
		Recall:    recall,
		F1:        f1(precision, recall),
	}
}

// lcsLength computes LCS length with a rolling single-row table.
func lcsLength(a, b []string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// ngramCounts builds a multiset of space-joined n-grams.
func ngramCounts(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	if len(tokens) < n {
		return counts
	}
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], " ")]++
	}
	return counts
}

func f1(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}
