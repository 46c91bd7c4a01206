package evaluation

import "math"

// bleuMaxOrder is the standard BLEU-4 n-gram ceiling.
const bleuMaxOrder = 4

// BleuResult holds the corpus BLEU score and its components.
type BleuResult struct {
	Score           float64   `json:"score"` // 0-100
	Precisions      []float64 `json:"precisions"`
	BrevityPenalty  float64   `json:"brevity_penalty"`
	CandidateLength int       `json:"candidate_length"`
	ReferenceLength int       `json:"reference_length"`
}

// Bleu computes corpus-level BLEU-4 with the standard brevity penalty.
// Candidates and references are parallel slices; mismatched lengths
// score zero.
func Bleu(candidates, references []string) BleuResult {
	if len(candidates) == 0 || len(candidates) != len(references) {
		return BleuResult{Precisions: make([]float64, bleuMaxOrder)}
	}

	matches := make([]int, bleuMaxOrder)
	totals := make([]int, bleuMaxOrder)
	candLen := 0
	refLen := 0

	for i := range candidates {
		candTokens := Tokenize(candidates[i])
		refTokens := Tokenize(references[i])
		candLen += len(candTokens)
		refLen += len(refTokens)

		for n := 1; n <= bleuMaxOrder; n++ {
			candGrams := ngramCounts(candTokens, n)
			refGrams := ngramCounts(refTokens, n)

			for gram, count := range candGrams {
				totals[n-1] += count
				if refCount, ok := refGrams[gram]; ok {
					matches[n-1] += min(count, refCount)
				}
			}
		}
	}

	precisions := make([]float64, bleuMaxOrder)
	bp := brevityPenalty(candLen, refLen)

	// No unigram overlap at all is honestly zero; smoothing only covers
	// missing higher-order matches.
	if matches[0] == 0 {
		return BleuResult{
			Precisions:      precisions,
			BrevityPenalty:  bp,
			CandidateLength: candLen,
			ReferenceLength: refLen,
		}
	}

	logSum := 0.0
	orders := 0
	for n := 0; n < bleuMaxOrder; n++ {
		// Candidates shorter than n tokens contribute no n-grams; the
		// geometric mean runs over the orders that exist.
		if totals[n] == 0 {
			continue
		}
		p := float64(matches[n]) / float64(totals[n])
		if matches[n] == 0 {
			// Add-one smoothing so one missing higher-order match does
			// not zero the whole corpus score.
			p = 1 / float64(totals[n]+1)
		}
		precisions[n] = p
		logSum += math.Log(p)
		orders++
	}

	score := bp * math.Exp(logSum/float64(orders)) * 100

	return BleuResult{
		Score:           score,
		Precisions:      precisions,
		BrevityPenalty:  bp,
		CandidateLength: candLen,
		ReferenceLength: refLen,
	}
}

// brevityPenalty penalizes candidates shorter than their references.
func brevityPenalty(candLen, refLen int) float64 {
	if candLen == 0 {
		return 0
	}
	if candLen >= refLen {
		return 1
	}
	return math.Exp(1 - float64(refLen)/float64(candLen))
}
