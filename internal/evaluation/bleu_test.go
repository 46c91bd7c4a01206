package evaluation

import (
	"math"
	"testing"
)

func TestBleu_Identical(t *testing.T) {
	t.Parallel()

	candidates := []string{"the court dismissed the petition with costs"}
	result := Bleu(candidates, candidates)

	if math.Abs(result.Score-100.0) > 1e-6 {
		t.Errorf("BLEU for identical corpus = %f, want 100", result.Score)
	}
	if result.BrevityPenalty != 1.0 {
		t.Errorf("brevity penalty = %f, want 1.0", result.BrevityPenalty)
	}
}

func TestBleu_NoOverlap(t *testing.T) {
	t.Parallel()

	result := Bleu(
		[]string{"alpha beta gamma delta"},
		[]string{"one two three four"},
	)

	if result.Score != 0 {
		t.Errorf("BLEU for disjoint corpus = %f, want 0", result.Score)
	}
}

func TestBleu_SmoothsMissingHigherOrders(t *testing.T) {
	t.Parallel()

	// Real word overlap but no shared 4-gram. Smoothing must keep the
	// corpus score above zero instead of collapsing the geometric mean.
	result := Bleu(
		[]string{"the petition was dismissed by court"},
		[]string{"court dismissed the petition with costs"},
	)

	if result.Score <= 0 {
		t.Fatalf("BLEU = %f, want > 0 despite missing 4-gram matches", result.Score)
	}
	if result.Precisions[0] <= 0 {
		t.Errorf("unigram precision = %f, want > 0", result.Precisions[0])
	}
	if result.Precisions[3] <= 0 {
		t.Errorf("smoothed 4-gram precision = %f, want > 0", result.Precisions[3])
	}
}

func TestBleu_BrevityPenalty(t *testing.T) {
	t.Parallel()

	// Short candidate that matches a prefix of a longer reference
	result := Bleu(
		[]string{"the court dismissed the petition"},
		[]string{"the court dismissed the petition after hearing both parties at length"},
	)

	if result.BrevityPenalty >= 1.0 {
		t.Errorf("brevity penalty = %f, want < 1.0 for short candidate", result.BrevityPenalty)
	}
	if result.Score <= 0 {
		t.Errorf("BLEU = %f, want > 0 for partial match", result.Score)
	}
}

func TestBleu_MismatchedLengths(t *testing.T) {
	t.Parallel()

	result := Bleu([]string{"a"}, []string{"a", "b"})
	if result.Score != 0 {
		t.Errorf("mismatched corpus lengths should score 0, got %f", result.Score)
	}
}

func TestBleu_Empty(t *testing.T) {
	t.Parallel()

	result := Bleu(nil, nil)
	if result.Score != 0 {
		t.Errorf("empty corpus should score 0, got %f", result.Score)
	}
}
