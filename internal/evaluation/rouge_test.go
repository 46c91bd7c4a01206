package evaluation

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRouge_Identical(t *testing.T) {
	t.Parallel()

	text := "the court dismissed the petition"
	result := Rouge(text, text)

	if !almostEqual(result.Rouge1.F1, 1.0) {
		t.Errorf("ROUGE-1 F1 for identical text = %f, want 1.0", result.Rouge1.F1)
	}
	if !almostEqual(result.Rouge2.F1, 1.0) {
		t.Errorf("ROUGE-2 F1 for identical text = %f, want 1.0", result.Rouge2.F1)
	}
	if !almostEqual(result.RougeL.F1, 1.0) {
		t.Errorf("ROUGE-L F1 for identical text = %f, want 1.0", result.RougeL.F1)
	}
}

func TestRouge_NoOverlap(t *testing.T) {
	t.Parallel()

	result := Rouge("alpha beta gamma", "delta epsilon zeta")

	if result.Rouge1.F1 != 0 {
		t.Errorf("ROUGE-1 F1 for disjoint text = %f, want 0", result.Rouge1.F1)
	}
	if result.RougeL.F1 != 0 {
		t.Errorf("ROUGE-L F1 for disjoint text = %f, want 0", result.RougeL.F1)
	}
}

func TestRouge_PartialOverlap(t *testing.T) {
	t.Parallel()

	// candidate: 4 tokens, reference: 4 tokens, 3 shared unigrams
	result := Rouge("the court dismissed appeal", "the court allowed appeal")

	if !almostEqual(result.Rouge1.Precision, 0.75) {
		t.Errorf("ROUGE-1 precision = %f, want 0.75", result.Rouge1.Precision)
	}
	if !almostEqual(result.Rouge1.Recall, 0.75) {
		t.Errorf("ROUGE-1 recall = %f, want 0.75", result.Rouge1.Recall)
	}
}

func TestRouge_Empty(t *testing.T) {
	t.Parallel()

	result := Rouge("", "the reference text")
	if result.Rouge1.F1 != 0 || result.RougeL.F1 != 0 {
		t.Error("empty candidate should score zero")
	}
}

func TestRougeL_Subsequence(t *testing.T) {
	t.Parallel()

	// LCS("a b c d e", "a c e") = 3
	result := Rouge("a b c d e", "a c e")
	if !almostEqual(result.RougeL.Recall, 1.0) {
		t.Errorf("ROUGE-L recall = %f, want 1.0", result.RougeL.Recall)
	}
	if !almostEqual(result.RougeL.Precision, 0.6) {
		t.Errorf("ROUGE-L precision = %f, want 0.6", result.RougeL.Precision)
	}
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	tokens := Tokenize("The Court, dismissed; the petition!")
	want := []string{"the", "court", "dismissed", "the", "petition"}
	if len(tokens) != len(want) {
		t.Fatalf("Tokenize returned %d tokens, want %d: %v", len(tokens), len(want), tokens)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token[%d] = %q, want %q", i, tokens[i], want[i])
		}
	}
}

func TestTokenize_Indic(t *testing.T) {
	t.Parallel()

	tokens := Tokenize("न्यायालय ने याचिका खारिज की।")
	if len(tokens) != 5 {
		t.Errorf("expected 5 tokens, got %d: %v", len(tokens), tokens)
	}
}
