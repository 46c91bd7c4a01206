package service

import (
	"errors"
	"testing"
)

func TestScore(t *testing.T) {
	t.Parallel()

	t.Run("identical texts", func(t *testing.T) {
		t.Parallel()

		candidates := []string{"the court dismissed the petition"}
		references := []string{"the court dismissed the petition"}

		result, err := Score(candidates, references)
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		if result.Samples != 1 {
			t.Errorf("samples = %d, want 1", result.Samples)
		}
		if result.Rouge.Rouge1.F1 != 1.0 {
			t.Errorf("rouge1 f1 = %f, want 1.0", result.Rouge.Rouge1.F1)
		}
		if result.Bleu.Score != 100 {
			t.Errorf("bleu = %f, want 100", result.Bleu.Score)
		}
	})

	t.Run("mismatched lengths", func(t *testing.T) {
		t.Parallel()

		_, err := Score([]string{"a", "b"}, []string{"a"})
		if err == nil {
			t.Error("expected error for mismatched slices")
		}
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		_, err := Score(nil, nil)
		if err == nil {
			t.Error("expected error for empty slices")
		}
	})

	t.Run("too many samples", func(t *testing.T) {
		t.Parallel()

		candidates := make([]string, MaxEvalSamples+1)
		references := make([]string, MaxEvalSamples+1)
		for i := range candidates {
			candidates[i] = "a"
			references[i] = "a"
		}

		_, err := Score(candidates, references)
		if !errors.Is(err, ErrEvalTooLarge) {
			t.Errorf("err = %v, want ErrEvalTooLarge", err)
		}
	})
}

func TestAggregateRouge(t *testing.T) {
	t.Parallel()

	candidates := []string{
		"the court dismissed the petition",
		"completely unrelated words here",
	}
	references := []string{
		"the court dismissed the petition",
		"the appeal was allowed today",
	}

	agg := aggregateRouge(candidates, references)

	// One perfect match and one zero match average to 0.5.
	if agg.Rouge1.F1 != 0.5 {
		t.Errorf("rouge1 f1 = %f, want 0.5", agg.Rouge1.F1)
	}
}
