package translit

import (
	"errors"
	"strings"
	"testing"
)

func TestConvert_DevanagariToBengali(t *testing.T) {
	t.Parallel()

	// का (ka + ā sign) rebases to কা
	got, err := Convert("का", ScriptDevanagari, ScriptBengali)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if got != "কা" {
		t.Errorf("Convert = %q, want %q", got, "কা")
	}
}

func TestConvert_RoundTrip(t *testing.T) {
	t.Parallel()

	original := "न्यायालय"
	bengali, err := Convert(original, ScriptDevanagari, ScriptBengali)
	if err != nil {
		t.Fatalf("Convert to bengali: %v", err)
	}
	back, err := Convert(bengali, ScriptBengali, ScriptDevanagari)
	if err != nil {
		t.Fatalf("Convert back: %v", err)
	}
	if back != original {
		t.Errorf("round trip = %q, want %q", back, original)
	}
}

func TestConvert_PassthroughNonIndic(t *testing.T) {
	t.Parallel()

	got, err := Convert("Section 302 का", ScriptDevanagari, ScriptTelugu)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !strings.HasPrefix(got, "Section 302 ") {
		t.Errorf("Latin text should pass through, got %q", got)
	}
}

func TestConvert_SameScript(t *testing.T) {
	t.Parallel()

	got, err := Convert("धारा", ScriptDevanagari, ScriptDevanagari)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if got != "धारा" {
		t.Errorf("same-script conversion should be identity, got %q", got)
	}
}

func TestConvert_UnsupportedScript(t *testing.T) {
	t.Parallel()

	_, err := Convert("text", "klingon", ScriptDevanagari)
	var unsupported *ErrUnsupportedScript
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected ErrUnsupportedScript, got %v", err)
	}
	if unsupported.Script != "klingon" {
		t.Errorf("Script = %q, want klingon", unsupported.Script)
	}
}

func TestRomanize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "simple consonant vowel", text: "का", want: "kā"},
		{name: "word with virama", text: "न्याय", want: "nyāya"},
		{name: "dhara", text: "धारा", want: "dhārā"},
		{name: "devanagari digits", text: "३०२", want: "302"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Romanize(tt.text, ScriptDevanagari)
			if err != nil {
				t.Fatalf("Romanize: %v", err)
			}
			if got != tt.want {
				t.Errorf("Romanize(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestDevanagarize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "consonant with long vowel", text: "kā", want: "का"},
		{name: "dhara", text: "dhārā", want: "धारा"},
		{name: "conjunct via bare consonant", text: "nyāya", want: "न्याय"},
		{name: "trailing consonant takes virama", text: "rām", want: "राम्"},
		{name: "itrans retroflex", text: "koTa", want: "कोट"},
		{name: "independent vowel", text: "adālat", want: "अदालत्"},
		{name: "passthrough", text: "302", want: "302"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Devanagarize(tt.text); got != tt.want {
				t.Errorf("Devanagarize(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestDevanagarize_RomanizeRoundTrip(t *testing.T) {
	t.Parallel()

	for _, original := range []string{"धारा", "न्याय", "कानून"} {
		roman, err := Romanize(original, ScriptDevanagari)
		if err != nil {
			t.Fatalf("Romanize(%q): %v", original, err)
		}
		if got := Devanagarize(roman); got != original {
			t.Errorf("Devanagarize(Romanize(%q)) = %q via %q", original, got, roman)
		}
	}
}

func TestTransliterate_LatinToIndic(t *testing.T) {
	t.Parallel()

	got, err := Transliterate("dhārā", ScriptLatin, ScriptDevanagari)
	if err != nil {
		t.Fatalf("Transliterate: %v", err)
	}
	if got != "धारा" {
		t.Errorf("latin to devanagari = %q, want %q", got, "धारा")
	}

	bengali, err := Transliterate("kā", ScriptLatin, ScriptBengali)
	if err != nil {
		t.Fatalf("Transliterate: %v", err)
	}
	if bengali != "কা" {
		t.Errorf("latin to bengali = %q, want %q", bengali, "কা")
	}
}

func TestTransliterate_IndicToLatin(t *testing.T) {
	t.Parallel()

	got, err := Transliterate("धारा", ScriptDevanagari, ScriptLatin)
	if err != nil {
		t.Fatalf("Transliterate: %v", err)
	}
	if got != "dhārā" {
		t.Errorf("devanagari to latin = %q, want %q", got, "dhārā")
	}
}

func TestTransliterate_UnknownScript(t *testing.T) {
	t.Parallel()

	var unsupported *ErrUnsupportedScript
	if _, err := Transliterate("text", ScriptLatin, "klingon"); !errors.As(err, &unsupported) {
		t.Errorf("expected ErrUnsupportedScript, got %v", err)
	}
}

func TestRomanizeASCII(t *testing.T) {
	t.Parallel()

	got, err := RomanizeASCII("धारा", ScriptDevanagari)
	if err != nil {
		t.Fatalf("RomanizeASCII: %v", err)
	}
	if got != "dhara" {
		t.Errorf("RomanizeASCII = %q, want dhara", got)
	}

	for _, r := range got {
		if r > 127 {
			t.Errorf("output should be plain ASCII, got %q", got)
		}
	}
}

func TestTermPreserver(t *testing.T) {
	t.Parallel()

	p := NewTermPreserver()
	input := "The accused was charged under Section 302 IPC before the High Court."

	shielded, captured := p.Shield(input)
	if strings.Contains(shielded, "IPC") {
		t.Error("IPC should be shielded")
	}
	if strings.Contains(shielded, "High Court") {
		t.Error("High Court should be shielded")
	}
	if len(captured) == 0 {
		t.Fatal("expected captured terms")
	}

	restored := p.Restore(shielded, captured)
	if restored != input {
		t.Errorf("Restore = %q, want %q", restored, input)
	}
}

func TestTermPreserver_WholeWordsOnly(t *testing.T) {
	t.Parallel()

	p := NewTermPreserver()

	tests := []struct {
		name  string
		input string
	}{
		{name: "term inside a longer word", input: "The contract required immediate action."},
		{name: "term as prefix", input: "Sections were renumbered in the amendment."},
		{name: "term in camel case identifier", input: "See the CPCheck routine."},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			shielded, captured := p.Shield(tt.input)
			if shielded != tt.input {
				t.Errorf("Shield(%q) = %q, want unchanged", tt.input, shielded)
			}
			if len(captured) != 0 {
				t.Errorf("captured = %v, want none", captured)
			}
		})
	}

	// The standalone form still matches.
	shielded, captured := p.Shield("Under the Act, relief was granted.")
	if strings.Contains(shielded, "Act") {
		t.Errorf("standalone term was not shielded: %q", shielded)
	}
	if len(captured) != 1 || captured[0] != "Act" {
		t.Errorf("captured = %v, want [Act]", captured)
	}
}

func TestLegalTermCounts_WholeWordsOnly(t *testing.T) {
	t.Parallel()

	counts := LegalTermCounts("The contract mentions the Act twice: Act.")
	if counts["Act"] != 2 {
		t.Errorf("Act count = %d, want 2", counts["Act"])
	}

	counts = LegalTermCounts("No action under any contract.")
	if len(counts) != 0 {
		t.Errorf("counts = %v, want empty", counts)
	}
}

func TestTermPreserver_ExtraTerms(t *testing.T) {
	t.Parallel()

	p := NewTermPreserver("Lok Adalat")
	shielded, captured := p.Shield("Referred to Lok Adalat for settlement.")
	if strings.Contains(shielded, "Lok Adalat") {
		t.Error("extra term should be shielded")
	}
	restored := p.Restore(shielded, captured)
	if !strings.Contains(restored, "Lok Adalat") {
		t.Error("extra term should be restored")
	}
}
