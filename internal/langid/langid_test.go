package langid

import "testing"

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "english", text: "The plaintiff filed a writ petition before the High Court.", want: English},
		{name: "hindi", text: "न्यायालय ने याचिका खारिज कर दी।", want: Hindi},
		{name: "tamil", text: "நீதிமன்றம் மனுவை தள்ளுபடி செய்தது.", want: Tamil},
		{name: "kannada", text: "ನ್ಯಾಯಾಲಯವು ಅರ್ಜಿಯನ್ನು ವಜಾಗೊಳಿಸಿತು.", want: Kannada},
		{name: "telugu", text: "కోర్టు పిటిషన్‌ను కొట్టివేసింది.", want: Telugu},
		{name: "malayalam", text: "കോടതി ഹർജി തള്ളി.", want: Malayalam},
		{name: "bengali", text: "আদালত আবেদন খারিজ করেছে।", want: Bengali},
		{name: "gujarati", text: "કોર્ટે અરજી ફગાવી દીધી.", want: Gujarati},
		{name: "punjabi", text: "ਅਦਾਲਤ ਨੇ ਪਟੀਸ਼ਨ ਖਾਰਜ ਕਰ ਦਿੱਤੀ।", want: Punjabi},
		{name: "odia", text: "କୋର୍ଟ ଆବେଦନ ଖାରଜ କଲା।", want: Odia},
		{name: "urdu", text: "عدالت نے درخواست مسترد کر دی۔", want: Urdu},
		{name: "mixed dominant hindi", text: "Section 498A के तहत न्यायालय ने आरोपी को दोषी ठहराया और सजा सुनाई गई।", want: Hindi},
		{name: "empty", text: "", want: English},
		{name: "digits only", text: "123 456", want: English},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Detect(tt.text)
			if got.Language != tt.want {
				t.Errorf("Detect(%q).Language = %q, want %q", tt.text, got.Language, tt.want)
			}
		})
	}
}

func TestDetect_Confidence(t *testing.T) {
	t.Parallel()

	got := Detect("न्यायालय")
	if got.Confidence < 0.99 {
		t.Errorf("pure Devanagari text should have confidence ~1.0, got %f", got.Confidence)
	}

	empty := Detect("")
	if empty.Confidence != 0 {
		t.Errorf("empty text should have zero confidence, got %f", empty.Confidence)
	}
}

func TestSegments(t *testing.T) {
	t.Parallel()

	t.Run("single language", func(t *testing.T) {
		t.Parallel()

		got := Segments("The appeal is dismissed.")
		if len(got) != 1 {
			t.Fatalf("got %d segments, want 1", len(got))
		}
		if got[0].Language != English {
			t.Errorf("segment language = %q, want %q", got[0].Language, English)
		}
	})

	t.Run("mixed scripts", func(t *testing.T) {
		t.Parallel()

		got := Segments("Section 302 के तहत court ने फैसला सुनाया")
		var langs []string
		for _, seg := range got {
			langs = append(langs, seg.Language)
		}
		want := []string{English, Hindi, English, Hindi}
		if len(langs) != len(want) {
			t.Fatalf("segment languages = %v, want %v", langs, want)
		}
		for i := range want {
			if langs[i] != want[i] {
				t.Fatalf("segment languages = %v, want %v", langs, want)
			}
		}
	})

	t.Run("segments reassemble the input", func(t *testing.T) {
		t.Parallel()

		text := "Order XXI नियम 90 के अधीन आपत्ति"
		var rebuilt string
		for _, seg := range Segments(text) {
			rebuilt += seg.Text
		}
		if rebuilt != text {
			t.Errorf("reassembled = %q, want %q", rebuilt, text)
		}
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		if got := Segments(""); got != nil {
			t.Errorf("Segments(\"\") = %v, want nil", got)
		}
	})

	t.Run("punctuation only", func(t *testing.T) {
		t.Parallel()

		got := Segments("...!!")
		if len(got) != 1 || got[0].Language != English {
			t.Errorf("got %v, want one English segment", got)
		}
	})
}

func TestIsSupported(t *testing.T) {
	t.Parallel()

	for _, lang := range Supported {
		if !IsSupported(lang) {
			t.Errorf("IsSupported(%q) = false, want true", lang)
		}
	}
	if IsSupported("fr") {
		t.Error("IsSupported(fr) = true, want false")
	}
}
