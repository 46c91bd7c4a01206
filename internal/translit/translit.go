// Package translit converts text between Indic scripts and romanizes it.
//
// The Brahmic script blocks in Unicode are aligned at the same offsets
// (a legacy of ISCII), so script-to-script conversion is a codepoint
// rebase between blocks plus a small exception table. Romanization uses
// an IAST-style lookup table from the Devanagari block.
package translit

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Script identifiers accepted by Convert.
const (
	ScriptDevanagari = "devanagari"
	ScriptBengali    = "bengali"
	ScriptGurmukhi   = "gurmukhi"
	ScriptGujarati   = "gujarati"
	ScriptOriya      = "oriya"
	ScriptTamil      = "tamil"
	ScriptTelugu     = "telugu"
	ScriptKannada    = "kannada"
	ScriptMalayalam  = "malayalam"
	ScriptLatin      = "latin"
)

// blockStart maps each supported script to the start of its Unicode block.
var blockStart = map[string]rune{
	ScriptDevanagari: 0x0900,
	ScriptBengali:    0x0980,
	ScriptGurmukhi:   0x0A00,
	ScriptGujarati:   0x0A80,
	ScriptOriya:      0x0B00,
	ScriptTamil:      0x0B80,
	ScriptTelugu:     0x0C00,
	ScriptKannada:    0x0C80,
	ScriptMalayalam:  0x0D00,
}

// ScriptForLanguage maps a language code to its native script.
var ScriptForLanguage = map[string]string{
	"hi": ScriptDevanagari,
	"mr": ScriptDevanagari,
	"bn": ScriptBengali,
	"pa": ScriptGurmukhi,
	"gu": ScriptGujarati,
	"or": ScriptOriya,
	"ta": ScriptTamil,
	"te": ScriptTelugu,
	"kn": ScriptKannada,
	"ml": ScriptMalayalam,
	"en": ScriptLatin,
}

// ErrUnsupportedScript is returned for unknown script identifiers.
type ErrUnsupportedScript struct {
	Script string
}

func (e *ErrUnsupportedScript) Error() string {
	return fmt.Sprintf("unsupported script: %s", e.Script)
}

// blockSize is the size of each Brahmic Unicode block.
const blockSize = 0x80

// Convert transliterates text from one Indic script to another by
// rebasing codepoints between blocks. Characters outside the source
// block (Latin, digits, punctuation) pass through unchanged. Target
// script conversion to or from Latin must go through Romanize.
func Convert(text, from, to string) (string, error) {
	fromStart, ok := blockStart[from]
	if !ok {
		return "", &ErrUnsupportedScript{Script: from}
	}
	toStart, ok := blockStart[to]
	if !ok {
		return "", &ErrUnsupportedScript{Script: to}
	}
	if from == to {
		return text, nil
	}

	// Compose first so rebasing sees canonical codepoints.
	text = norm.NFC.String(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r >= fromStart && r < fromStart+blockSize {
			candidate := r - fromStart + toStart
			if mapped, ok := exceptions[candidate]; ok {
				candidate = mapped
			}
			b.WriteRune(candidate)
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}

// exceptions patches codepoints with no aligned equivalent in the
// target block. Tamil lacks the full consonant inventory; voiced stops
// fold onto their unvoiced counterparts.
var exceptions = map[rune]rune{
	0x0B97: 0x0B95, // ga -> ka
	0x0B98: 0x0B95, // gha -> ka
	0x0B9B: 0x0B9A, // cha -> ca
	0x0B9D: 0x0B9C, // jha -> ja
	0x0BA0: 0x0B9F, // ttha -> tta
	0x0BA1: 0x0B9F, // dda -> tta
	0x0BA2: 0x0B9F, // ddha -> tta
	0x0BA5: 0x0BA4, // tha -> ta
	0x0BA6: 0x0BA4, // da -> ta
	0x0BA7: 0x0BA4, // dha -> ta
	0x0BAA: 0x0BAA, // pa
	0x0BAB: 0x0BAA, // pha -> pa
	0x0BAC: 0x0BAA, // ba -> pa
	0x0BAD: 0x0BAA, // bha -> pa
}

// romanTable maps Devanagari codepoints to IAST-style Latin.
// Conversion from other scripts romanizes via a rebase to Devanagari.
var romanTable = map[rune]string{
	// Independent vowels
	0x0905: "a", 0x0906: "ā", 0x0907: "i", 0x0908: "ī",
	0x0909: "u", 0x090A: "ū", 0x090B: "ṛ", 0x090F: "e",
	0x0910: "ai", 0x0913: "o", 0x0914: "au",
	// Consonants (inherent a)
	0x0915: "ka", 0x0916: "kha", 0x0917: "ga", 0x0918: "gha", 0x0919: "ṅa",
	0x091A: "ca", 0x091B: "cha", 0x091C: "ja", 0x091D: "jha", 0x091E: "ña",
	0x091F: "ṭa", 0x0920: "ṭha", 0x0921: "ḍa", 0x0922: "ḍha", 0x0923: "ṇa",
	0x0924: "ta", 0x0925: "tha", 0x0926: "da", 0x0927: "dha", 0x0928: "na",
	0x092A: "pa", 0x092B: "pha", 0x092C: "ba", 0x092D: "bha", 0x092E: "ma",
	0x092F: "ya", 0x0930: "ra", 0x0932: "la", 0x0933: "ḷa",
	0x0935: "va", 0x0936: "śa", 0x0937: "ṣa", 0x0938: "sa", 0x0939: "ha",
	// Dependent vowel signs
	0x093E: "ā", 0x093F: "i", 0x0940: "ī", 0x0941: "u", 0x0942: "ū",
	0x0943: "ṛ", 0x0947: "e", 0x0948: "ai", 0x094B: "o", 0x094C: "au",
	// Signs
	0x0902: "ṃ", 0x0903: "ḥ", 0x094D: "", // virama suppresses inherent vowel
	0x0901: "m̐",
	// Digits
	0x0966: "0", 0x0967: "1", 0x0968: "2", 0x0969: "3", 0x096A: "4",
	0x096B: "5", 0x096C: "6", 0x096D: "7", 0x096E: "8", 0x096F: "9",
	// Punctuation
	0x0964: ".", 0x0965: "..",
}

// vowelSigns are dependent vowels that replace a consonant's inherent a.
var vowelSigns = map[rune]bool{
	0x093E: true, 0x093F: true, 0x0940: true, 0x0941: true, 0x0942: true,
	0x0943: true, 0x0947: true, 0x0948: true, 0x094B: true, 0x094C: true,
	0x094D: true,
}

// Romanize converts Indic-script text to IAST-style Latin.
// Text in any supported script is first rebased to Devanagari.
func Romanize(text, script string) (string, error) {
	if script != ScriptDevanagari {
		var err error
		text, err = Convert(text, script, ScriptDevanagari)
		if err != nil {
			return "", err
		}
	}

	text = norm.NFC.String(text)

	var b strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		latin, ok := romanTable[r]
		if !ok {
			b.WriteRune(r)
			continue
		}

		// A consonant's inherent "a" is dropped when a dependent vowel
		// or virama follows.
		if i+1 < len(runes) && vowelSigns[runes[i+1]] && strings.HasSuffix(latin, "a") && len(latin) > 1 {
			latin = latin[:len(latin)-1]
		}
		b.WriteString(latin)
	}
	return b.String(), nil
}

// latinConsonants maps IAST-style Latin (with ASCII ITRANS fallbacks
// for the retroflex series) to Devanagari consonants.
var latinConsonants = map[string]rune{
	"k": 0x0915, "kh": 0x0916, "g": 0x0917, "gh": 0x0918, "ṅ": 0x0919, "~N": 0x0919,
	"c": 0x091A, "ch": 0x091B, "j": 0x091C, "jh": 0x091D, "ñ": 0x091E, "~n": 0x091E,
	"ṭ": 0x091F, "ṭh": 0x0920, "ḍ": 0x0921, "ḍh": 0x0922, "ṇ": 0x0923,
	"T": 0x091F, "Th": 0x0920, "D": 0x0921, "Dh": 0x0922, "N": 0x0923,
	"t": 0x0924, "th": 0x0925, "d": 0x0926, "dh": 0x0927, "n": 0x0928,
	"p": 0x092A, "ph": 0x092B, "b": 0x092C, "bh": 0x092D, "m": 0x092E,
	"y": 0x092F, "r": 0x0930, "l": 0x0932, "ḷ": 0x0933, "L": 0x0933,
	"v": 0x0935, "w": 0x0935, "ś": 0x0936, "sh": 0x0936, "ṣ": 0x0937, "Sh": 0x0937,
	"s": 0x0938, "h": 0x0939,
}

// latinVowels maps Latin vowels to their independent Devanagari form
// and the dependent sign used after a consonant. A sign of zero means
// the consonant's inherent vowel.
var latinVowels = map[string]struct{ independent, sign rune }{
	"a":  {0x0905, 0},
	"ā":  {0x0906, 0x093E}, "aa": {0x0906, 0x093E}, "A": {0x0906, 0x093E},
	"i":  {0x0907, 0x093F},
	"ī":  {0x0908, 0x0940}, "ii": {0x0908, 0x0940}, "I": {0x0908, 0x0940},
	"u":  {0x0909, 0x0941},
	"ū":  {0x090A, 0x0942}, "uu": {0x090A, 0x0942}, "U": {0x090A, 0x0942},
	"ṛ":  {0x090B, 0x0943}, "RRi": {0x090B, 0x0943},
	"e":  {0x090F, 0x0947},
	"ai": {0x0910, 0x0948},
	"o":  {0x0913, 0x094B},
	"au": {0x0914, 0x094C},
}

// latinSigns maps Latin marks to Devanagari anusvara and visarga.
var latinSigns = map[string]rune{
	"ṃ": 0x0902, "M": 0x0902,
	"ḥ": 0x0903, "H": 0x0903,
}

// maxLatinToken is the longest key across the Latin lookup tables.
const maxLatinToken = 3

const virama = 0x094D

// Devanagarize converts IAST or ITRANS-style romanized text to
// Devanagari. It is the inverse of Romanize for its own output:
// consonants carry an inherent "a" unless a vowel or another consonant
// follows, and a bare trailing consonant takes a virama. Unrecognized
// runes pass through unchanged.
func Devanagarize(text string) string {
	text = norm.NFC.String(text)
	in := []rune(text)

	var b strings.Builder
	b.Grow(len(text))
	afterConsonant := false
	flush := func() {
		if afterConsonant {
			b.WriteRune(virama)
			afterConsonant = false
		}
	}

	for i := 0; i < len(in); {
		matched := false
		for n := maxLatinToken; n >= 1 && !matched; n-- {
			if i+n > len(in) {
				continue
			}
			tok := string(in[i : i+n])
			switch {
			case latinVowels[tok].independent != 0:
				v := latinVowels[tok]
				if afterConsonant {
					if v.sign != 0 {
						b.WriteRune(v.sign)
					}
					afterConsonant = false
				} else {
					b.WriteRune(v.independent)
				}
			case latinConsonants[tok] != 0:
				if afterConsonant {
					b.WriteRune(virama)
				}
				b.WriteRune(latinConsonants[tok])
				afterConsonant = true
			case latinSigns[tok] != 0:
				flush()
				b.WriteRune(latinSigns[tok])
			default:
				continue
			}
			i += n
			matched = true
		}
		if !matched {
			flush()
			b.WriteRune(in[i])
			i++
		}
	}
	flush()
	return b.String()
}

// Transliterate converts text between any two supported scripts,
// Latin included on either side. Latin input is read as IAST or
// ITRANS romanization.
func Transliterate(text, from, to string) (string, error) {
	if !validScript(from) {
		return "", &ErrUnsupportedScript{Script: from}
	}
	if !validScript(to) {
		return "", &ErrUnsupportedScript{Script: to}
	}
	switch {
	case from == to:
		return text, nil
	case from == ScriptLatin:
		dev := Devanagarize(text)
		if to == ScriptDevanagari {
			return dev, nil
		}
		return Convert(dev, ScriptDevanagari, to)
	case to == ScriptLatin:
		return Romanize(text, from)
	default:
		return Convert(text, from, to)
	}
}

func validScript(s string) bool {
	if s == ScriptLatin {
		return true
	}
	_, ok := blockStart[s]
	return ok
}

// asciiFold strips combining diacritics so IAST output becomes plain ASCII.
var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// RomanizeASCII romanizes and then folds diacritics to plain ASCII.
// "ṭa" becomes "ta"; useful for search indexing and file names.
func RomanizeASCII(text, script string) (string, error) {
	iast, err := Romanize(text, script)
	if err != nil {
		return "", err
	}

	folded, _, err := transform.String(asciiFold, iast)
	if err != nil {
		return "", fmt.Errorf("fold diacritics: %w", err)
	}
	return folded, nil
}
