package translit

import (
	"fmt"
	"regexp"
	"strings"
)

// legalTerms are English legal terms that must survive transliteration
// and translation untouched. Citations like "Section 302 IPC" lose
// their meaning if the statute abbreviation is transformed.
var legalTerms = []string{
	"IPC", "CrPC", "CPC", "FIR", "PIL",
	"Supreme Court", "High Court", "Sessions Court",
	"habeas corpus", "mandamus", "certiorari", "quo warranto",
	"suo motu", "prima facie", "res judicata", "sub judice",
	"ultra vires", "inter alia", "amicus curiae",
	"Act", "Article", "Section", "Schedule",
}

var legalTermPatterns = compileTerms(legalTerms)

// compileTerms builds whole-word matchers. "Act" must not fire inside
// "Action" or "Contract".
func compileTerms(terms []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(terms))
	for i, term := range terms {
		patterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
	}
	return patterns
}

// placeholderFormat is unlikely to occur in legal text and contains no
// letters in any supported script, so it passes through conversion.
const placeholderFormat = "⁅%d⁆" // ⁅n⁆

// TermPreserver shields known terms from text transformation by
// replacing them with placeholders before and restoring them after.
type TermPreserver struct {
	terms    []string
	patterns []*regexp.Regexp
}

// NewTermPreserver builds a preserver over the built-in legal term list
// plus any extra terms supplied by the caller.
func NewTermPreserver(extra ...string) *TermPreserver {
	terms := make([]string, 0, len(legalTerms)+len(extra))
	terms = append(terms, legalTerms...)
	terms = append(terms, extra...)

	patterns := make([]*regexp.Regexp, 0, len(terms))
	patterns = append(patterns, legalTermPatterns...)
	patterns = append(patterns, compileTerms(extra)...)

	return &TermPreserver{terms: terms, patterns: patterns}
}

// Shield replaces whole-word occurrences of preserved terms with
// placeholders. Returns the shielded text and the ordered replacements
// for Restore.
func (p *TermPreserver) Shield(text string) (string, []string) {
	var captured []string
	for i, term := range p.terms {
		text = p.patterns[i].ReplaceAllStringFunc(text, func(string) string {
			placeholder := fmt.Sprintf(placeholderFormat, len(captured))
			captured = append(captured, term)
			return placeholder
		})
	}
	return text, captured
}

// LegalTermCounts counts whole-word occurrences of known legal terms in
// text. Used for dataset statistics.
func LegalTermCounts(text string) map[string]int {
	counts := make(map[string]int)
	for i, term := range legalTerms {
		if n := len(legalTermPatterns[i].FindAllStringIndex(text, -1)); n > 0 {
			counts[term] = n
		}
	}
	return counts
}

// Restore substitutes the original terms back into transformed text.
func (p *TermPreserver) Restore(text string, captured []string) string {
	for i, term := range captured {
		placeholder := fmt.Sprintf(placeholderFormat, i)
		text = strings.Replace(text, placeholder, term, 1)
	}
	return text
}
