// Package textnorm folds text from external sources down to plain ASCII.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonASCII = runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })

// ASCII applies NFKD decomposition, drops every rune that is not ASCII and
// collapses whitespace runs into single spaces.
func ASCII(s string) string {
	// Transformers keep state, so the chain is built per call.
	t := transform.Chain(norm.NFKD, runes.Remove(nonASCII))
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = strings.Map(func(r rune) rune {
			if r > unicode.MaxASCII {
				return -1
			}
			return r
		}, s)
	}
	return strings.Join(strings.Fields(folded), " ")
}
