// Package extractor pulls a candidate place name out of free text.
package extractor

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Matcher attempts one extraction rule against the raw query text.
type Matcher interface {
	Name() string
	Match(text string) (string, bool)
}

// LocationExtractor runs its matchers in order and returns the first hit.
// When none hits, the fallback matcher gets the text.
type LocationExtractor struct {
	matchers []Matcher
	fallback Matcher
}

// NewLocationExtractor builds an extractor over the given matchers. With no
// matchers it uses DefaultMatchers.
func NewLocationExtractor(matchers ...Matcher) *LocationExtractor {
	if len(matchers) == 0 {
		matchers = DefaultMatchers()
	}
	return &LocationExtractor{
		matchers: matchers,
		fallback: CapitalizedWords{MaxWords: 3, MinLength: 3},
	}
}

// WithFallback replaces the matcher used when every ordered rule misses.
// A nil fallback disables it.
func (e *LocationExtractor) WithFallback(m Matcher) *LocationExtractor {
	e.fallback = m
	return e
}

// Extract returns the place name found in text, or false when there is none.
func (e *LocationExtractor) Extract(text string) (string, bool) {
	for _, m := range e.matchers {
		if candidate, ok := m.Match(text); ok {
			return candidate, true
		}
	}
	if e.fallback != nil {
		return e.fallback.Match(text)
	}
	return "", false
}

// Matchers returns the ordered rule names, fallback excluded.
func (e *LocationExtractor) Matchers() []string {
	names := make([]string, 0, len(e.matchers))
	for _, m := range e.matchers {
		names = append(names, m.Name())
	}
	return names
}

const (
	phrase     = `(\p{L}[\p{L}\s'\-]+?)`
	terminator = `\s*(?:[,.?!;]|$)`
)

// DefaultMatchers returns the cue-word rules in priority order.
func DefaultMatchers() []Matcher {
	return []Matcher{
		MustPatternMatcher("going-to", `(?i)\bgo(?:ing)?\s+to\s+(?:go\s+to\s+|visit\s+)?`+phrase+terminator),
		MustPatternMatcher("in", `(?i)\bin\s+`+phrase+terminator),
		MustPatternMatcher("to", `(?i)\bto\s+`+phrase+terminator),
		MustPatternMatcher("visit", `(?i)\bvisit(?:ing)?\s+`+phrase+terminator),
	}
}

// PatternMatcher matches a regular expression whose first group captures the
// place name.
type PatternMatcher struct {
	name string
	re   *regexp.Regexp
}

func NewPatternMatcher(name, expr string) (*PatternMatcher, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &PatternMatcher{name: name, re: re}, nil
}

func MustPatternMatcher(name, expr string) *PatternMatcher {
	m, err := NewPatternMatcher(name, expr)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *PatternMatcher) Name() string { return m.name }

func (m *PatternMatcher) Match(text string) (string, bool) {
	sub := m.re.FindStringSubmatch(text)
	if len(sub) < 2 {
		return "", false
	}
	candidate := cleanCandidate(sub[1])
	return candidate, candidate != ""
}

var (
	leadingFiller  = regexp.MustCompile(`(?i)^(?:(?:the|a|an)\s+)+`)
	interiorFiller = regexp.MustCompile(`(?i)\s+(?:the|a|an)\s+`)
)

func cleanCandidate(s string) string {
	s = strings.TrimSpace(s)
	s = leadingFiller.ReplaceAllString(s, "")
	s = interiorFiller.ReplaceAllString(s, " ")
	s = strings.TrimFunc(s, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsPunct(r) })
	return strings.Join(strings.Fields(s), " ")
}

// CapitalizedWords picks tokens that start with an upper-case letter and are
// at least MinLength runes long, joining the first MaxWords of them.
type CapitalizedWords struct {
	MaxWords  int
	MinLength int
}

func (CapitalizedWords) Name() string { return "capitalized-words" }

func (c CapitalizedWords) Match(text string) (string, bool) {
	var picked []string
	for _, tok := range strings.Fields(text) {
		tok = strings.TrimFunc(tok, unicode.IsPunct)
		if utf8.RuneCountInString(tok) < c.MinLength {
			continue
		}
		first, _ := utf8.DecodeRuneInString(tok)
		if !unicode.IsUpper(first) {
			continue
		}
		picked = append(picked, tok)
		if len(picked) == c.MaxWords {
			break
		}
	}
	if len(picked) == 0 {
		return "", false
	}
	return strings.Join(picked, " "), true
}
