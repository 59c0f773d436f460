// Package vocabulary builds the per-page set of sensitive tokens that the OCR
// classifier matches words against.
package vocabulary

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/kailas-cloud/piiredact/internal/domain"
	"github.com/kailas-cloud/piiredact/internal/domain/ocr"
)

// Fold returns the NFKC-normalized, case-folded form of s.
func Fold(s string) string {
	// Casers are stateful and not shared across goroutines.
	return cases.Fold().String(norm.NFKC.String(s))
}

// Strip removes every rune that is neither a letter nor a digit.
func Strip(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// Key returns the normalized vocabulary key for a token.
func Key(s string) string {
	return Strip(Fold(s))
}

// Reconstruct joins the non-blank OCR words of a page with single spaces,
// in reading order. The result approximates the page text for recognition.
func Reconstruct(words []ocr.Word) string {
	var b strings.Builder
	for _, w := range words {
		if w.IsBlank() {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.TrimSpace(w.Text))
	}
	return b.String()
}

// Vocabulary is a set of normalized sensitive tokens for one page.
// It is built once and only read afterwards.
type Vocabulary struct {
	tokens map[string]struct{}
}

// New creates a vocabulary from raw tokens.
func New(tokens ...string) Vocabulary {
	v := Vocabulary{tokens: make(map[string]struct{}, len(tokens))}
	for _, t := range tokens {
		v.add(t)
	}
	return v
}

// FromEntities decomposes every entity into whitespace-separated tokens and
// collects their normalized forms. Label filtering is the caller's job.
func FromEntities(text string, entities []domain.Entity) Vocabulary {
	v := Vocabulary{tokens: make(map[string]struct{})}
	for _, e := range domain.ValidEntities(text, entities) {
		for _, tok := range strings.Fields(e.Text(text)) {
			v.add(tok)
		}
	}
	return v
}

func (v Vocabulary) add(token string) {
	if k := Key(token); k != "" {
		v.tokens[k] = struct{}{}
	}
}

// Contains reports whether the already normalized key is in the vocabulary.
func (v Vocabulary) Contains(key string) bool {
	_, ok := v.tokens[key]
	return ok
}

// Len returns the number of distinct tokens.
func (v Vocabulary) Len() int { return len(v.tokens) }
