// Package classify decides whether an OCR word must be masked.
package classify

import (
	"unicode"

	"github.com/kailas-cloud/piiredact/internal/domain/pattern"
	"github.com/kailas-cloud/piiredact/internal/domain/vocabulary"
)

// Rule names the first rule that marked a word for redaction.
type Rule string

// Classification rules, in evaluation order.
const (
	None       Rule = ""
	Email      Rule = "email"
	Digits     Rule = "digits"
	Street     Rule = "street"
	Vocabulary Rule = "vocabulary"
)

// Rules lists every redacting rule in evaluation order.
func Rules() []Rule { return []Rule{Email, Digits, Street, Vocabulary} }

// Classify returns the first rule that flags word, or None when the word is kept.
// A word is redacted when any one rule matches.
func Classify(word string, vocab vocabulary.Vocabulary) Rule {
	if pattern.ContainsEmail(word) {
		return Email
	}
	stripped := vocabulary.Key(word)
	if isDigits(stripped) {
		return Digits
	}
	if pattern.IsStreetToken(stripped) {
		return Street
	}
	if vocab.Contains(stripped) || vocab.Contains(vocabulary.Fold(word)) {
		return Vocabulary
	}
	return None
}

// ShouldRedact reports whether word must be masked.
func ShouldRedact(word string, vocab vocabulary.Vocabulary) bool {
	return Classify(word, vocab) != None
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
