// Package pattern holds the regular-expression detectors for structured PII
// and the token rules shared with the OCR classifier.
package pattern

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/piiredact/internal/domain/span"
)

// StreetSuffixes are the street-type tokens that terminate an address.
var StreetSuffixes = []string{
	"Street", "St", "Avenue", "Ave", "Road", "Rd", "Boulevard", "Blvd",
	"Lane", "Ln", "Drive", "Dr", "Way", "Court", "Ct", "Plaza", "Plz",
}

// SquareTokens only count as address tokens for isolated OCR words.
var SquareTokens = []string{"Square", "Sq", "Circle", "Cir"}

// CompassTokens are directional tokens that commonly appear inside addresses.
var CompassTokens = []string{"North", "South", "East", "West", "N", "S", "E", "W"}

const emailBody = `[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`

var (
	emailRe      = regexp.MustCompile(`\b` + emailBody + `\b`)
	emailTokenRe = regexp.MustCompile(emailBody)
	addressRe    = regexp.MustCompile(`(?i)\b\d+\s+[A-Za-z0-9\s]+(?:` + strings.Join(StreetSuffixes, "|") + `)\b`)

	streetTokens = lowerSet(StreetSuffixes, SquareTokens, CompassTokens)
)

func lowerSet(lists ...[]string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, l := range lists {
		for _, s := range l {
			out[strings.ToLower(s)] = struct{}{}
		}
	}
	return out
}

// Detector finds email addresses and street addresses in free text.
// A Detector is immutable and safe for concurrent use.
type Detector struct {
	rules []rule
}

type rule struct {
	kind span.Kind
	re   *regexp.Regexp
}

// NewDetector creates a detector applying emails first, then addresses.
func NewDetector() *Detector {
	return &Detector{rules: []rule{
		{kind: span.Email, re: emailRe},
		{kind: span.Address, re: addressRe},
	}}
}

// Redact substitutes each rule's matches with the rule placeholder. Rules run
// in order, each over the output of the previous one, so an address rule never
// sees a raw email. counts reports substitutions per kind.
func (d *Detector) Redact(text string) (redacted string, counts map[span.Kind]int) {
	counts = make(map[span.Kind]int, len(d.rules))
	for _, r := range d.rules {
		n := 0
		text = r.re.ReplaceAllStringFunc(text, func(string) string {
			n++
			return r.kind.Placeholder()
		})
		if n > 0 {
			counts[r.kind] += n
		}
	}
	return text, counts
}

// ContainsEmail reports whether an email address appears anywhere in word,
// including behind punctuation OCR attaches to the token.
func ContainsEmail(word string) bool {
	return emailTokenRe.MatchString(word)
}

// IsStreetToken reports whether token is a street suffix or compass direction.
// token is compared case-insensitively.
func IsStreetToken(token string) bool {
	_, ok := streetTokens[strings.ToLower(token)]
	return ok
}
