package span

import (
	"sort"
	"strings"
)

// Kind is the category of a redacted text span.
type Kind string

// Span kinds.
const (
	Email    Kind = "email"
	Address  Kind = "address"
	Name     Kind = "name"
	Location Kind = "location"
)

// Kinds lists every span kind in pipeline order.
func Kinds() []Kind { return []Kind{Email, Address, Name, Location} }

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	return k == Email || k == Address || k == Name || k == Location
}

// Placeholder returns the literal that replaces a span of this kind.
func (k Kind) Placeholder() string {
	return "[REDACTED " + strings.ToUpper(string(k)) + "]"
}

// Span is a half-open byte range [Start, End) of text to redact.
type Span struct {
	Start int
	End   int
	Kind  Kind
}

// Len returns the span length in bytes.
func (s Span) Len() int { return s.End - s.Start }

// Overlaps reports whether s and o share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Resolve orders spans by start descending, longer first on equal starts, and
// drops every span that overlaps one accepted before it.
// The kept spans are safe to pass to Apply.
func Resolve(spans []Span) (kept, dropped []Span) {
	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start > sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	kept = make([]Span, 0, len(sorted))
	for _, s := range sorted {
		if s.Len() <= 0 {
			dropped = append(dropped, s)
			continue
		}
		// kept is non-overlapping and descending, so only the last one can collide.
		if n := len(kept); n > 0 && s.End > kept[n-1].Start {
			dropped = append(dropped, s)
			continue
		}
		kept = append(kept, s)
	}
	return kept, dropped
}

// Apply replaces each span with its placeholder, rightmost first, so offsets
// of spans still to be applied stay valid. spans must come from Resolve.
func Apply(text string, spans []Span) string {
	for _, s := range spans {
		text = text[:s.Start] + s.Kind.Placeholder() + text[s.End:]
	}
	return text
}

// Placeholders locates every placeholder already present in text.
func Placeholders(text string) []Span {
	var out []Span
	for _, k := range Kinds() {
		ph := k.Placeholder()
		for offset := 0; ; {
			i := strings.Index(text[offset:], ph)
			if i < 0 {
				break
			}
			start := offset + i
			out = append(out, Span{Start: start, End: start + len(ph), Kind: k})
			offset = start + len(ph)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// OverlapsAny reports whether s overlaps any of others.
func OverlapsAny(s Span, others []Span) bool {
	for _, o := range others {
		if s.Overlaps(o) {
			return true
		}
	}
	return false
}
