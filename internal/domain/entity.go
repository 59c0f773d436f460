package domain

import (
	"context"
	"fmt"
	"sort"
)

// Label is a named-entity category reported by a recognizer.
type Label string

// Entity labels follow the OntoNotes names used by common NER models.
const (
	LabelPerson       Label = "PERSON"
	LabelPlace        Label = "GPE"
	LabelOrganization Label = "ORG"
	LabelFacility     Label = "FAC"
	LabelLocation     Label = "LOC"
	LabelOther        Label = "OTHER"
)

// ParseLabel maps a recognizer label to a known Label, falling back to LabelOther.
func ParseLabel(s string) Label {
	switch Label(s) {
	case LabelPerson, LabelPlace, LabelOrganization, LabelFacility, LabelLocation:
		return Label(s)
	}
	switch s {
	case "PER", "person":
		return LabelPerson
	case "gpe", "place", "city", "country":
		return LabelPlace
	case "org", "organization":
		return LabelOrganization
	case "fac", "facility":
		return LabelFacility
	case "loc", "location":
		return LabelLocation
	}
	return LabelOther
}

// LabelSet is a set of labels a pipeline stage cares about.
type LabelSet map[Label]struct{}

// NewLabelSet builds a LabelSet from the given labels.
func NewLabelSet(labels ...Label) LabelSet {
	s := make(LabelSet, len(labels))
	for _, l := range labels {
		s[l] = struct{}{}
	}
	return s
}

// Has reports whether l is in the set.
func (s LabelSet) Has(l Label) bool {
	_, ok := s[l]
	return ok
}

// TextLabels are the entity labels redacted in plain text.
func TextLabels() LabelSet { return NewLabelSet(LabelPerson, LabelPlace) }

// PageLabels are the entity labels that seed the page vocabulary.
func PageLabels() LabelSet {
	return NewLabelSet(LabelPerson, LabelPlace, LabelOrganization, LabelFacility, LabelLocation)
}

// Entity is a labeled span over the text passed to the recognizer.
// Start and End are byte offsets, End exclusive.
type Entity struct {
	Start int
	End   int
	Label Label
}

// Text returns the entity surface form within text.
func (e Entity) Text(text string) string {
	return text[e.Start:e.End]
}

// Recognizer is the named-entity recognition contract between layers.
// Implementations must be safe for concurrent use.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]Entity, error)
}

// HealthChecker verifies recognizer availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ValidEntities drops entities whose offsets do not fit text and returns
// the rest ordered by start.
func ValidEntities(text string, entities []Entity) []Entity {
	out := make([]Entity, 0, len(entities))
	for _, e := range entities {
		if e.Start < 0 || e.End > len(text) || e.Start >= e.End {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// FilteringRecognizer is a domain decorator that keeps only entities with the given labels.
type FilteringRecognizer struct {
	inner  Recognizer
	labels LabelSet
}

// NewFilteringRecognizer creates a decorator restricted to labels.
func NewFilteringRecognizer(inner Recognizer, labels LabelSet) *FilteringRecognizer {
	return &FilteringRecognizer{inner: inner, labels: labels}
}

// Recognize delegates to the inner recognizer and filters the result.
func (r *FilteringRecognizer) Recognize(ctx context.Context, text string) ([]Entity, error) {
	entities, err := r.inner.Recognize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("filtered recognize: %w", err)
	}
	kept := make([]Entity, 0, len(entities))
	for _, e := range ValidEntities(text, entities) {
		if r.labels.Has(e.Label) {
			kept = append(kept, e)
		}
	}
	return kept, nil
}
