package vocabulary

import (
	"testing"

	"github.com/kailas-cloud/piiredact/internal/domain"
	"github.com/kailas-cloud/piiredact/internal/domain/ocr"
)

func TestReconstruct(t *testing.T) {
	words := []ocr.Word{
		{Text: "Dear"}, {Text: ""}, {Text: "John"}, {Text: "  "}, {Text: "Smith,"},
	}
	if got := Reconstruct(words); got != "Dear John Smith," {
		t.Errorf("Reconstruct() = %q", got)
	}
	if got := Reconstruct(nil); got != "" {
		t.Errorf("Reconstruct(nil) = %q, want empty", got)
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Smith,", "smith"},
		{"|5", "5"},
		{"1.", "1"},
		{"STRASSE", "strasse"},
		{"Straße", "strasse"},
		{"１２", "12"},
		{"...", ""},
	}
	for _, tt := range tests {
		if got := Key(tt.in); got != tt.want {
			t.Errorf("Key(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFromEntities(t *testing.T) {
	text := "Dear John Smith of Acme Corp in New York on Monday"
	entities := []domain.Entity{
		{Start: 5, End: 15, Label: domain.LabelPerson},
		{Start: 19, End: 28, Label: domain.LabelOrganization},
		{Start: 32, End: 40, Label: domain.LabelPlace},
		{Start: 44, End: 80, Label: domain.LabelPlace},
	}
	v := FromEntities(text, entities)

	for _, k := range []string{"john", "smith", "acme", "corp", "new", "york"} {
		if !v.Contains(k) {
			t.Errorf("expected vocabulary to contain %q", k)
		}
	}
	if v.Contains("monday") {
		t.Error("out of range entity must not seed the vocabulary")
	}
	if v.Len() != 6 {
		t.Errorf("expected 6 tokens, got %d", v.Len())
	}
}

func TestNew(t *testing.T) {
	v := New("Paris", "", "!!")
	if !v.Contains("paris") || v.Len() != 1 {
		t.Errorf("unexpected vocabulary: len=%d", v.Len())
	}
}
