package ocr

import (
	"image"
	"testing"
)

func TestBox_Pad(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)
	tests := []struct {
		name string
		box  Box
		pad  int
		want image.Rectangle
	}{
		{"inside", Box{Left: 10, Top: 10, Width: 20, Height: 10}, 5, image.Rect(5, 5, 35, 25)},
		{"clipped at origin", Box{Left: 0, Top: 0, Width: 10, Height: 10}, 5, image.Rect(0, 0, 15, 15)},
		{"clipped at far edge", Box{Left: 90, Top: 95, Width: 10, Height: 5}, 5, image.Rect(85, 90, 100, 100)},
		{"no padding", Box{Left: 1, Top: 2, Width: 3, Height: 4}, 0, image.Rect(1, 2, 4, 6)},
		{"outside", Box{Left: 200, Top: 200, Width: 5, Height: 5}, 5, image.Rectangle{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.box.Pad(tt.pad, bounds)
			if got != tt.want {
				t.Errorf("Pad() = %v, want %v", got, tt.want)
			}
			if got.Min.X < 0 || got.Min.Y < 0 {
				t.Errorf("negative coordinates in %v", got)
			}
		})
	}
}

func TestFromRect(t *testing.T) {
	b := FromRect(image.Rect(3, 4, 13, 24))
	if b != (Box{Left: 3, Top: 4, Width: 10, Height: 20}) {
		t.Errorf("unexpected box %+v", b)
	}
	if b.Rect() != image.Rect(3, 4, 13, 24) {
		t.Errorf("round trip mismatch: %v", b.Rect())
	}
}

func TestWord_IsBlank(t *testing.T) {
	for _, s := range []string{"", " ", "\t\n"} {
		if !(Word{Text: s}).IsBlank() {
			t.Errorf("Word{%q}.IsBlank() = false", s)
		}
	}
	if (Word{Text: "x"}).IsBlank() {
		t.Error("Word{\"x\"}.IsBlank() = true")
	}
}
