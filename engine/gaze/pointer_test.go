package gaze

import (
	"math"
	"testing"
)

func TestNormalizePointer(t *testing.T) {
	vp := Viewport{Width: 800, Height: 600}
	tests := []struct {
		name   string
		px, py float32
		vp     Viewport
		want   PointerSample
	}{
		{"center", 400, 300, vp, PointerSample{0, 0}},
		{"top left", 0, 0, vp, PointerSample{-1, 1}},
		{"bottom right", 800, 600, vp, PointerSample{1, -1}},
		{"quarter", 200, 450, vp, PointerSample{-0.5, -0.5}},
		{"clamped", -100, 900, vp, PointerSample{-1, -1}},
		{"offset viewport", 150, 100, Viewport{X: 100, Y: 50, Width: 100, Height: 100}, PointerSample{0, 0}},
		{"empty viewport", 10, 10, Viewport{}, PointerSample{}},
		{"nan", float32(math.NaN()), 300, vp, PointerSample{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if have := NormalizePointer(tt.px, tt.py, tt.vp); have != tt.want {
				t.Errorf("NormalizePointer\nhave %v\nwant %v", have, tt.want)
			}
		})
	}
}
