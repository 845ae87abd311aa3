package gaze

// PointerSample is a pointer position in normalized device coordinates.
// Both axes lie in [-1, 1]; (-1, -1) is the bottom-left corner of the viewport.
type PointerSample struct {
	X, Y float32
}

// Viewport is the pixel rectangle the pointer is measured against.
type Viewport struct {
	X, Y          float32
	Width, Height float32
}

// NormalizePointer converts a pixel position into a PointerSample.
// Pixel rows grow downward, so the Y axis is flipped. Positions outside the
// viewport are clamped to its border. An empty viewport yields the center sample.
//
// Parameters:
//   - px, py: pointer position in pixels
//   - vp: the viewport's bounding rectangle in the same pixel space
//
// Returns:
//   - PointerSample: the normalized sample
func NormalizePointer(px, py float32, vp Viewport) PointerSample {
	if vp.Width <= 0 || vp.Height <= 0 {
		return PointerSample{}
	}
	x := (px-vp.X)/vp.Width*2 - 1
	y := -((py-vp.Y)/vp.Height*2 - 1)
	return PointerSample{X: clampUnit(x), Y: clampUnit(y)}
}

func clampUnit(v float32) float32 {
	switch {
	case v < -1:
		return -1
	case v > 1:
		return 1
	case v != v: // NaN
		return 0
	}
	return v
}
