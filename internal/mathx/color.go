package mathx

import "math"

// Color is a linear RGBA colour.
type Color struct {
	R, G, B, A float32
}

var White = Color{1, 1, 1, 1}

// HSV converts hue, saturation and value in [0,1] to an opaque colour.
func HSV(h, s, v float32) Color {
	h = h - float32(math.Floor(float64(h)))
	i := int(h * 6)
	f := h*6 - float32(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)
	switch i % 6 {
	case 0:
		return Color{v, t, p, 1}
	case 1:
		return Color{q, v, p, 1}
	case 2:
		return Color{p, v, t, 1}
	case 3:
		return Color{p, q, v, 1}
	case 4:
		return Color{t, p, v, 1}
	default:
		return Color{v, p, q, 1}
	}
}
