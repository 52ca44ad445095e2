// Package mathx holds the small float32 vector, rotation and colour types
// shared by shapes, spawn zones and the save codec.
package mathx

import "math"

// Vec3 is a 3-component float32 vector.
type Vec3 struct {
	X, Y, Z float32
}

var (
	Zero    = Vec3{}
	One     = Vec3{1, 1, 1}
	Up      = Vec3{0, 1, 0}
	Forward = Vec3{0, 0, 1}
)

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Mul(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) Dot(o Vec3) float32 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) SqrLen() float32 { return v.Dot(v) }
func (v Vec3) Len() float32    { return float32(math.Sqrt(float64(v.SqrLen()))) }

// Normalized returns v scaled to unit length, or Zero for a degenerate vector.
func (v Vec3) Normalized() Vec3 {
	l := v.Len()
	if l < 1e-6 {
		return Zero
	}
	return v.Mul(1 / l)
}

// ApproxEqual reports whether every component differs by at most eps.
func (v Vec3) ApproxEqual(o Vec3, eps float32) bool {
	return abs(v.X-o.X) <= eps && abs(v.Y-o.Y) <= eps && abs(v.Z-o.Z) <= eps
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

// Sin and Cos are float32 wrappers; behaviours run entirely in float32.
func Sin(f float32) float32 { return float32(math.Sin(float64(f))) }
func Cos(f float32) float32 { return float32(math.Cos(float64(f))) }

// Smoothstep applies (3-2s)s² to s, which callers keep in [0,1].
func Smoothstep(s float32) float32 { return (3 - 2*s) * s * s }
