package mathx

import "math"

// Quat is a rotation quaternion.
type Quat struct {
	X, Y, Z, W float32
}

var Identity = Quat{W: 1}

const deg2rad = math.Pi / 180

// Euler builds a rotation from degrees, applied Z then X then Y.
func Euler(deg Vec3) Quat {
	qx := axisAngle(Vec3{1, 0, 0}, deg.X)
	qy := axisAngle(Vec3{0, 1, 0}, deg.Y)
	qz := axisAngle(Vec3{0, 0, 1}, deg.Z)
	return qy.Mul(qx).Mul(qz)
}

func axisAngle(axis Vec3, deg float32) Quat {
	half := float64(deg) * deg2rad / 2
	s := float32(math.Sin(half))
	return Quat{axis.X * s, axis.Y * s, axis.Z * s, float32(math.Cos(half))}
}

// Mul returns q*o: o is applied first, in q's frame.
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

func (q Quat) Inverse() Quat { return Quat{-q.X, -q.Y, -q.Z, q.W} }

// Rotate applies q to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Mul(2)
	return v.Add(t.Mul(q.W)).Add(u.Cross(t))
}

// Normalized guards against drift after many incremental rotations.
func (q Quat) Normalized() Quat {
	l := float32(math.Sqrt(float64(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)))
	if l < 1e-6 {
		return Identity
	}
	return Quat{q.X / l, q.Y / l, q.Z / l, q.W / l}
}
