package mathx

// Transform places an object in the world.
type Transform struct {
	Position Vec3
	Rotation Quat
	Scale    Vec3
}

// NewTransform returns a transform at the origin with no rotation and unit
// scale.
func NewTransform() Transform {
	return Transform{Rotation: Identity, Scale: One}
}

// Hadamard multiplies v and o component-wise.
func (v Vec3) Hadamard(o Vec3) Vec3 { return Vec3{v.X * o.X, v.Y * o.Y, v.Z * o.Z} }

// TransformPoint maps a local point to world space: scale, rotate, then
// translate.
func (t Transform) TransformPoint(p Vec3) Vec3 {
	return t.Position.Add(t.Rotation.Rotate(p.Hadamard(t.Scale)))
}

func (t Transform) Forward() Vec3 { return t.Rotation.Rotate(Forward) }
func (t Transform) Up() Vec3      { return t.Rotation.Rotate(Up) }

// Rotate spins the transform by Euler degrees in its own frame.
func (t *Transform) Rotate(deg Vec3) {
	t.Rotation = t.Rotation.Mul(Euler(deg)).Normalized()
}
