package mathx

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

const eps = 1e-4

func TestEulerQuarterTurns(t *testing.T) {
	assert.True(t, Euler(Vec3{Y: 90}).Rotate(Forward).ApproxEqual(Vec3{X: 1}, eps))
	assert.True(t, Euler(Vec3{X: -90}).Rotate(Forward).ApproxEqual(Up, eps))
	assert.True(t, Euler(Vec3{Z: 90}).Rotate(Up).ApproxEqual(Vec3{X: -1}, eps))
}

func TestInverseUndoesRotation(t *testing.T) {
	rng := rand.New(rand.NewPCG(4, 4))
	for i := 0; i < 20; i++ {
		q := RandomRotation(rng)
		v := OnUnitSphere(rng)
		assert.True(t, q.Inverse().Rotate(q.Rotate(v)).ApproxEqual(v, eps))
	}
}

func TestTransformPoint(t *testing.T) {
	tr := NewTransform()
	tr.Position = Vec3{1, 2, 3}
	tr.Scale = Vec3{2, 2, 2}
	tr.Rotation = Euler(Vec3{Y: 90})
	assert.True(t, tr.TransformPoint(Forward).ApproxEqual(Vec3{3, 2, 3}, eps))
	assert.True(t, tr.Forward().ApproxEqual(Vec3{X: 1}, eps))
}

func TestRandomHelpers(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))
	for i := 0; i < 100; i++ {
		assert.InDelta(t, 1, OnUnitSphere(rng).Len(), eps)
		assert.LessOrEqual(t, InsideUnitSphere(rng).Len(), float32(1)+eps)
		v := Range(rng, 2, 3)
		assert.GreaterOrEqual(t, v, float32(2))
		assert.Less(t, v, float32(3))
	}
}

func TestHSV(t *testing.T) {
	assert.Equal(t, Color{1, 0, 0, 1}, HSV(0, 1, 1))
	assert.Equal(t, Color{0.5, 0.5, 0.5, 1}, HSV(0.3, 0, 0.5))
	assert.Equal(t, HSV(0.25, 1, 1), HSV(1.25, 1, 1), "hue wraps")
}

func TestNormalizedDegenerate(t *testing.T) {
	assert.Equal(t, Zero, Zero.Normalized())
	assert.InDelta(t, 1, Vec3{3, 4, 0}.Normalized().Len(), eps)
}
