package shape_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shapeflow/shapesim/internal/codec"
	"github.com/shapeflow/shapesim/internal/mathx"
	"github.com/shapeflow/shapesim/internal/roster"
	"github.com/shapeflow/shapesim/internal/shape"
)

const eps = 1e-4

func setup(t *testing.T) (*roster.Roster, *shape.Factory) {
	t.Helper()
	log := zap.NewNop()
	f := shape.NewFactory(0, "test", []shape.Prefab{{Name: "cube", ColorSlots: 1}}, nil, true, log)
	return roster.New(shape.NewPools(), rand.New(rand.NewPCG(1, 2)), nil, log), f
}

func add(t *testing.T, r *roster.Roster, f *shape.Factory) *shape.Shape {
	t.Helper()
	s, err := f.Get(0, 0)
	require.NoError(t, err)
	require.NoError(t, r.Add(s))
	return s
}

func find(s *shape.Shape, bt shape.BehaviorType) *shape.Behavior {
	for _, b := range s.Behaviors() {
		if b.Type == bt {
			return b
		}
	}
	return nil
}

func TestSetShapeIDOnce(t *testing.T) {
	s := shape.New(1)
	require.NoError(t, s.SetShapeID(3))
	assert.ErrorIs(t, s.SetShapeID(4), shape.ErrShapeIDAlreadySet)
	assert.Equal(t, int32(3), s.ShapeID())
}

func TestAttachRejectsOwnedBehavior(t *testing.T) {
	p := shape.NewPools()
	a, b := shape.New(1), shape.New(1)
	beh := a.AddBehavior(p, shape.Movement)
	assert.ErrorIs(t, b.Attach(beh), shape.ErrBehaviorOwned)
	assert.Empty(t, b.Behaviors())
}

func TestPoolsRejectUnknownType(t *testing.T) {
	_, err := shape.NewPools().Get(shape.BehaviorType(42))
	assert.ErrorIs(t, err, shape.ErrUnknownBehaviorType)
}

func TestRecycledBehaviorIsReused(t *testing.T) {
	p := shape.NewPools()
	s := shape.New(1)
	b := s.AddBehavior(p, shape.Movement)
	b.Movement.Velocity = mathx.Vec3{X: 1}

	s.Recycle(p)
	assert.Equal(t, 1, p.Idle(shape.Movement))

	again, err := p.Get(shape.Movement)
	require.NoError(t, err)
	assert.Same(t, b, again)
	assert.Equal(t, mathx.Zero, again.Movement.Velocity)
	assert.False(t, again.Attached())
	assert.Equal(t, 1, p.Created(shape.Movement))
}

func TestFactoryReusesShapes(t *testing.T) {
	_, f := setup(t)
	s, err := f.Get(0, 0)
	require.NoError(t, err)
	s.Position = mathx.Vec3{X: 5}
	s.Recycle(shape.NewPools())
	assert.Equal(t, 1, f.Idle(0))

	again, err := f.Get(0, 0)
	require.NoError(t, err)
	assert.Same(t, s, again)
	assert.Equal(t, mathx.Zero, again.Position)
	assert.Same(t, f, again.OriginFactory())

	_, err = f.Get(5, 0)
	assert.ErrorIs(t, err, shape.ErrUnknownShape)
	_, err = f.Get(0, 9)
	assert.ErrorIs(t, err, shape.ErrUnknownMaterial)
}

func TestMovementAndRotation(t *testing.T) {
	r, f := setup(t)
	s := add(t, r, f)
	s.AddBehavior(r.Pools(), shape.Movement).Movement.Velocity = mathx.Vec3{X: 2}
	s.AddBehavior(r.Pools(), shape.Rotation).Rotation.AngularVelocity = mathx.Vec3{Y: 90}

	r.Tick(0.5)

	assert.True(t, s.Position.ApproxEqual(mathx.Vec3{X: 1}, eps))
	forward := s.Rotation.Rotate(mathx.Forward)
	assert.True(t, forward.ApproxEqual(mathx.Euler(mathx.Vec3{Y: 45}).Rotate(mathx.Forward), eps))
}

func TestOscillationAppliesDelta(t *testing.T) {
	r, f := setup(t)
	s := add(t, r, f)
	o := s.AddBehavior(r.Pools(), shape.Oscillation)
	o.Oscillation.Offset = mathx.Vec3{Y: 1}
	o.Oscillation.Frequency = 0.25

	for i := 0; i < 5; i++ {
		r.Tick(0.2)
		// The position always equals the last sample since the delta chain
		// starts from zero.
		assert.InDelta(t, o.Oscillation.Previous(), s.Position.Y, eps)
	}
}

func TestGrowingReachesOriginalScale(t *testing.T) {
	r, f := setup(t)
	s := add(t, r, f)
	s.Scale = mathx.Vec3{X: 2, Y: 2, Z: 2}
	s.AddBehavior(r.Pools(), shape.Growing).InitGrowing(s, 1)
	assert.Equal(t, mathx.Zero, s.Scale)

	r.Tick(0.5)
	assert.InDelta(t, 2*mathx.Smoothstep(0.5), s.Scale.X, eps)
	require.NotNil(t, find(s, shape.Growing))

	r.Tick(0.5)
	assert.Equal(t, mathx.Vec3{X: 2, Y: 2, Z: 2}, s.Scale)
	assert.Nil(t, find(s, shape.Growing))
}

func TestLifecycleScenario(t *testing.T) {
	r, f := setup(t)
	s := add(t, r, f)
	s.AddBehavior(r.Pools(), shape.Lifecycle).InitLifecycle(r, s, 1, 2, 0.5)
	require.NotNil(t, find(s, shape.Growing))
	assert.Equal(t, mathx.Zero, s.Scale)

	r.Tick(0.5)
	r.Tick(0.5)
	assert.Equal(t, mathx.One, s.Scale, "fully grown at age 1")
	assert.Nil(t, find(s, shape.Growing))

	for i := 0; i < 3; i++ {
		r.Tick(0.5)
	}
	assert.False(t, r.IsMarkedAsDying(s), "still adult at age 2.5")
	require.NotNil(t, find(s, shape.Lifecycle))

	r.Tick(0.5)
	dying := find(s, shape.Dying)
	require.NotNil(t, dying, "dying starts at age 3")
	assert.InDelta(t, 0.5, dying.Dying.Duration(), eps)
	assert.Nil(t, find(s, shape.Lifecycle))
	assert.True(t, r.IsMarkedAsDying(s))

	r.Tick(0.5)
	assert.False(t, s.Registered(), "killed at age 3.5")
	assert.Equal(t, 0, r.Len())
}

func TestSatelliteOrbitsFocal(t *testing.T) {
	r, f := setup(t)
	focal := add(t, r, f)
	focal.Position = mathx.Vec3{X: 10}
	sat := add(t, r, f)
	sat.AddBehavior(r.Pools(), shape.Satellite).InitSatellite(r, sat, focal, 3, 0.5)

	require.NotNil(t, find(sat, shape.Rotation))
	for i := 0; i < 10; i++ {
		r.Tick(0.1)
		assert.InDelta(t, 3, sat.Position.Sub(focal.Position).Len(), eps)
	}
}

func TestSatelliteDegradesToMovement(t *testing.T) {
	r, f := setup(t)
	focal := add(t, r, f)
	sat := add(t, r, f)
	sat.AddBehavior(r.Pools(), shape.Satellite).InitSatellite(r, sat, focal, 2, 0.25)

	const dt = 0.1
	r.Tick(dt)
	before := sat.Position
	r.Tick(dt)
	after := sat.Position
	r.Kill(focal)

	r.Tick(dt)

	assert.Nil(t, find(sat, shape.Satellite))
	m := find(sat, shape.Movement)
	require.NotNil(t, m)
	want := after.Sub(before).Mul(1 / dt)
	assert.True(t, m.Movement.Velocity.ApproxEqual(want, 1e-3))
	assert.True(t, sat.Position.ApproxEqual(after.Add(want.Mul(dt)), 1e-3))
}

func TestSaveLoadKeepsBehaviorState(t *testing.T) {
	r, f := setup(t)
	s := add(t, r, f)
	s.Position = mathx.Vec3{X: 1, Y: 2, Z: 3}
	o := s.AddBehavior(r.Pools(), shape.Oscillation)
	o.Oscillation.Offset = mathx.Vec3{Z: 1}
	o.Oscillation.Frequency = 2
	s.AddBehavior(r.Pools(), shape.Lifecycle).InitLifecycle(r, s, 0, 4, 1)
	r.Tick(0.3)

	w := codec.NewWriter(codec.SaveVersion)
	s.Save(w, r)

	rd, err := codec.NewReader(w.Bytes())
	require.NoError(t, err)
	loaded := shape.New(1)
	require.NoError(t, loaded.Load(rd, r.Pools()))
	assert.Zero(t, rd.Remaining())

	assert.Equal(t, s.Position, loaded.Position)
	assert.Equal(t, s.Age(), loaded.Age())
	require.Len(t, loaded.Behaviors(), 2)
	lo := loaded.Behaviors()[0]
	assert.Equal(t, shape.Oscillation, lo.Type)
	assert.Equal(t, o.Oscillation.Previous(), lo.Oscillation.Previous())
	assert.Equal(t, o.Oscillation.Frequency, lo.Oscillation.Frequency)
	assert.Equal(t, float32(4), loaded.Behaviors()[1].Lifecycle.DyingAge())
}

func TestLoadRejectsUnknownBehaviorTag(t *testing.T) {
	w := codec.NewWriter(codec.SaveVersion)
	w.WriteVec3(mathx.Zero)
	w.WriteQuat(mathx.Identity)
	w.WriteVec3(mathx.One)
	w.WriteInt(1)
	w.WriteColor(mathx.White)
	w.WriteFloat(0)
	w.WriteInt(1)
	w.WriteInt(99)

	rd, err := codec.NewReader(w.Bytes())
	require.NoError(t, err)
	err = shape.New(1).Load(rd, shape.NewPools())
	assert.ErrorIs(t, err, shape.ErrUnknownBehaviorType)
}

func TestLoadPadsAndTruncatesColors(t *testing.T) {
	red := mathx.Color{R: 1, A: 1}
	w := codec.NewWriter(codec.SaveVersion)
	w.WriteVec3(mathx.Zero)
	w.WriteQuat(mathx.Identity)
	w.WriteVec3(mathx.One)
	w.WriteInt(3)
	w.WriteColor(red)
	w.WriteColor(red)
	w.WriteColor(red)
	w.WriteFloat(0)
	w.WriteInt(0)

	rd, err := codec.NewReader(w.Bytes())
	require.NoError(t, err)
	two := shape.New(2)
	require.NoError(t, two.Load(rd, shape.NewPools()))
	assert.Equal(t, red, two.Color(1))
	assert.Zero(t, rd.Remaining())

	w = codec.NewWriter(codec.SaveVersion)
	w.WriteVec3(mathx.Zero)
	w.WriteQuat(mathx.Identity)
	w.WriteVec3(mathx.One)
	w.WriteInt(1)
	w.WriteColor(red)
	w.WriteFloat(0)
	w.WriteInt(0)
	rd, err = codec.NewReader(w.Bytes())
	require.NoError(t, err)
	three := shape.New(3)
	require.NoError(t, three.Load(rd, shape.NewPools()))
	assert.Equal(t, red, three.Color(0))
	assert.Equal(t, mathx.White, three.Color(2))
}

func TestInstanceSaveIndex(t *testing.T) {
	r, f := setup(t)
	a := add(t, r, f)
	b := add(t, r, f)
	inst := shape.InstanceOf(b)
	assert.Equal(t, int32(1), inst.SaveIndex(r))

	r.Kill(a)
	assert.Equal(t, int32(0), inst.SaveIndex(r), "index follows the swap")

	r.Kill(b)
	assert.Equal(t, int32(-1), inst.SaveIndex(r))
	assert.False(t, inst.IsValid(r))

	var none shape.Instance
	assert.False(t, none.IsValid(r))
	assert.Equal(t, int32(-1), none.SaveIndex(r))
}
