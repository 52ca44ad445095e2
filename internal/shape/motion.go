package shape

import (
	"math"

	"github.com/shapeflow/shapesim/internal/mathx"
)

// MovementState moves the shape at a constant velocity (units per second).
type MovementState struct {
	Velocity mathx.Vec3
}

func (m *MovementState) tick(s *Shape, dt float32) bool {
	s.Position = s.Position.Add(m.Velocity.Mul(dt))
	return true
}

// RotationState spins the shape in its own frame (degrees per second).
type RotationState struct {
	AngularVelocity mathx.Vec3
}

func (r *RotationState) tick(s *Shape, dt float32) bool {
	s.Rotation = s.Rotation.Mul(mathx.Euler(r.AngularVelocity.Mul(dt))).Normalized()
	return true
}

// OscillationState offsets the position along Offset by a sine wave. Only the
// change since the previous tick is applied, so the previous sample is part
// of the saved state.
type OscillationState struct {
	Offset    mathx.Vec3
	Frequency float32

	previous float32
}

func (o *OscillationState) tick(ctx Context, s *Shape) bool {
	v := mathx.Sin(2*math.Pi*o.Frequency*ctx.Time() + s.Age())
	s.Position = s.Position.Add(o.Offset.Mul(v - o.previous))
	o.previous = v
	return true
}

// Previous is the sine sample applied on the last tick.
func (o *OscillationState) Previous() float32 { return o.previous }

// SatelliteState orbits a focal shape. When the focal shape goes away the
// satellite keeps its last orbital velocity as a Movement behaviour and
// detaches itself.
type SatelliteState struct {
	focal            Instance
	frequency        float32
	cosOffset        mathx.Vec3
	sinOffset        mathx.Vec3
	previousPosition mathx.Vec3
}

// InitSatellite sets up an orbit of the given radius and frequency around
// focal on a random plane, and spins s once per orbit.
func (b *Behavior) InitSatellite(ctx Context, s, focal *Shape, radius, frequency float32) {
	st := &b.Satellite
	st.focal = InstanceOf(focal)
	st.frequency = frequency

	rng := ctx.Rand()
	axis := mathx.OnUnitSphere(rng)
	for {
		st.cosOffset = axis.Cross(mathx.OnUnitSphere(rng)).Normalized()
		if st.cosOffset.SqrLen() >= 0.1 {
			break
		}
	}
	st.sinOffset = st.cosOffset.Cross(axis)
	st.cosOffset = st.cosOffset.Mul(radius)
	st.sinOffset = st.sinOffset.Mul(radius)

	s.AddBehavior(ctx.Pools(), Rotation).Rotation.AngularVelocity =
		s.Rotation.Inverse().Rotate(axis).Mul(-360 * frequency)

	st.place(s, focal)
	st.previousPosition = s.Position
}

func (st *SatelliteState) place(s, focal *Shape) {
	t := 2 * math.Pi * st.frequency * s.Age()
	s.Position = focal.Position.
		Add(st.cosOffset.Mul(mathx.Cos(t))).
		Add(st.sinOffset.Mul(mathx.Sin(t)))
}

func (st *SatelliteState) tick(ctx Context, s *Shape, dt float32) bool {
	if focal, err := ctx.Resolve(st.focal); err == nil {
		st.previousPosition = s.Position
		st.place(s, focal)
		return true
	}

	var velocity mathx.Vec3
	if dt > 0 {
		velocity = s.Position.Sub(st.previousPosition).Mul(1 / dt)
	}
	s.AddBehavior(ctx.Pools(), Movement).Movement.Velocity = velocity
	st.focal = Instance{}
	return false
}

// Focal is the handle of the orbited shape.
func (st *SatelliteState) Focal() Instance { return st.focal }

func (st *SatelliteState) Frequency() float32 { return st.frequency }

// PreviousPosition is the position before the last orbit step.
func (st *SatelliteState) PreviousPosition() mathx.Vec3 { return st.previousPosition }
