package shape

import (
	"fmt"

	"github.com/shapeflow/shapesim/internal/codec"
)

// BehaviorType tags the variant a Behavior holds. The numeric values are the
// tags written to save streams and must never be reordered.
type BehaviorType int32

const (
	Movement BehaviorType = iota
	Rotation
	Oscillation
	Satellite
	Growing
	Dying
	Lifecycle

	behaviorTypeCount
)

func (t BehaviorType) Valid() bool { return t >= 0 && t < behaviorTypeCount }

func (t BehaviorType) String() string {
	switch t {
	case Movement:
		return "Movement"
	case Rotation:
		return "Rotation"
	case Oscillation:
		return "Oscillation"
	case Satellite:
		return "Satellite"
	case Growing:
		return "Growing"
	case Dying:
		return "Dying"
	case Lifecycle:
		return "Lifecycle"
	default:
		return fmt.Sprintf("Unknown(%d)", int32(t))
	}
}

// Behavior is one unit of per-tick logic attached to a shape. Type selects
// which of the variant states below is live; the others stay zero. Behaviours
// come from Pools and go back through Recycle.
type Behavior struct {
	Type     BehaviorType
	attached bool

	Movement    MovementState
	Rotation    RotationState
	Oscillation OscillationState
	Satellite   SatelliteState
	Growing     GrowingState
	Dying       DyingState
	Lifecycle   LifecycleState
}

// Tick advances the behaviour by dt seconds. It returns false once the
// behaviour has completed and should be detached.
func (b *Behavior) Tick(ctx Context, s *Shape, dt float32) bool {
	switch b.Type {
	case Movement:
		return b.Movement.tick(s, dt)
	case Rotation:
		return b.Rotation.tick(s, dt)
	case Oscillation:
		return b.Oscillation.tick(ctx, s)
	case Satellite:
		return b.Satellite.tick(ctx, s, dt)
	case Growing:
		return b.Growing.tick(s)
	case Dying:
		return b.Dying.tick(ctx, s)
	case Lifecycle:
		return b.Lifecycle.tick(ctx, s)
	}
	return false
}

// Save writes the variant payload. The type tag is written by the shape.
func (b *Behavior) Save(w *codec.Writer, ctx Context) {
	switch b.Type {
	case Movement:
		w.WriteVec3(b.Movement.Velocity)
	case Rotation:
		w.WriteVec3(b.Rotation.AngularVelocity)
	case Oscillation:
		o := &b.Oscillation
		w.WriteVec3(o.Offset)
		w.WriteFloat(o.Frequency)
		w.WriteFloat(o.previous)
	case Satellite:
		st := &b.Satellite
		w.WriteInt(st.focal.SaveIndex(ctx))
		w.WriteFloat(st.frequency)
		w.WriteVec3(st.cosOffset)
		w.WriteVec3(st.sinOffset)
		w.WriteVec3(st.previousPosition)
	case Growing:
		w.WriteVec3(b.Growing.originalScale)
		w.WriteFloat(b.Growing.duration)
	case Dying:
		d := &b.Dying
		w.WriteVec3(d.originalScale)
		w.WriteFloat(d.duration)
		w.WriteFloat(d.dyingAge)
	case Lifecycle:
		l := &b.Lifecycle
		w.WriteFloat(l.adultDuration)
		w.WriteFloat(l.dyingDuration)
		w.WriteFloat(l.dyingAge)
	}
}

// Load reads the variant payload written by Save.
func (b *Behavior) Load(r *codec.Reader) {
	switch b.Type {
	case Movement:
		b.Movement.Velocity = r.ReadVec3()
	case Rotation:
		b.Rotation.AngularVelocity = r.ReadVec3()
	case Oscillation:
		o := &b.Oscillation
		o.Offset = r.ReadVec3()
		o.Frequency = r.ReadFloat()
		o.previous = r.ReadFloat()
	case Satellite:
		st := &b.Satellite
		st.focal = PendingInstance(r.ReadInt())
		st.frequency = r.ReadFloat()
		st.cosOffset = r.ReadVec3()
		st.sinOffset = r.ReadVec3()
		st.previousPosition = r.ReadVec3()
	case Growing:
		b.Growing.originalScale = r.ReadVec3()
		b.Growing.duration = r.ReadFloat()
	case Dying:
		d := &b.Dying
		d.originalScale = r.ReadVec3()
		d.duration = r.ReadFloat()
		d.dyingAge = r.ReadFloat()
	case Lifecycle:
		l := &b.Lifecycle
		l.adultDuration = r.ReadFloat()
		l.dyingDuration = r.ReadFloat()
		l.dyingAge = r.ReadFloat()
	}
}

// resolve runs in the second load pass, after every shape exists.
func (b *Behavior) resolve(ctx Context, s *Shape) {
	switch b.Type {
	case Satellite:
		b.Satellite.focal.Resolve(ctx)
	case Dying:
		ctx.MarkAsDying(s)
	}
}

// Recycle clears the behaviour and returns it to its pool.
func (b *Behavior) Recycle(p *Pools) {
	t := b.Type
	*b = Behavior{Type: t}
	p.reclaim(b)
}

// Attached reports whether a shape currently owns the behaviour.
func (b *Behavior) Attached() bool { return b.attached }
