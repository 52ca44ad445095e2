package shape

import "github.com/shapeflow/shapesim/internal/mathx"

// GrowingState scales a shape from zero up to its spawn scale.
type GrowingState struct {
	originalScale mathx.Vec3
	duration      float32
}

// InitGrowing remembers the current scale as the target and collapses s to
// zero.
func (b *Behavior) InitGrowing(s *Shape, duration float32) {
	b.Growing.originalScale = s.Scale
	b.Growing.duration = duration
	s.Scale = mathx.Zero
}

func (g *GrowingState) tick(s *Shape) bool {
	if s.Age() < g.duration {
		k := mathx.Smoothstep(s.Age() / g.duration)
		s.Scale = g.originalScale.Mul(k)
		return true
	}
	s.Scale = g.originalScale
	return false
}

func (g *GrowingState) Duration() float32 { return g.duration }

// DyingState shrinks a shape to zero and then kills it. It never completes on
// its own: a dying shape always ends in Kill.
type DyingState struct {
	originalScale mathx.Vec3
	duration      float32
	dyingAge      float32
}

// InitDying starts shrinking s now and moves it to the dying partition.
func (b *Behavior) InitDying(ctx Context, s *Shape, duration float32) {
	b.Dying.originalScale = s.Scale
	b.Dying.duration = duration
	b.Dying.dyingAge = s.Age()
	ctx.MarkAsDying(s)
}

func (d *DyingState) tick(ctx Context, s *Shape) bool {
	elapsed := s.Age() - d.dyingAge
	if elapsed < d.duration {
		k := mathx.Smoothstep(1 - elapsed/d.duration)
		s.Scale = d.originalScale.Mul(k)
		return true
	}
	ctx.Kill(s)
	return true
}

func (d *DyingState) Duration() float32 { return d.duration }
func (d *DyingState) DyingAge() float32 { return d.dyingAge }

// LifecycleState drives grow → adult → dying. It attaches Growing up front and
// hands over to Dying (or kills the shape) once the adult phase is over.
type LifecycleState struct {
	adultDuration float32
	dyingDuration float32
	dyingAge      float32
}

func (b *Behavior) InitLifecycle(ctx Context, s *Shape, growingDuration, adultDuration, dyingDuration float32) {
	l := &b.Lifecycle
	l.adultDuration = adultDuration
	l.dyingDuration = dyingDuration
	l.dyingAge = growingDuration + adultDuration

	if growingDuration > 0 {
		s.AddBehavior(ctx.Pools(), Growing).InitGrowing(s, growingDuration)
	}
}

func (l *LifecycleState) tick(ctx Context, s *Shape) bool {
	if s.Age() < l.dyingAge {
		return true
	}
	if l.dyingDuration <= 0 {
		ctx.Kill(s)
		return true
	}
	// Shorten the dying phase by however far this tick overshot dyingAge.
	s.AddBehavior(ctx.Pools(), Dying).InitDying(ctx, s, l.dyingDuration+(l.dyingAge-s.Age()))
	return false
}

func (l *LifecycleState) DyingAge() float32 { return l.dyingAge }
