// Package spawn builds new shapes inside spawn zones and wires up their
// behaviours from a Configuration.
package spawn

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/shapeflow/shapesim/internal/mathx"
	"github.com/shapeflow/shapesim/internal/shape"
)

var (
	ErrNoFactories = errors.New("spawn configuration has no factories")
	ErrNoZones     = errors.New("composite zone has no sub-zones")
)

// Host is the simulation shapes are spawned into. roster.Roster satisfies it.
type Host interface {
	shape.Context
	Add(s *shape.Shape) error
}

// Zone produces spawn points and spawns configured shapes at them.
type Zone interface {
	Name() string
	SpawnPoint(rng *rand.Rand) mathx.Vec3
	SpawnShape(h Host) error
}

// Base carries what every zone shares: where it is, what it spawns and an
// optional parameter hook.
type Base struct {
	Label     string
	Transform mathx.Transform
	Config    Configuration
	Adjuster  Adjuster
}

func (b *Base) Name() string { return b.Label }

// spawn builds one shape at a point drawn from point, plus its satellites.
func (b *Base) spawn(h Host, point func(*rand.Rand) mathx.Vec3) error {
	cfg := &b.Config
	if len(cfg.Factories) == 0 {
		return fmt.Errorf("zone %q: %w", b.Label, ErrNoFactories)
	}
	rng := h.Rand()
	f := cfg.Factories[rng.IntN(len(cfg.Factories))]
	s, err := f.GetRandom(rng)
	if err != nil {
		return fmt.Errorf("zone %q: %w", b.Label, err)
	}

	p := cfg.roll(rng)
	p.Zone = b.Label
	p.Factory = f.ID()
	p.ShapeID = s.ShapeID()
	p.Material = s.MaterialID()
	p.Position = point(rng)
	if b.Adjuster != nil {
		if err := b.Adjuster.AdjustSpawn(&p); err != nil {
			s.Recycle(h.Pools())
			return fmt.Errorf("zone %q: adjust spawn: %w", b.Label, err)
		}
		if p.Material >= 0 && int(p.Material) < f.MaterialCount() {
			s.SetMaterial(p.Material)
		}
	}

	s.Position = p.Position
	s.Rotation = mathx.RandomRotation(rng)
	s.Scale = mathx.One.Mul(p.Scale)
	b.setupColor(s, rng)
	if err := h.Add(s); err != nil {
		s.Recycle(h.Pools())
		return err
	}

	if p.AngularSpeed != 0 {
		s.AddBehavior(h.Pools(), shape.Rotation).Rotation.AngularVelocity =
			mathx.OnUnitSphere(rng).Mul(p.AngularSpeed)
	}
	if p.Speed != 0 {
		s.AddBehavior(h.Pools(), shape.Movement).Movement.Velocity =
			b.direction(cfg.Movement, s, rng).Mul(p.Speed)
	}
	if p.OscillationAmplitude != 0 && p.OscillationFrequency != 0 {
		o := s.AddBehavior(h.Pools(), shape.Oscillation)
		o.Oscillation.Offset = b.direction(cfg.OscillationDirection, s, rng).Mul(p.OscillationAmplitude)
		o.Oscillation.Frequency = p.OscillationFrequency
	}

	for i := 0; i < p.Satellites; i++ {
		if err := b.spawnSatellite(h, s, &p); err != nil {
			return err
		}
	}
	setupLifecycle(h, s, &p)
	return nil
}

func (b *Base) spawnSatellite(h Host, focal *shape.Shape, p *Params) error {
	cfg := &b.Config
	rng := h.Rand()
	f := cfg.Factories[rng.IntN(len(cfg.Factories))]
	s, err := f.GetRandom(rng)
	if err != nil {
		return fmt.Errorf("zone %q: satellite: %w", b.Label, err)
	}
	s.Rotation = mathx.RandomRotation(rng)
	s.Scale = focal.Scale.Mul(cfg.Satellite.RelativeScale.Random(rng))
	b.setupColor(s, rng)
	if err := h.Add(s); err != nil {
		s.Recycle(h.Pools())
		return err
	}
	s.AddBehavior(h.Pools(), shape.Satellite).InitSatellite(h, s, focal,
		cfg.Satellite.OrbitRadius.Random(rng),
		cfg.Satellite.OrbitFrequency.Random(rng),
	)
	setupLifecycle(h, s, p)
	return nil
}

// setupLifecycle attaches the cheapest behaviour that covers the rolled
// phases: Growing alone, Dying alone, or a full Lifecycle.
func setupLifecycle(h Host, s *shape.Shape, p *Params) {
	switch {
	case p.Growing > 0 && p.Adult <= 0 && p.Dying <= 0:
		s.AddBehavior(h.Pools(), shape.Growing).InitGrowing(s, p.Growing)
	case p.Growing > 0 || p.Adult > 0:
		s.AddBehavior(h.Pools(), shape.Lifecycle).InitLifecycle(h, s, p.Growing, p.Adult, p.Dying)
	case p.Dying > 0:
		s.AddBehavior(h.Pools(), shape.Dying).InitDying(h, s, p.Dying)
	}
}

func (b *Base) setupColor(s *shape.Shape, rng *rand.Rand) {
	if b.Config.UniformColor {
		s.SetColor(b.Config.Color.Random(rng))
		return
	}
	for i := 0; i < s.ColorCount(); i++ {
		s.SetColorAt(i, b.Config.Color.Random(rng))
	}
}

func (b *Base) direction(d Direction, s *shape.Shape, rng *rand.Rand) mathx.Vec3 {
	switch d {
	case Upward:
		return b.Transform.Up()
	case Outward:
		return s.Position.Sub(b.Transform.Position).Normalized()
	case Random:
		return mathx.OnUnitSphere(rng)
	default:
		return b.Transform.Forward()
	}
}
