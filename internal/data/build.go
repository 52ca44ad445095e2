package data

import (
	"fmt"

	"github.com/shapeflow/shapesim/internal/level"
	"github.com/shapeflow/shapesim/internal/mathx"
	"github.com/shapeflow/shapesim/internal/shape"
	"github.com/shapeflow/shapesim/internal/spawn"
	"go.uber.org/zap"
)

func (v Vec3Entry) vec() mathx.Vec3 { return mathx.Vec3{X: v[0], Y: v[1], Z: v[2]} }

func (r RangeEntry) float() spawn.FloatRange { return spawn.FloatRange{Min: r.Min, Max: r.Max} }

func transform(pos, rot Vec3Entry, scale *Vec3Entry) mathx.Transform {
	t := mathx.NewTransform()
	t.Position = pos.vec()
	t.Rotation = mathx.Euler(rot.vec())
	if scale != nil {
		t.Scale = scale.vec()
	}
	return t
}

// BuildFactories creates one factory per entry.
func (c *Catalog) BuildFactories(log *zap.Logger) (*shape.FactoryRegistry, error) {
	reg := shape.NewFactoryRegistry()
	for _, e := range c.Factories {
		if len(e.Prefabs) == 0 {
			return nil, fmt.Errorf("factory %d (%s): no prefabs", e.ID, e.Name)
		}
		prefabs := make([]shape.Prefab, len(e.Prefabs))
		for i, p := range e.Prefabs {
			prefabs[i] = shape.Prefab{Name: p.Name, ColorSlots: max(p.ColorSlots, 1)}
		}
		f := shape.NewFactory(e.ID, e.Name, prefabs, e.Materials, e.Recycle, log.Named("factory"))
		if err := reg.Register(f); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// BuildLevels wires every level to the factories in reg. adj may be nil.
func (c *Catalog) BuildLevels(reg *shape.FactoryRegistry, adj spawn.Adjuster) (*level.Registry, error) {
	levels := level.NewRegistry()
	for _, e := range c.Levels {
		b := levelBuilder{factories: reg, adjuster: adj}
		zone, err := b.zone(e.Zone, nil)
		if err != nil {
			return nil, fmt.Errorf("level %d (%s): %w", e.ID, e.Name, err)
		}
		for _, o := range e.Objects {
			obj, err := buildObject(o)
			if err != nil {
				return nil, fmt.Errorf("level %d (%s): %w", e.ID, e.Name, err)
			}
			b.objects = append(b.objects, obj)
		}
		l := &level.Level{
			ID:              e.ID,
			Name:            e.Name,
			PopulationLimit: e.PopulationLimit,
			Zone:            zone,
			Objects:         b.objects,
		}
		if err := levels.Register(l); err != nil {
			return nil, err
		}
	}
	return levels, nil
}

type levelBuilder struct {
	factories *shape.FactoryRegistry
	adjuster  spawn.Adjuster
	objects   []level.Object
}

// zone builds e and its sub-zones depth first. Persistent zones become level
// objects in that order.
func (b *levelBuilder) zone(e ZoneEntry, inherited *SpawnEntry) (spawn.Zone, error) {
	se := e.Spawn
	if se == nil {
		se = inherited
	}
	if se == nil {
		return nil, fmt.Errorf("zone %q: no spawn configuration", e.Name)
	}
	cfg, err := b.config(se)
	if err != nil {
		return nil, fmt.Errorf("zone %q: %w", e.Name, err)
	}
	base := spawn.Base{
		Label:     e.Name,
		Transform: transform(e.Position, e.Rotation, e.Scale),
		Config:    cfg,
		Adjuster:  b.adjuster,
	}

	var z interface {
		spawn.Zone
		level.Object
	}
	switch e.Kind {
	case "", "sphere":
		z = &spawn.SphereZone{Base: base, SurfaceOnly: e.SurfaceOnly}
	case "cube":
		z = &spawn.CubeZone{Base: base, SurfaceOnly: e.SurfaceOnly}
	case "composite":
		if len(e.Zones) == 0 {
			return nil, fmt.Errorf("zone %q: %w", e.Name, spawn.ErrNoZones)
		}
		cz := &spawn.CompositeZone{Base: base, Sequential: e.Sequential, OverrideConfig: e.OverrideConfig}
		if e.Persistent {
			b.objects = append(b.objects, cz)
		}
		for _, sub := range e.Zones {
			child, err := b.zone(sub, se)
			if err != nil {
				return nil, err
			}
			cz.Zones = append(cz.Zones, child)
		}
		return cz, nil
	default:
		return nil, fmt.Errorf("zone %q: unknown kind %q", e.Name, e.Kind)
	}
	if e.Persistent {
		b.objects = append(b.objects, z)
	}
	return z, nil
}

func (b *levelBuilder) config(e *SpawnEntry) (spawn.Configuration, error) {
	var cfg spawn.Configuration
	if len(e.Factories) == 0 {
		return cfg, spawn.ErrNoFactories
	}
	for _, id := range e.Factories {
		f, err := b.factories.Get(id)
		if err != nil {
			return cfg, err
		}
		cfg.Factories = append(cfg.Factories, f)
	}
	var err error
	if cfg.Movement, err = spawn.ParseDirection(e.Movement); err != nil {
		return cfg, err
	}
	if cfg.OscillationDirection, err = spawn.ParseDirection(e.Oscillation.Direction); err != nil {
		return cfg, err
	}
	cfg.Speed = e.Speed.float()
	cfg.AngularSpeed = e.AngularSpeed.float()
	cfg.Scale = e.Scale.float()
	if cfg.Scale == (spawn.FloatRange{}) {
		cfg.Scale = spawn.FloatRange{Min: 1, Max: 1}
	}
	cfg.Color = spawn.ColorRangeHSV{
		Hue:        e.Color.Hue.float(),
		Saturation: e.Color.Saturation.float(),
		Value:      e.Color.Value.float(),
	}
	cfg.UniformColor = e.UniformColor
	cfg.OscillationAmplitude = e.Oscillation.Amplitude.float()
	cfg.OscillationFrequency = e.Oscillation.Frequency.float()
	cfg.Satellite = spawn.SatelliteConfiguration{
		Amount:         spawn.IntRange{Min: e.Satellite.Amount.Min, Max: e.Satellite.Amount.Max},
		RelativeScale:  e.Satellite.RelativeScale.float(),
		OrbitRadius:    e.Satellite.OrbitRadius.float(),
		OrbitFrequency: e.Satellite.OrbitFrequency.float(),
	}
	cfg.Lifecycle = spawn.LifecycleConfiguration{
		Growing: e.Lifecycle.Growing.float(),
		Adult:   e.Lifecycle.Adult.float(),
		Dying:   e.Lifecycle.Dying.float(),
	}
	return cfg, nil
}

func buildObject(e ObjectEntry) (level.Object, error) {
	switch e.Kind {
	case "", "rotating":
		return &level.RotatingObject{
			Name:            e.Name,
			Transform:       transform(e.Position, e.Rotation, e.Scale),
			AngularVelocity: e.AngularVelocity.vec(),
		}, nil
	}
	return nil, fmt.Errorf("object %q: unknown kind %q", e.Name, e.Kind)
}
