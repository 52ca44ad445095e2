package spawn

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/shapeflow/shapesim/internal/mathx"
	"github.com/shapeflow/shapesim/internal/shape"
)

// Direction selects how movement and oscillation vectors are oriented
// relative to the zone.
type Direction int

const (
	Forward Direction = iota
	Upward
	Outward
	Random
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Upward:
		return "upward"
	case Outward:
		return "outward"
	case Random:
		return "random"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection accepts the lower-case names used in catalog files. An empty
// string is Forward.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "forward":
		return Forward, nil
	case "upward", "up":
		return Upward, nil
	case "outward", "out":
		return Outward, nil
	case "random":
		return Random, nil
	}
	return Forward, fmt.Errorf("unknown direction %q", s)
}

// FloatRange is an inclusive-exclusive [Min, Max) interval.
type FloatRange struct {
	Min, Max float32
}

func (r FloatRange) Random(rng *rand.Rand) float32 {
	if r.Max <= r.Min {
		return r.Min
	}
	return mathx.Range(rng, r.Min, r.Max)
}

// IntRange is an inclusive [Min, Max] interval.
type IntRange struct {
	Min, Max int
}

func (r IntRange) Random(rng *rand.Rand) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.IntN(r.Max-r.Min+1)
}

// ColorRangeHSV draws opaque colours from hue, saturation and value ranges.
type ColorRangeHSV struct {
	Hue, Saturation, Value FloatRange
}

func (c ColorRangeHSV) Random(rng *rand.Rand) mathx.Color {
	return mathx.HSV(c.Hue.Random(rng), c.Saturation.Random(rng), c.Value.Random(rng))
}

type SatelliteConfiguration struct {
	Amount         IntRange
	RelativeScale  FloatRange
	OrbitRadius    FloatRange
	OrbitFrequency FloatRange
}

// LifecycleConfiguration holds the growing, adult and dying phase lengths in
// seconds. All zero means shapes live until destroyed.
type LifecycleConfiguration struct {
	Growing FloatRange
	Adult   FloatRange
	Dying   FloatRange
}

// Configuration describes what a zone spawns.
type Configuration struct {
	Factories []*shape.Factory

	Movement     Direction
	Speed        FloatRange
	AngularSpeed FloatRange
	Scale        FloatRange

	Color        ColorRangeHSV
	UniformColor bool

	OscillationDirection Direction
	OscillationAmplitude FloatRange
	OscillationFrequency FloatRange

	Satellite SatelliteConfiguration
	Lifecycle LifecycleConfiguration
}

// DefaultConfiguration spawns unit-scale, static shapes of any colour.
func DefaultConfiguration(factories ...*shape.Factory) Configuration {
	return Configuration{
		Factories: factories,
		Scale:     FloatRange{Min: 0.5, Max: 1},
		Color: ColorRangeHSV{
			Hue:        FloatRange{Min: 0, Max: 1},
			Saturation: FloatRange{Min: 0.5, Max: 1},
			Value:      FloatRange{Min: 0.25, Max: 1},
		},
	}
}

// Params are the values rolled for one spawn. An Adjuster may rewrite them
// before the shape is built.
type Params struct {
	Zone     string
	Factory  int32
	ShapeID  int32
	Material int32
	Position mathx.Vec3

	Scale                float32
	Speed                float32
	AngularSpeed         float32
	OscillationAmplitude float32
	OscillationFrequency float32
	Satellites           int

	Growing float32
	Adult   float32
	Dying   float32
}

// Adjuster rewrites spawn parameters, for example from a script.
type Adjuster interface {
	AdjustSpawn(p *Params) error
}

func (c *Configuration) roll(rng *rand.Rand) Params {
	return Params{
		Scale:                c.Scale.Random(rng),
		Speed:                c.Speed.Random(rng),
		AngularSpeed:         c.AngularSpeed.Random(rng),
		OscillationAmplitude: c.OscillationAmplitude.Random(rng),
		OscillationFrequency: c.OscillationFrequency.Random(rng),
		Satellites:           c.Satellite.Amount.Random(rng),
		Growing:              c.Lifecycle.Growing.Random(rng),
		Adult:                c.Lifecycle.Adult.Random(rng),
		Dying:                c.Lifecycle.Dying.Random(rng),
	}
}
