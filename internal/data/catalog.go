package data

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Vec3Entry is a YAML triple, written as [x, y, z].
type Vec3Entry [3]float32

// RangeEntry is a float range, written as {min: a, max: b}. A bare scalar is
// a fixed value.
type RangeEntry struct {
	Min float32 `yaml:"min"`
	Max float32 `yaml:"max"`
}

func (r *RangeEntry) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		var v float32
		if err := n.Decode(&v); err != nil {
			return err
		}
		r.Min, r.Max = v, v
		return nil
	}
	type plain RangeEntry
	return n.Decode((*plain)(r))
}

type IntRangeEntry struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

func (r *IntRangeEntry) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		var v int
		if err := n.Decode(&v); err != nil {
			return err
		}
		r.Min, r.Max = v, v
		return nil
	}
	type plain IntRangeEntry
	return n.Decode((*plain)(r))
}

// PrefabEntry is one shape category of a factory.
type PrefabEntry struct {
	Name       string `yaml:"name"`
	ColorSlots int    `yaml:"color_slots"`
}

// FactoryEntry defines a shape factory. The id is what save streams store.
type FactoryEntry struct {
	ID        int32         `yaml:"id"`
	Name      string        `yaml:"name"`
	Recycle   bool          `yaml:"recycle"`
	Materials []string      `yaml:"materials"`
	Prefabs   []PrefabEntry `yaml:"prefabs"`
}

type ColorEntry struct {
	Hue        RangeEntry `yaml:"hue"`
	Saturation RangeEntry `yaml:"saturation"`
	Value      RangeEntry `yaml:"value"`
}

type OscillationEntry struct {
	Direction string     `yaml:"direction"`
	Amplitude RangeEntry `yaml:"amplitude"`
	Frequency RangeEntry `yaml:"frequency"`
}

type SatelliteEntry struct {
	Amount         IntRangeEntry `yaml:"amount"`
	RelativeScale  RangeEntry    `yaml:"relative_scale"`
	OrbitRadius    RangeEntry    `yaml:"orbit_radius"`
	OrbitFrequency RangeEntry    `yaml:"orbit_frequency"`
}

type LifecycleEntry struct {
	Growing RangeEntry `yaml:"growing"`
	Adult   RangeEntry `yaml:"adult"`
	Dying   RangeEntry `yaml:"dying"`
}

// SpawnEntry is a zone's spawn configuration.
type SpawnEntry struct {
	Factories    []int32          `yaml:"factories"`
	Movement     string           `yaml:"movement_direction"`
	Speed        RangeEntry       `yaml:"speed"`
	AngularSpeed RangeEntry       `yaml:"angular_speed"`
	Scale        RangeEntry       `yaml:"scale"`
	Color        ColorEntry       `yaml:"color"`
	UniformColor bool             `yaml:"uniform_color"`
	Oscillation  OscillationEntry `yaml:"oscillation"`
	Satellite    SatelliteEntry   `yaml:"satellite"`
	Lifecycle    LifecycleEntry   `yaml:"lifecycle"`
}

// ZoneEntry defines a spawn zone. Sub-zones without a spawn block inherit
// their parent's.
type ZoneEntry struct {
	Kind           string      `yaml:"kind"` // sphere, cube, composite
	Name           string      `yaml:"name"`
	Position       Vec3Entry   `yaml:"position"`
	Rotation       Vec3Entry   `yaml:"rotation"` // euler degrees
	Scale          *Vec3Entry  `yaml:"scale"`
	SurfaceOnly    bool        `yaml:"surface_only"`
	Sequential     bool        `yaml:"sequential"`
	OverrideConfig bool        `yaml:"override_config"`
	Persistent     bool        `yaml:"persistent"` // saved in the level state block
	Spawn          *SpawnEntry `yaml:"spawn"`
	Zones          []ZoneEntry `yaml:"zones"`
}

// ObjectEntry defines a level object saved with the level state.
type ObjectEntry struct {
	Kind            string     `yaml:"kind"` // rotating
	Name            string     `yaml:"name"`
	Position        Vec3Entry  `yaml:"position"`
	Rotation        Vec3Entry  `yaml:"rotation"`
	Scale           *Vec3Entry `yaml:"scale"`
	AngularVelocity Vec3Entry  `yaml:"angular_velocity"`
}

type LevelEntry struct {
	ID              int32         `yaml:"id"`
	Name            string        `yaml:"name"`
	PopulationLimit int           `yaml:"population_limit"`
	Zone            ZoneEntry     `yaml:"zone"`
	Objects         []ObjectEntry `yaml:"objects"`
}

// Catalog is everything a simulation is built from.
type Catalog struct {
	Factories []FactoryEntry `yaml:"factories"`
	Levels    []LevelEntry   `yaml:"levels"`
}

var ErrEmptyCatalog = errors.New("catalog defines no factories or no levels")

// LoadCatalog loads the catalog YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(raw)
}

func ParseCatalog(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Factories) == 0 || len(c.Levels) == 0 {
		return nil, ErrEmptyCatalog
	}
	return &c, nil
}

// Count returns the number of levels defined.
func (c *Catalog) Count() int { return len(c.Levels) }
