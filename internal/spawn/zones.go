package spawn

import (
	"math/rand/v2"

	"github.com/shapeflow/shapesim/internal/codec"
	"github.com/shapeflow/shapesim/internal/mathx"
)

// SphereZone spawns inside a unit sphere, or on its surface, mapped through
// the zone transform.
type SphereZone struct {
	Base
	SurfaceOnly bool
}

func (z *SphereZone) SpawnPoint(rng *rand.Rand) mathx.Vec3 {
	if z.SurfaceOnly {
		return z.Transform.TransformPoint(mathx.OnUnitSphere(rng))
	}
	return z.Transform.TransformPoint(mathx.InsideUnitSphere(rng))
}

func (z *SphereZone) SpawnShape(h Host) error { return z.spawn(h, z.SpawnPoint) }

// CubeZone spawns inside a unit cube centred on the zone, or on one of its
// faces.
type CubeZone struct {
	Base
	SurfaceOnly bool
}

func (z *CubeZone) SpawnPoint(rng *rand.Rand) mathx.Vec3 {
	p := [3]float32{
		mathx.Range(rng, -0.5, 0.5),
		mathx.Range(rng, -0.5, 0.5),
		mathx.Range(rng, -0.5, 0.5),
	}
	if z.SurfaceOnly {
		axis := rng.IntN(3)
		if p[axis] < 0 {
			p[axis] = -0.5
		} else {
			p[axis] = 0.5
		}
	}
	return z.Transform.TransformPoint(mathx.Vec3{X: p[0], Y: p[1], Z: p[2]})
}

func (z *CubeZone) SpawnShape(h Host) error { return z.spawn(h, z.SpawnPoint) }

// CompositeZone spreads spawns over sub-zones, either round-robin or at
// random. With OverrideConfig it spawns with its own configuration at a
// sub-zone's point; otherwise the chosen sub-zone spawns with its own.
type CompositeZone struct {
	Base
	Zones          []Zone
	Sequential     bool
	OverrideConfig bool

	next int
}

func (z *CompositeZone) pick(rng *rand.Rand) Zone {
	if z.Sequential {
		i := z.next
		z.next = (z.next + 1) % len(z.Zones)
		return z.Zones[i]
	}
	return z.Zones[rng.IntN(len(z.Zones))]
}

// SpawnPoint returns Zero when there are no sub-zones.
func (z *CompositeZone) SpawnPoint(rng *rand.Rand) mathx.Vec3 {
	if len(z.Zones) == 0 {
		return mathx.Zero
	}
	return z.pick(rng).SpawnPoint(rng)
}

func (z *CompositeZone) SpawnShape(h Host) error {
	if len(z.Zones) == 0 {
		return ErrNoZones
	}
	if z.OverrideConfig {
		return z.spawn(h, z.SpawnPoint)
	}
	return z.pick(h.Rand()).SpawnShape(h)
}

// Cursor is the index of the next sub-zone in sequential mode.
func (z *CompositeZone) Cursor() int { return z.next }

// Zones persist their transform as part of the level state block. They do
// not move on their own.

func (b *Base) GameUpdate(dt float32) {}

func (b *Base) Save(w *codec.Writer) { w.WriteTransform(b.Transform) }

func (b *Base) Load(r *codec.Reader) func() {
	t := r.ReadTransform()
	return func() { b.Transform = t }
}

// Save writes the transform, from VersionZoneTransform on, and the
// sequential cursor.
func (z *CompositeZone) Save(w *codec.Writer) {
	if w.Version() >= codec.VersionZoneTransform {
		z.Base.Save(w)
	}
	w.WriteInt(int32(z.next))
}

// Load reads the cursor. Streams before VersionZoneTransform carry only the
// cursor.
func (z *CompositeZone) Load(r *codec.Reader) func() {
	var base func()
	if r.Version() >= codec.VersionZoneTransform {
		base = z.Base.Load(r)
	}
	next := int(r.ReadInt())
	return func() {
		if base != nil {
			base()
		}
		if n := len(z.Zones); n > 0 {
			z.next = ((next % n) + n) % n
		} else {
			z.next = 0
		}
	}
}
