// Package shape holds the simulated entity, its pooled behaviours and the
// factories shapes are drawn from.
package shape

import (
	"fmt"
	"math"

	"github.com/shapeflow/shapesim/internal/codec"
	"github.com/shapeflow/shapesim/internal/core/ecs"
	"github.com/shapeflow/shapesim/internal/mathx"
)

const unsetShapeID = math.MinInt32

// Shape is one simulated entity. Exactly one roster owns a registered shape;
// the shape exclusively owns its behaviours.
type Shape struct {
	Position mathx.Vec3
	Rotation mathx.Quat
	Scale    mathx.Vec3

	id         ecs.EntityID
	shapeID    int32
	materialID int32
	instanceID int32
	saveIndex  int
	age        float32
	registered bool
	factory    *Factory
	colors     []mathx.Color
	behaviors  []*Behavior
}

// New returns an unregistered shape with colorSlots renderer colours.
func New(colorSlots int) *Shape {
	if colorSlots < 1 {
		colorSlots = 1
	}
	s := &Shape{
		shapeID:   unsetShapeID,
		colors:    make([]mathx.Color, colorSlots),
		behaviors: make([]*Behavior, 0, 4),
	}
	s.resetTransform()
	s.SetColor(mathx.White)
	return s
}

func (s *Shape) resetTransform() {
	s.Position = mathx.Zero
	s.Rotation = mathx.Identity
	s.Scale = mathx.One
}

func (s *Shape) ShapeID() int32 { return s.shapeID }

// SetShapeID sets the category once. Later calls fail and leave it unchanged.
func (s *Shape) SetShapeID(id int32) error {
	if s.shapeID != unsetShapeID {
		return fmt.Errorf("%w: have %d, got %d", ErrShapeIDAlreadySet, s.shapeID, id)
	}
	s.shapeID = id
	return nil
}

func (s *Shape) MaterialID() int32       { return s.materialID }
func (s *Shape) SetMaterial(id int32)    { s.materialID = id }
func (s *Shape) InstanceID() int32       { return s.instanceID }
func (s *Shape) Age() float32            { return s.age }
func (s *Shape) ID() ecs.EntityID        { return s.id }
func (s *Shape) SaveIndex() int          { return s.saveIndex }
func (s *Shape) SetSaveIndex(i int)      { s.saveIndex = i }
func (s *Shape) Registered() bool        { return s.registered }
func (s *Shape) OriginFactory() *Factory { return s.factory }

// SetOriginFactory records where the shape came from, once.
func (s *Shape) SetOriginFactory(f *Factory) error {
	if s.factory != nil {
		return ErrFactoryAlreadySet
	}
	s.factory = f
	return nil
}

// Register binds the shape to a roster slot.
func (s *Shape) Register(id ecs.EntityID) error {
	if s.registered {
		return ErrAlreadyOwned
	}
	s.id = id
	s.registered = true
	return nil
}

func (s *Shape) Unregister() {
	s.id = 0
	s.registered = false
	s.saveIndex = -1
}

func (s *Shape) ColorCount() int                 { return len(s.colors) }
func (s *Shape) Color(i int) mathx.Color         { return s.colors[i] }
func (s *Shape) SetColorAt(i int, c mathx.Color) { s.colors[i] = c }

// SetColor paints every renderer slot.
func (s *Shape) SetColor(c mathx.Color) {
	for i := range s.colors {
		s.colors[i] = c
	}
}

// Behaviors returns the attached behaviours in tick order. The slice is the
// shape's own; callers must not modify it.
func (s *Shape) Behaviors() []*Behavior { return s.behaviors }

// AddBehavior pulls a behaviour of type t from p and appends it. t must be
// one of the declared BehaviorType constants.
func (s *Shape) AddBehavior(p *Pools, t BehaviorType) *Behavior {
	b, err := p.Get(t)
	if err != nil {
		panic(err)
	}
	b.attached = true
	s.behaviors = append(s.behaviors, b)
	return b
}

// Attach appends a behaviour obtained elsewhere.
func (s *Shape) Attach(b *Behavior) error {
	if b.attached {
		return fmt.Errorf("%w: %s", ErrBehaviorOwned, b.Type)
	}
	b.attached = true
	s.behaviors = append(s.behaviors, b)
	return nil
}

// GameUpdate ages the shape and ticks its behaviours in order. Completed
// behaviours are recycled and removed. Behaviours added during the loop are
// ticked in the same update.
func (s *Shape) GameUpdate(ctx Context, dt float32) {
	s.age += dt
	for i := 0; i < len(s.behaviors); i++ {
		b := s.behaviors[i]
		if b.Tick(ctx, s, dt) {
			continue
		}
		// The shape may have been recycled under us when Kill ran outside a pass.
		if i >= len(s.behaviors) || s.behaviors[i] != b {
			continue
		}
		b.Recycle(ctx.Pools())
		last := len(s.behaviors) - 1
		copy(s.behaviors[i:], s.behaviors[i+1:])
		s.behaviors[last] = nil
		s.behaviors = s.behaviors[:last]
		i--
	}
}

// Recycle resets the shape for reuse, bumps its generation so outstanding
// Instances go stale, and hands it back to its origin factory.
func (s *Shape) Recycle(p *Pools) {
	s.age = 0
	s.instanceID++
	for i, b := range s.behaviors {
		b.Recycle(p)
		s.behaviors[i] = nil
	}
	s.behaviors = s.behaviors[:0]
	if s.factory != nil {
		s.factory.Reclaim(s)
	}
}

// ResolveInstances is the second load pass: weak references are bound to the
// loaded shapes and dying shapes return to the dying partition.
func (s *Shape) ResolveInstances(ctx Context) {
	for _, b := range s.behaviors {
		b.resolve(ctx, s)
	}
}

// Save writes the shape payload in the writer's format version. Fields a
// version does not carry are dropped; versions 7 and 8 keep only the first
// Rotation and Movement vectors.
func (s *Shape) Save(w *codec.Writer, ctx Context) {
	v := w.Version()
	w.WriteVec3(s.Position)
	w.WriteQuat(s.Rotation)
	w.WriteVec3(s.Scale)

	switch {
	case v >= codec.VersionFactories:
		w.WriteInt(int32(len(s.colors)))
		for _, c := range s.colors {
			w.WriteColor(c)
		}
	case v >= codec.VersionColor:
		w.WriteColor(s.colors[0])
	}

	switch {
	case v >= codec.VersionBehaviors:
		w.WriteFloat(s.age)
		w.WriteInt(int32(len(s.behaviors)))
		for _, b := range s.behaviors {
			w.WriteInt(int32(b.Type))
			b.Save(w, ctx)
		}
	case v >= codec.VersionLegacyMotion:
		var angular, velocity mathx.Vec3
		if b := s.firstBehavior(Rotation); b != nil {
			angular = b.Rotation.AngularVelocity
		}
		if b := s.firstBehavior(Movement); b != nil {
			velocity = b.Movement.Velocity
		}
		w.WriteVec3(angular)
		w.WriteVec3(velocity)
	}
}

func (s *Shape) firstBehavior(t BehaviorType) *Behavior {
	for _, b := range s.behaviors {
		if b.Type == t {
			return b
		}
	}
	return nil
}

// Load reads a shape payload of any supported version. Satellite references
// stay pending until ResolveInstances.
func (s *Shape) Load(r *codec.Reader, p *Pools) error {
	v := r.Version()
	s.Position = r.ReadVec3()
	s.Rotation = r.ReadQuat()
	s.Scale = r.ReadVec3()

	switch {
	case v >= codec.VersionFactories:
		s.loadColors(r)
	case v >= codec.VersionColor:
		s.SetColor(r.ReadColor())
	default:
		s.SetColor(mathx.White)
	}

	switch {
	case v >= codec.VersionBehaviors:
		s.age = r.ReadFloat()
		n := r.ReadCount()
		for i := 0; i < n && r.Err() == nil; i++ {
			t := BehaviorType(r.ReadInt())
			if r.Err() != nil {
				break
			}
			b, err := p.Get(t)
			if err != nil {
				r.Fail(fmt.Errorf("behavior %d: %w", i, err))
				break
			}
			b.attached = true
			s.behaviors = append(s.behaviors, b)
			b.Load(r)
		}
	case v >= codec.VersionLegacyMotion:
		s.AddBehavior(p, Rotation).Rotation.AngularVelocity = r.ReadVec3()
		s.AddBehavior(p, Movement).Movement.Velocity = r.ReadVec3()
	}
	return r.Err()
}

// loadColors copies as many saved colours as the shape has slots, skips the
// surplus and pads missing slots with white.
func (s *Shape) loadColors(r *codec.Reader) {
	count := r.ReadCount()
	for i := 0; i < count; i++ {
		c := r.ReadColor()
		if i < len(s.colors) {
			s.colors[i] = c
		}
	}
	for i := count; i < len(s.colors); i++ {
		s.colors[i] = mathx.White
	}
}
