// Package roster owns the live shape population and drives the per-tick
// update pass.
//
// The backing slice is split in two: [0, dyingCount) holds shapes marked as
// dying and [dyingCount, len) holds live shapes. Removal swaps with the tail
// instead of shifting, so positions carry no meaning beyond the partition.
// Kill and MarkAsDying requests raised while the update pass iterates are
// queued and applied once the pass ends.
package roster

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/shapeflow/shapesim/internal/core/ecs"
	"github.com/shapeflow/shapesim/internal/core/event"
	"github.com/shapeflow/shapesim/internal/shape"
	"go.uber.org/zap"
)

// ErrNotOwned reports an operation on a shape this roster does not hold.
var ErrNotOwned = errors.New("shape not owned by this roster")

// Stats counts roster activity since creation.
type Stats struct {
	Added           int
	Killed          int
	MarkedDying     int
	DroppedRequests int
}

// Roster implements shape.Context for the shapes it owns.
type Roster struct {
	shapes     []*shape.Shape
	dyingCount int

	ids   *ecs.EntityPool
	slots []*shape.Shape

	inPass    bool
	killQueue []shape.Instance
	markQueue []shape.Instance

	pools           *shape.Pools
	rng             *rand.Rand
	bus             *event.Bus
	log             *zap.Logger
	time            float32
	destroyDuration float32
	stats           Stats
}

// New creates an empty roster. bus may be nil.
func New(pools *shape.Pools, rng *rand.Rand, bus *event.Bus, log *zap.Logger) *Roster {
	return &Roster{
		shapes:    make([]*shape.Shape, 0, 256),
		ids:       ecs.NewEntityPool(),
		slots:     make([]*shape.Shape, 0, 256),
		killQueue: make([]shape.Instance, 0, 32),
		markQueue: make([]shape.Instance, 0, 32),
		pools:     pools,
		rng:       rng,
		bus:       bus,
		log:       log,
	}
}

func (r *Roster) Pools() *shape.Pools { return r.pools }
func (r *Roster) Rand() *rand.Rand    { return r.rng }
func (r *Roster) Time() float32       { return r.time }
func (r *Roster) Stats() Stats        { return r.stats }

// SetDestroyDuration makes DestroyRandom shrink shapes over d seconds instead
// of killing them outright. Zero or less kills immediately.
func (r *Roster) SetDestroyDuration(d float32) { r.destroyDuration = d }

func (r *Roster) Len() int        { return len(r.shapes) }
func (r *Roster) DyingCount() int { return r.dyingCount }
func (r *Roster) LiveCount() int  { return len(r.shapes) - r.dyingCount }

// At returns the shape at save index i, or nil when out of range.
func (r *Roster) At(i int) *shape.Shape {
	if i < 0 || i >= len(r.shapes) {
		return nil
	}
	return r.shapes[i]
}

// Each calls fn for every shape in backing order. fn must not add or remove
// shapes.
func (r *Roster) Each(fn func(*shape.Shape)) {
	for _, s := range r.shapes {
		fn(s)
	}
}

// Add registers s at the live end of the roster.
func (r *Roster) Add(s *shape.Shape) error {
	id := r.ids.Create()
	if err := s.Register(id); err != nil {
		r.ids.Destroy(id)
		r.log.Error("add rejected", zap.Int32("shape_id", s.ShapeID()), zap.Error(err))
		return err
	}
	for int(id.Index()) >= len(r.slots) {
		r.slots = append(r.slots, nil)
	}
	r.slots[id.Index()] = s
	s.SetSaveIndex(len(r.shapes))
	r.shapes = append(r.shapes, s)
	r.stats.Added++
	event.Emit(r.bus, event.ShapeSpawned{EntityID: id, ShapeID: s.ShapeID()})
	return nil
}

// Resolve returns the shape inst refers to, or shape.ErrStaleReference when
// the slot was freed or the shape has been recycled since.
func (r *Roster) Resolve(inst shape.Instance) (*shape.Shape, error) {
	s := r.slot(inst.ID())
	if !inst.Matches(s) {
		return nil, shape.ErrStaleReference
	}
	return s, nil
}

// slot returns the shape occupying id's slot, or nil when id is stale.
func (r *Roster) slot(id ecs.EntityID) *shape.Shape {
	if id.IsZero() || !r.ids.Alive(id) || int(id.Index()) >= len(r.slots) {
		return nil
	}
	return r.slots[id.Index()]
}

// owns reports whether s is registered here at its recorded index.
func (r *Roster) owns(s *shape.Shape) bool {
	if !s.Registered() || r.slot(s.ID()) != s {
		return false
	}
	i := s.SaveIndex()
	return i >= 0 && i < len(r.shapes) && r.shapes[i] == s
}

// IsMarkedAsDying reports whether s sits in the dying partition.
func (r *Roster) IsMarkedAsDying(s *shape.Shape) bool {
	return s.SaveIndex() >= 0 && s.SaveIndex() < r.dyingCount
}

// Kill removes s and recycles it. Inside the update pass the request is
// queued instead.
func (r *Roster) Kill(s *shape.Shape) {
	if r.inPass {
		r.killQueue = append(r.killQueue, shape.InstanceOf(s))
		return
	}
	r.killImmediately(s)
}

func (r *Roster) killImmediately(s *shape.Shape) {
	if !r.owns(s) {
		r.log.Error("kill rejected", zap.Int32("shape_id", s.ShapeID()), zap.Error(ErrNotOwned))
		return
	}
	index := s.SaveIndex()
	if index < r.dyingCount {
		// Close the gap inside the dying section first so the tail swap below
		// only ever moves a live shape.
		r.dyingCount--
		r.swap(index, r.dyingCount)
		index = r.dyingCount
	}
	last := len(r.shapes) - 1
	r.swap(index, last)
	r.shapes[last] = nil
	r.shapes = r.shapes[:last]

	id := s.ID()
	r.slots[id.Index()] = nil
	r.ids.Destroy(id)
	r.stats.Killed++
	event.Emit(r.bus, event.ShapeKilled{EntityID: id, ShapeID: s.ShapeID(), Age: s.Age()})

	s.Unregister()
	s.Recycle(r.pools)
}

// MarkAsDying moves s into the dying partition. Marking a dying shape again
// does nothing. Inside the update pass the request is queued instead.
func (r *Roster) MarkAsDying(s *shape.Shape) {
	if r.inPass {
		r.markQueue = append(r.markQueue, shape.InstanceOf(s))
		return
	}
	r.markImmediately(s)
}

func (r *Roster) markImmediately(s *shape.Shape) {
	if !r.owns(s) {
		r.log.Error("mark as dying rejected", zap.Int32("shape_id", s.ShapeID()), zap.Error(ErrNotOwned))
		return
	}
	index := s.SaveIndex()
	if index < r.dyingCount {
		return
	}
	r.swap(index, r.dyingCount)
	r.dyingCount++
	r.stats.MarkedDying++
	event.Emit(r.bus, event.ShapeMarkedDying{EntityID: s.ID(), ShapeID: s.ShapeID()})
}

func (r *Roster) swap(i, j int) {
	if i == j {
		return
	}
	r.shapes[i], r.shapes[j] = r.shapes[j], r.shapes[i]
	r.shapes[i].SetSaveIndex(i)
	r.shapes[j].SetSaveIndex(j)
}

// Tick runs one update pass over every shape, then applies the kill and
// mark requests gathered during the pass. Shapes added during the pass are
// appended and updated in the same pass.
func (r *Roster) Tick(dt float32) {
	r.time += dt
	r.inPass = true
	for i := 0; i < len(r.shapes); i++ {
		r.shapes[i].GameUpdate(r, dt)
	}
	r.inPass = false
	r.flush()
}

// flush applies queued requests once each. A request whose target died or
// was recycled after it was queued is dropped.
func (r *Roster) flush() {
	for i, inst := range r.killQueue {
		if s, err := r.Resolve(inst); err == nil {
			r.killImmediately(s)
		} else {
			r.stats.DroppedRequests++
		}
		r.killQueue[i] = shape.Instance{}
	}
	r.killQueue = r.killQueue[:0]

	for i, inst := range r.markQueue {
		if s, err := r.Resolve(inst); err == nil {
			r.markImmediately(s)
		} else {
			r.stats.DroppedRequests++
		}
		r.markQueue[i] = shape.Instance{}
	}
	r.markQueue = r.markQueue[:0]
}

// DestroyRandom picks a live shape uniformly at random and kills it, or
// starts it dying when a destroy duration is set. Dying shapes are never
// picked.
func (r *Roster) DestroyRandom() bool {
	live := r.LiveCount()
	if live <= 0 {
		return false
	}
	s := r.shapes[r.dyingCount+r.rng.IntN(live)]
	if r.destroyDuration <= 0 {
		r.Kill(s)
		return true
	}
	s.AddBehavior(r.pools, shape.Dying).InitDying(r, s, r.destroyDuration)
	return true
}

// EnforcePopulationLimit destroys random live shapes until at most limit
// remain. A limit of zero or less means unlimited. Must not run inside the
// update pass, where destruction is deferred and the loop could not make
// progress.
func (r *Roster) EnforcePopulationLimit(limit int) int {
	if limit <= 0 || r.inPass {
		return 0
	}
	destroyed := 0
	for r.LiveCount() > limit {
		if !r.DestroyRandom() {
			break
		}
		destroyed++
	}
	return destroyed
}

// Restore adds loaded shapes in save order and runs the second load pass.
// Marks raised while references resolve are deferred, so save indices stay
// put until every reference is bound.
func (r *Roster) Restore(shapes []*shape.Shape) error {
	for _, s := range shapes {
		if err := r.Add(s); err != nil {
			return err
		}
	}
	r.inPass = true
	for _, s := range shapes {
		s.ResolveInstances(r)
	}
	r.inPass = false
	r.flush()
	return r.CheckInvariant()
}

// Clear recycles every shape and empties the roster.
func (r *Roster) Clear() {
	for i, s := range r.shapes {
		r.slots[s.ID().Index()] = nil
		s.Unregister()
		s.Recycle(r.pools)
		r.shapes[i] = nil
	}
	r.shapes = r.shapes[:0]
	r.dyingCount = 0
	r.ids.Reset()
	r.killQueue = r.killQueue[:0]
	r.markQueue = r.markQueue[:0]
}

// CheckInvariant verifies the partition bounds and that every shape knows
// its own index and slot.
func (r *Roster) CheckInvariant() error {
	if r.dyingCount < 0 || r.dyingCount > len(r.shapes) {
		return fmt.Errorf("dying count %d outside [0,%d]", r.dyingCount, len(r.shapes))
	}
	if r.ids.Len() != len(r.shapes) {
		return fmt.Errorf("%d live slots for %d shapes", r.ids.Len(), len(r.shapes))
	}
	for i, s := range r.shapes {
		if s.SaveIndex() != i {
			return fmt.Errorf("shape at %d records save index %d", i, s.SaveIndex())
		}
		if !r.owns(s) {
			return fmt.Errorf("shape at %d: %w", i, ErrNotOwned)
		}
	}
	return nil
}
