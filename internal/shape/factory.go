package shape

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/shapeflow/shapesim/internal/mathx"
	"go.uber.org/zap"
)

var (
	ErrUnknownShape    = errors.New("unknown shape id")
	ErrUnknownMaterial = errors.New("unknown material id")
	ErrUnknownFactory  = errors.New("unknown factory id")
)

// Prefab describes one shape category a factory can build.
type Prefab struct {
	Name       string
	ColorSlots int
}

// Factory builds shapes of its categories and, when recycling is on, keeps
// reclaimed shapes in one free list per category.
type Factory struct {
	id        int32
	name      string
	prefabs   []Prefab
	materials []string
	recycle   bool
	pools     [][]*Shape
	log       *zap.Logger
}

func NewFactory(id int32, name string, prefabs []Prefab, materials []string, recycle bool, log *zap.Logger) *Factory {
	if len(materials) == 0 {
		materials = []string{"default"}
	}
	return &Factory{
		id:        id,
		name:      name,
		prefabs:   prefabs,
		materials: materials,
		recycle:   recycle,
		pools:     make([][]*Shape, len(prefabs)),
		log:       log,
	}
}

func (f *Factory) ID() int32          { return f.id }
func (f *Factory) Name() string       { return f.name }
func (f *Factory) ShapeCount() int    { return len(f.prefabs) }
func (f *Factory) MaterialCount() int { return len(f.materials) }
func (f *Factory) Recycles() bool     { return f.recycle }

// Get returns a shape of the given category with the given material, reusing
// a reclaimed one when possible.
func (f *Factory) Get(shapeID, materialID int32) (*Shape, error) {
	if shapeID < 0 || int(shapeID) >= len(f.prefabs) {
		return nil, fmt.Errorf("factory %d: %w: %d", f.id, ErrUnknownShape, shapeID)
	}
	if materialID < 0 || int(materialID) >= len(f.materials) {
		return nil, fmt.Errorf("factory %d: %w: %d", f.id, ErrUnknownMaterial, materialID)
	}

	var s *Shape
	if pool := f.pools[shapeID]; f.recycle && len(pool) > 0 {
		last := len(pool) - 1
		s = pool[last]
		pool[last] = nil
		f.pools[shapeID] = pool[:last]
		s.resetTransform()
		s.SetColor(mathx.White)
	} else {
		s = New(f.prefabs[shapeID].ColorSlots)
		if err := s.SetShapeID(shapeID); err != nil {
			return nil, err
		}
		if err := s.SetOriginFactory(f); err != nil {
			return nil, err
		}
	}
	s.SetMaterial(materialID)
	return s, nil
}

// GetRandom returns a shape of a random category and material.
func (f *Factory) GetRandom(rng *rand.Rand) (*Shape, error) {
	if len(f.prefabs) == 0 {
		return nil, fmt.Errorf("factory %d: %w: no prefabs", f.id, ErrUnknownShape)
	}
	return f.Get(int32(rng.IntN(len(f.prefabs))), int32(rng.IntN(len(f.materials))))
}

// Reclaim takes back a recycled shape. Without recycling the shape is simply
// dropped.
func (f *Factory) Reclaim(s *Shape) {
	if s.factory != f {
		f.log.Error("shape reclaimed by foreign factory",
			zap.Int32("factory", f.id),
			zap.Int32("shape_id", s.shapeID),
		)
		return
	}
	if !f.recycle {
		return
	}
	f.pools[s.shapeID] = append(f.pools[s.shapeID], s)
}

// Idle returns the number of pooled shapes of a category.
func (f *Factory) Idle(shapeID int32) int {
	if shapeID < 0 || int(shapeID) >= len(f.pools) {
		return 0
	}
	return len(f.pools[shapeID])
}

// FactoryRegistry looks factories up by the id stored in save streams.
type FactoryRegistry struct {
	byID  map[int32]*Factory
	order []*Factory
}

func NewFactoryRegistry() *FactoryRegistry {
	return &FactoryRegistry{byID: make(map[int32]*Factory)}
}

func (r *FactoryRegistry) Register(f *Factory) error {
	if _, dup := r.byID[f.id]; dup {
		return fmt.Errorf("duplicate factory id %d", f.id)
	}
	r.byID[f.id] = f
	r.order = append(r.order, f)
	return nil
}

func (r *FactoryRegistry) Get(id int32) (*Factory, error) {
	f, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFactory, id)
	}
	return f, nil
}

// All returns factories in registration order.
func (r *FactoryRegistry) All() []*Factory { return r.order }

func (r *FactoryRegistry) Count() int { return len(r.order) }
