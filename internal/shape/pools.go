package shape

import (
	"fmt"

	"github.com/shapeflow/shapesim/internal/core/ecs"
)

// Pools recycles behaviours, one free list per behaviour type. A simulation
// owns exactly one Pools; it is not safe for concurrent use.
type Pools struct {
	byType [behaviorTypeCount]*ecs.Pool[Behavior]
}

func NewPools() *Pools {
	p := &Pools{}
	for t := BehaviorType(0); t < behaviorTypeCount; t++ {
		kind := t
		p.byType[t] = ecs.NewPool(func() *Behavior {
			return &Behavior{Type: kind}
		})
	}
	return p
}

// Get returns a detached behaviour of type t.
func (p *Pools) Get(t BehaviorType) (*Behavior, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBehaviorType, int32(t))
	}
	return p.byType[t].Get(), nil
}

func (p *Pools) reclaim(b *Behavior) {
	p.byType[b.Type].Reclaim(b)
}

// Idle returns the number of pooled behaviours of type t.
func (p *Pools) Idle(t BehaviorType) int {
	if !t.Valid() {
		return 0
	}
	return p.byType[t].Idle()
}

// Created returns how many behaviours of type t were ever allocated.
func (p *Pools) Created(t BehaviorType) int {
	if !t.Valid() {
		return 0
	}
	return p.byType[t].Created()
}
