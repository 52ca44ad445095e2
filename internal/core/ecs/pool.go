package ecs

// Pool is a free-list recycler. Get hands back the most recently reclaimed
// value first and only allocates when the list is empty. Reclaim does not
// reset anything; callers clear state before handing a value back.
//
// Not safe for concurrent use.
type Pool[T any] struct {
	free []*T
	New  func() *T

	created int
}

func NewPool[T any](newFn func() *T) *Pool[T] {
	return &Pool[T]{
		free: make([]*T, 0, 16),
		New:  newFn,
	}
}

func (p *Pool[T]) Get() *T {
	if n := len(p.free); n > 0 {
		v := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		return v
	}
	p.created++
	if p.New != nil {
		return p.New()
	}
	return new(T)
}

func (p *Pool[T]) Reclaim(v *T) {
	p.free = append(p.free, v)
}

// Idle returns the number of values waiting in the free list.
func (p *Pool[T]) Idle() int { return len(p.free) }

// Created returns how many values the pool has allocated in total.
func (p *Pool[T]) Created() int { return p.created }
