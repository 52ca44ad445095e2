package level

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownLevel = errors.New("unknown level id")

// Registry holds the levels a game can switch between.
type Registry struct {
	byID map[int32]*Level
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[int32]*Level)}
}

func (r *Registry) Register(l *Level) error {
	if _, dup := r.byID[l.ID]; dup {
		return fmt.Errorf("duplicate level id %d", l.ID)
	}
	r.byID[l.ID] = l
	return nil
}

func (r *Registry) Get(id int32) (*Level, error) {
	l, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLevel, id)
	}
	return l, nil
}

// IDs returns registered level ids in ascending order.
func (r *Registry) IDs() []int32 {
	ids := make([]int32, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *Registry) Len() int { return len(r.byID) }
