package shape

import "github.com/shapeflow/shapesim/internal/core/ecs"

// Instance is a weak, generation-checked reference to a shape. It never keeps
// the target alive; Context.Resolve decides whether it still points at the
// same incarnation. The zero Instance refers to nothing.
//
// After loading, an Instance only knows the save index of its target. It stays
// unresolved (and therefore invalid) until Resolve runs in the second load
// pass, once every shape exists.
type Instance struct {
	id         ecs.EntityID
	generation int32
	pending    int32 // saved index + 1, zero when nothing is pending
}

// InstanceOf takes a handle to s as it is right now.
func InstanceOf(s *Shape) Instance {
	return Instance{id: s.id, generation: s.instanceID}
}

// PendingInstance builds an unresolved handle from a saved index. A negative
// index yields a handle that never resolves.
func PendingInstance(saveIndex int32) Instance {
	if saveIndex < 0 {
		return Instance{}
	}
	return Instance{pending: saveIndex + 1}
}

func (i Instance) ID() ecs.EntityID  { return i.id }
func (i Instance) Generation() int32 { return i.generation }

// Pending reports whether the handle still waits for Resolve.
func (i Instance) Pending() bool { return i.pending > 0 }

// Matches reports whether s is the incarnation this handle was taken from.
func (i Instance) Matches(s *Shape) bool {
	return s != nil && !i.id.IsZero() && s.id == i.id && s.instanceID == i.generation
}

// Resolve turns a pending save index into a live handle.
func (i *Instance) Resolve(ctx Context) {
	if i.pending == 0 {
		return
	}
	if s := ctx.At(int(i.pending - 1)); s != nil {
		*i = InstanceOf(s)
		return
	}
	*i = Instance{}
}

// IsValid reports whether the target still exists as the same incarnation.
func (i Instance) IsValid(ctx Context) bool {
	_, err := ctx.Resolve(i)
	return err == nil
}

// SaveIndex is what gets written to a save stream: the target's position in
// the roster, or -1 when the target is gone.
func (i Instance) SaveIndex(ctx Context) int32 {
	if i.pending > 0 {
		return i.pending - 1
	}
	s, err := ctx.Resolve(i)
	if err != nil {
		return -1
	}
	return int32(s.SaveIndex())
}
