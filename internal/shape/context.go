package shape

import "math/rand/v2"

// Context is the simulation a shape runs in. The roster implements it; it is
// passed explicitly to every update, so shapes and behaviours never reach for
// global state.
type Context interface {
	Pools() *Pools
	Rand() *rand.Rand
	// Time is the simulation clock in seconds.
	Time() float32

	// Kill and MarkAsDying are deferred while an update pass is running.
	Kill(s *Shape)
	MarkAsDying(s *Shape)
	IsMarkedAsDying(s *Shape) bool

	// Resolve returns the shape inst refers to, or ErrStaleReference.
	Resolve(inst Instance) (*Shape, error)
	// At returns the shape at a save index, or nil when out of range.
	At(saveIndex int) *Shape
}
