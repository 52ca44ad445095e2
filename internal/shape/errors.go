package shape

import "errors"

var (
	// ErrStaleReference reports an Instance whose target has been killed or
	// recycled since the handle was taken.
	ErrStaleReference = errors.New("stale shape reference")

	ErrShapeIDAlreadySet   = errors.New("shape id already set")
	ErrFactoryAlreadySet   = errors.New("origin factory already set")
	ErrBehaviorOwned       = errors.New("behavior already attached to a shape")
	ErrUnknownBehaviorType = errors.New("unknown behavior type")
)

// ErrAlreadyOwned reports an attempt to register a shape that already
// belongs to a roster.
var ErrAlreadyOwned = errors.New("shape already owned by a roster")
