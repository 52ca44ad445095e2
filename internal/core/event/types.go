package event

import "github.com/shapeflow/shapesim/internal/core/ecs"

// Roster lifecycle events. Emitted during tick N, dispatched in tick N+1.

type ShapeSpawned struct {
	EntityID ecs.EntityID
	ShapeID  int32
}

type ShapeKilled struct {
	EntityID ecs.EntityID
	ShapeID  int32
	Age      float32
}

type ShapeMarkedDying struct {
	EntityID ecs.EntityID
	ShapeID  int32
}

// GameLoaded is emitted after a save stream has been committed.
type GameLoaded struct {
	Version int32
	Shapes  int
}

// GameSaved is emitted after a save stream has been written.
type GameSaved struct {
	Slot  string
	Bytes int
}
