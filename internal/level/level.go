// Package level holds the playfield a game runs in: its spawn zone, its
// population limit and the objects whose state is saved with the game.
package level

import (
	"errors"
	"fmt"

	"github.com/shapeflow/shapesim/internal/codec"
	"github.com/shapeflow/shapesim/internal/mathx"
	"github.com/shapeflow/shapesim/internal/spawn"
)

// ErrObjectCount reports a level state block written for a different set of
// level objects.
var ErrObjectCount = errors.New("level object count mismatch")

// Object is a level-owned thing that updates every tick and persists in the
// level state block. Load decodes without mutating and returns the commit.
type Object interface {
	GameUpdate(dt float32)
	Save(w *codec.Writer)
	Load(r *codec.Reader) func()
}

type Level struct {
	ID              int32
	Name            string
	PopulationLimit int
	Zone            spawn.Zone
	Objects         []Object
}

func (l *Level) GameUpdate(dt float32) {
	for _, o := range l.Objects {
		o.GameUpdate(dt)
	}
}

// SpawnShape spawns one shape through the level's zone.
func (l *Level) SpawnShape(h spawn.Host) error {
	if l.Zone == nil {
		return fmt.Errorf("level %d has no spawn zone", l.ID)
	}
	return l.Zone.SpawnShape(h)
}

// Save writes the level state block: the object count and each object.
func (l *Level) Save(w *codec.Writer) {
	w.WriteInt(int32(len(l.Objects)))
	for _, o := range l.Objects {
		o.Save(w)
	}
}

// Load decodes a level state block. Nothing changes until the returned
// commit runs; on error there is nothing to commit.
func (l *Level) Load(r *codec.Reader) (func(), error) {
	n := r.ReadCount()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("level %d state: %w", l.ID, err)
	}
	if n != len(l.Objects) {
		return nil, fmt.Errorf("level %d: %w: saved %d, have %d", l.ID, ErrObjectCount, n, len(l.Objects))
	}
	commits := make([]func(), 0, n)
	for _, o := range l.Objects {
		commits = append(commits, o.Load(r))
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("level %d state: %w", l.ID, err)
	}
	return func() {
		for _, c := range commits {
			c()
		}
	}, nil
}

// RotatingObject spins at a constant angular velocity in degrees per second.
type RotatingObject struct {
	Name            string
	Transform       mathx.Transform
	AngularVelocity mathx.Vec3
}

func (o *RotatingObject) GameUpdate(dt float32) {
	o.Transform.Rotate(o.AngularVelocity.Mul(dt))
}

func (o *RotatingObject) Save(w *codec.Writer) { w.WriteTransform(o.Transform) }

func (o *RotatingObject) Load(r *codec.Reader) func() {
	t := r.ReadTransform()
	return func() { o.Transform = t }
}
