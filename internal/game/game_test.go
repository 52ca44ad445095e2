package game_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shapeflow/shapesim/internal/codec"
	"github.com/shapeflow/shapesim/internal/core/event"
	"github.com/shapeflow/shapesim/internal/data"
	"github.com/shapeflow/shapesim/internal/game"
	"github.com/shapeflow/shapesim/internal/level"
	"github.com/shapeflow/shapesim/internal/shape"
	"github.com/shapeflow/shapesim/internal/spawn"
)

// Factory 0 only, so every stream version can name the shapes it holds.
const testCatalog = `
factories:
  - id: 0
    name: standard
    recycle: true
    materials: [standard, shiny]
    prefabs:
      - { name: cube, color_slots: 1 }
      - { name: cube-stack, color_slots: 3 }
levels:
  - id: 1
    name: garden
    zone:
      kind: composite
      name: garden
      sequential: true
      persistent: true
      spawn:
        factories: [0]
        speed: { min: 0.5, max: 1 }
        angular_speed: { min: 10, max: 45 }
        oscillation:
          amplitude: 0.25
          frequency: 0.5
        satellite:
          amount: 1
          relative_scale: 0.3
          orbit_radius: 2
          orbit_frequency: 0.2
        lifecycle:
          growing: 0.5
          adult: 30
          dying: 1
      zones:
        - { kind: sphere, name: west, position: [-4, 0, 0] }
        - { kind: cube, name: east, position: [4, 0, 0] }
    objects:
      - { kind: rotating, name: turntable, angular_velocity: [0, 20, 0] }
  - id: 2
    name: fountain
    population_limit: 3
    zone:
      kind: sphere
      name: spout
      spawn:
        factories: [0]
        movement_direction: upward
        speed: 2
        lifecycle:
          growing: 0.2
          adult: 5
          dying: 0.5
`

func newGame(t *testing.T, catalog string, opts game.Options) *game.Game {
	t.Helper()
	log := zap.NewNop()
	c, err := data.ParseCatalog([]byte(catalog))
	require.NoError(t, err)
	factories, err := c.BuildFactories(log)
	require.NoError(t, err)
	levels, err := c.BuildLevels(factories, nil)
	require.NoError(t, err)
	g, err := game.New(factories, levels, opts, event.NewBus(), log)
	require.NoError(t, err)
	return g
}

// populated returns a garden game with spawned shapes that have aged a
// little, so positions, level objects and behaviour state are non-trivial.
func populated(t *testing.T) *game.Game {
	t.Helper()
	g := newGame(t, testCatalog, game.Options{Seed: 42, StartLevel: 1})
	for i := 0; i < 5; i++ {
		require.NoError(t, g.SpawnShape())
	}
	for i := 0; i < 3; i++ {
		g.Update(0.1)
	}
	require.NoError(t, g.Roster().CheckInvariant())
	return g
}

func TestRoundTripEveryVersion(t *testing.T) {
	src := populated(t)
	require.Equal(t, 10, src.Roster().Len(), "5 shapes with one satellite each")

	for v := int32(0); v <= codec.SaveVersion; v++ {
		encoded, err := src.Encode(v)
		require.NoError(t, err, "version %d", v)

		dst := newGame(t, testCatalog, game.Options{Seed: 7, StartLevel: 1})
		require.NoError(t, dst.Load(encoded), "version %d", v)
		require.NoError(t, dst.Roster().CheckInvariant())
		require.Equal(t, src.Roster().Len(), dst.Roster().Len(), "version %d", v)

		for i := 0; i < src.Roster().Len(); i++ {
			a, b := src.Roster().At(i), dst.Roster().At(i)
			assert.Equal(t, a.Position, b.Position, "v%d shape %d position", v, i)
			assert.Equal(t, a.Rotation, b.Rotation, "v%d shape %d rotation", v, i)
			assert.Equal(t, a.Scale, b.Scale, "v%d shape %d scale", v, i)
			if v >= codec.VersionShapeID {
				assert.Equal(t, a.ShapeID(), b.ShapeID(), "v%d shape %d id", v, i)
			}
			if v >= codec.VersionColor {
				assert.Equal(t, a.Color(0), b.Color(0), "v%d shape %d color", v, i)
			}
			if v >= codec.VersionBehaviors {
				assert.Equal(t, a.Age(), b.Age(), "v%d shape %d age", v, i)
				require.Len(t, b.Behaviors(), len(a.Behaviors()), "v%d shape %d", v, i)
				for j := range a.Behaviors() {
					assert.Equal(t, a.Behaviors()[j].Type, b.Behaviors()[j].Type)
				}
			}
		}

		// Whatever a version carries must survive a second trip unchanged.
		again, err := dst.Encode(v)
		require.NoError(t, err)
		assert.Equal(t, encoded, again, "version %d re-encode", v)
	}
}

// satellites returns every shape that still carries a Satellite behaviour.
func satellites(g *game.Game) []*shape.Shape {
	var out []*shape.Shape
	g.Roster().Each(func(s *shape.Shape) {
		for _, b := range s.Behaviors() {
			if b.Type == shape.Satellite {
				out = append(out, s)
				return
			}
		}
	})
	return out
}

func satelliteOf(s *shape.Shape) *shape.Behavior {
	for _, b := range s.Behaviors() {
		if b.Type == shape.Satellite {
			return b
		}
	}
	return nil
}

func TestRoundTripDyingShapes(t *testing.T) {
	src := populated(t)
	ros := src.Roster()
	ros.SetDestroyDuration(5)
	require.True(t, src.DestroyShape())

	sats := satellites(src)
	require.GreaterOrEqual(t, len(sats), 2)

	// One satellite orbits a dying focal, another lost its focal before the save.
	orbiting, orphan := sats[0], sats[1]
	dyingFocal, err := ros.Resolve(satelliteOf(orbiting).Satellite.Focal())
	require.NoError(t, err)
	if !ros.IsMarkedAsDying(dyingFocal) {
		dyingFocal.AddBehavior(src.Pools(), shape.Dying).InitDying(ros, dyingFocal, 5)
	}
	lostFocal, err := ros.Resolve(satelliteOf(orphan).Satellite.Focal())
	require.NoError(t, err)
	ros.Kill(lostFocal)
	require.NoError(t, ros.CheckInvariant())
	require.GreaterOrEqual(t, ros.DyingCount(), 1)

	encoded, err := src.Save()
	require.NoError(t, err)

	dst := newGame(t, testCatalog, game.Options{Seed: 7, StartLevel: 1})
	require.NoError(t, dst.Load(encoded))
	loaded := dst.Roster()
	require.NoError(t, loaded.CheckInvariant())
	require.Equal(t, ros.Len(), loaded.Len())
	assert.Equal(t, ros.DyingCount(), loaded.DyingCount())
	for i := 0; i < ros.Len(); i++ {
		a, b := ros.At(i), loaded.At(i)
		assert.Equal(t, ros.IsMarkedAsDying(a), loaded.IsMarkedAsDying(b), "shape %d dying", i)
		assert.Equal(t, a.Position, b.Position, "shape %d position", i)
		assert.Equal(t, a.Scale, b.Scale, "shape %d scale", i)
	}

	again, err := dst.Save()
	require.NoError(t, err)
	assert.Equal(t, encoded, again)

	// The orbit is bound to the loaded copy of the dying focal.
	loadedOrbiting := loaded.At(orbiting.SaveIndex())
	focal, err := loaded.Resolve(satelliteOf(loadedOrbiting).Satellite.Focal())
	require.NoError(t, err)
	assert.Equal(t, dyingFocal.SaveIndex(), focal.SaveIndex())
	assert.True(t, loaded.IsMarkedAsDying(focal))

	// The orphan never resolves and drifts off on its next update.
	loadedOrphan := loaded.At(orphan.SaveIndex())
	assert.False(t, satelliteOf(loadedOrphan).Satellite.Focal().IsValid(loaded))
	require.NotPanics(t, func() { dst.Update(0.1) })
	assert.Nil(t, satelliteOf(loadedOrphan))
	var drifting bool
	for _, b := range loadedOrphan.Behaviors() {
		drifting = drifting || b.Type == shape.Movement
	}
	assert.True(t, drifting)
	require.NoError(t, loaded.CheckInvariant())
}

func TestLoadRejectsCorruptLegacyHeader(t *testing.T) {
	g := populated(t)
	before := g.Roster().Len()

	for _, header := range []uint32{0x80000000, 0x7fffffff} {
		stream := make([]byte, 4)
		binary.LittleEndian.PutUint32(stream, header)
		require.NotPanics(t, func() {
			assert.Error(t, g.Load(stream), "header %#x", header)
		})
		assert.Equal(t, before, g.Roster().Len())
	}
}

func TestLevelStateRoundTrip(t *testing.T) {
	src := populated(t)
	encoded, err := src.Save()
	require.NoError(t, err)

	dst := newGame(t, testCatalog, game.Options{Seed: 7, StartLevel: 2})
	require.NoError(t, dst.Load(encoded))
	require.Equal(t, int32(1), dst.Level().ID)

	srcTable := src.Level().Objects[1].(*level.RotatingObject)
	dstTable := dst.Level().Objects[1].(*level.RotatingObject)
	assert.Equal(t, srcTable.Transform, dstTable.Transform)

	srcZone := src.Level().Objects[0].(*spawn.CompositeZone)
	dstZone := dst.Level().Objects[0].(*spawn.CompositeZone)
	assert.Equal(t, srcZone.Cursor(), dstZone.Cursor())
	assert.Equal(t, 1, dstZone.Cursor(), "five sequential spawns over two zones")
}

func TestLoadRestoresRandomState(t *testing.T) {
	src := populated(t)
	encoded, err := src.Save()
	require.NoError(t, err)

	dst := newGame(t, testCatalog, game.Options{Seed: 7, StartLevel: 1})
	require.NoError(t, dst.Load(encoded))
	assert.Equal(t, src.Rand().Uint64(), dst.Rand().Uint64())

	reseeded := newGame(t, testCatalog, game.Options{Seed: 7, StartLevel: 1, ReseedOnLoad: true})
	fresh := newGame(t, testCatalog, game.Options{Seed: 7, StartLevel: 1})
	require.NoError(t, reseeded.Load(encoded))
	assert.Equal(t, fresh.Rand().Uint64(), reseeded.Rand().Uint64(), "reseed keeps the running generator")
}

func TestLoadRejectsFutureVersion(t *testing.T) {
	g := populated(t)
	before := g.Roster().Len()

	future := -(codec.SaveVersion + 1)
	stream := make([]byte, 8)
	binary.LittleEndian.PutUint32(stream, uint32(future))

	err := g.Load(stream)
	var unsupported *codec.UnsupportedVersionError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, codec.SaveVersion+1, unsupported.Version)
	assert.Equal(t, before, g.Roster().Len())
}

func TestCorruptStreamLeavesGameUntouched(t *testing.T) {
	g := populated(t)
	encoded, err := g.Save()
	require.NoError(t, err)

	first := g.Roster().At(0)
	position := first.Position
	before := g.Roster().Len()

	require.Error(t, g.Load(encoded[:len(encoded)-5]))
	assert.Equal(t, before, g.Roster().Len())
	assert.Same(t, first, g.Roster().At(0))
	assert.Equal(t, position, first.Position)
	require.NoError(t, g.Roster().CheckInvariant())

	// Still loads cleanly afterwards.
	require.NoError(t, g.Load(encoded))
	assert.Equal(t, before, g.Roster().Len())
}

func TestLevelObjectCountMismatch(t *testing.T) {
	src := populated(t)
	encoded, err := src.Save()
	require.NoError(t, err)

	// Same catalog without the turntable.
	c, err := data.ParseCatalog([]byte(testCatalog))
	require.NoError(t, err)
	c.Levels[0].Objects = nil
	log := zap.NewNop()
	factories, err := c.BuildFactories(log)
	require.NoError(t, err)
	levels, err := c.BuildLevels(factories, nil)
	require.NoError(t, err)
	dst, err := game.New(factories, levels, game.Options{Seed: 7, StartLevel: 1}, nil, log)
	require.NoError(t, err)

	err = dst.Load(encoded)
	require.ErrorIs(t, err, level.ErrObjectCount)
	assert.Equal(t, 0, dst.Roster().Len())
}

func TestUpdateSpawnsAtCreationRate(t *testing.T) {
	g := newGame(t, testCatalog, game.Options{Seed: 3, StartLevel: 2, CreationRate: 4})
	g.Update(0.5)
	assert.Equal(t, 2, g.Roster().Len())

	creation, destruction := g.Rates()
	assert.Equal(t, float32(4), creation)
	assert.Equal(t, float32(0), destruction)
}

func TestUpdateEnforcesPopulationLimit(t *testing.T) {
	g := newGame(t, testCatalog, game.Options{Seed: 3, StartLevel: 2, CreationRate: 10})
	g.Update(1)
	assert.Equal(t, 3, g.Roster().LiveCount())
	require.NoError(t, g.Roster().CheckInvariant())
}

func TestDestructionRate(t *testing.T) {
	g := newGame(t, testCatalog, game.Options{Seed: 3, StartLevel: 2})
	for i := 0; i < 3; i++ {
		require.NoError(t, g.SpawnShape())
	}
	g.SetRates(0, 2)
	g.Update(1)
	assert.Equal(t, 1, g.Roster().Len())
}

func TestNewGameClearsShapes(t *testing.T) {
	g := populated(t)
	g.NewGame()
	assert.Equal(t, 0, g.Roster().Len())
	require.NoError(t, g.SpawnShape())
	assert.Equal(t, 2, g.Roster().Len())
}

func TestSetLevel(t *testing.T) {
	g := newGame(t, testCatalog, game.Options{Seed: 1, StartLevel: 1})
	require.NoError(t, g.SetLevel(2))
	assert.Equal(t, "fountain", g.Level().Name)
	require.ErrorIs(t, g.SetLevel(9), level.ErrUnknownLevel)
	assert.Equal(t, int32(2), g.Level().ID)
}

func TestEncodeRejectsUnknownVersion(t *testing.T) {
	g := populated(t)
	_, err := g.Encode(codec.SaveVersion + 1)
	require.Error(t, err)
	_, err = g.Encode(-1)
	require.Error(t, err)
}
