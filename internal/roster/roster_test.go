package roster_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shapeflow/shapesim/internal/roster"
	"github.com/shapeflow/shapesim/internal/shape"
)

func newRoster(t *testing.T, recycle bool) (*roster.Roster, *shape.Factory) {
	t.Helper()
	log := zap.NewNop()
	f := shape.NewFactory(0, "test", []shape.Prefab{
		{Name: "cube", ColorSlots: 1},
		{Name: "composite", ColorSlots: 3},
	}, []string{"standard", "shiny"}, recycle, log)
	rng := rand.New(rand.NewPCG(7, 11))
	return roster.New(shape.NewPools(), rng, nil, log), f
}

func spawn(t *testing.T, r *roster.Roster, f *shape.Factory, n int) []*shape.Shape {
	t.Helper()
	out := make([]*shape.Shape, 0, n)
	for i := 0; i < n; i++ {
		s, err := f.Get(int32(i%2), 0)
		require.NoError(t, err)
		require.NoError(t, r.Add(s))
		out = append(out, s)
	}
	return out
}

// assertPartition checks the roster against the set of shapes the test
// believes are dying.
func assertPartition(t *testing.T, r *roster.Roster, dying map[*shape.Shape]bool) {
	t.Helper()
	require.NoError(t, r.CheckInvariant())
	for i := 0; i < r.Len(); i++ {
		s := r.At(i)
		if i < r.DyingCount() {
			assert.True(t, dying[s], "index %d below dying count is not dying", i)
		} else {
			assert.False(t, dying[s], "index %d above dying count is dying", i)
		}
	}
}

func TestAddAssignsSaveIndex(t *testing.T) {
	r, f := newRoster(t, false)
	shapes := spawn(t, r, f, 3)
	for i, s := range shapes {
		assert.Equal(t, i, s.SaveIndex())
		assert.Same(t, s, r.At(i))
	}
	assert.Equal(t, 3, r.LiveCount())
	assert.Equal(t, 0, r.DyingCount())
}

func TestAddTwiceRejected(t *testing.T) {
	r, f := newRoster(t, false)
	s := spawn(t, r, f, 1)[0]
	assert.ErrorIs(t, r.Add(s), shape.ErrAlreadyOwned)
	assert.Equal(t, 1, r.Len())
	require.NoError(t, r.CheckInvariant())
}

func TestKillSwapsWithTail(t *testing.T) {
	r, f := newRoster(t, false)
	shapes := spawn(t, r, f, 4)

	r.Kill(shapes[1])

	assert.Equal(t, 3, r.Len())
	assert.Same(t, shapes[3], r.At(1))
	assert.Equal(t, 1, shapes[3].SaveIndex())
	assert.False(t, shapes[1].Registered())
	assert.Equal(t, int32(1), shapes[1].InstanceID())
	require.NoError(t, r.CheckInvariant())
}

func TestMarkAsDyingIsIdempotent(t *testing.T) {
	r, f := newRoster(t, false)
	shapes := spawn(t, r, f, 4)

	r.MarkAsDying(shapes[2])
	r.MarkAsDying(shapes[2])

	assert.Equal(t, 1, r.DyingCount())
	assert.Same(t, shapes[2], r.At(0))
	assert.True(t, r.IsMarkedAsDying(shapes[2]))
	assert.False(t, r.IsMarkedAsDying(shapes[0]))
	assertPartition(t, r, map[*shape.Shape]bool{shapes[2]: true})
}

func TestKillDyingShapeKeepsPartition(t *testing.T) {
	r, f := newRoster(t, false)
	shapes := spawn(t, r, f, 6)
	dying := map[*shape.Shape]bool{}
	for _, s := range shapes[:3] {
		r.MarkAsDying(s)
		dying[s] = true
	}

	r.Kill(shapes[0])
	delete(dying, shapes[0])

	assert.Equal(t, 2, r.DyingCount())
	assert.Equal(t, 5, r.Len())
	assertPartition(t, r, dying)
}

func TestPartitionHoldsUnderRandomOperations(t *testing.T) {
	r, f := newRoster(t, true)
	rng := rand.New(rand.NewPCG(3, 5))
	dying := map[*shape.Shape]bool{}

	for step := 0; step < 2000; step++ {
		switch op := rng.IntN(3); {
		case op == 0 || r.Len() == 0:
			spawn(t, r, f, 1)
		case op == 1:
			s := r.At(rng.IntN(r.Len()))
			delete(dying, s)
			r.Kill(s)
		default:
			s := r.At(rng.IntN(r.Len()))
			dying[s] = true
			r.MarkAsDying(s)
		}
		assertPartition(t, r, dying)
		require.Equal(t, len(dying), r.DyingCount())
	}
}

func TestKillDuringPassIsDeferred(t *testing.T) {
	r, f := newRoster(t, false)
	shapes := spawn(t, r, f, 2)
	focal, sat := shapes[0], shapes[1]

	// The focal shape asks to be killed on its first update; the satellite
	// updates after it in the same pass and must still see it.
	focal.AddBehavior(r.Pools(), shape.Lifecycle).InitLifecycle(r, focal, 0, 0, 0)
	satellite := sat.AddBehavior(r.Pools(), shape.Satellite)
	satellite.InitSatellite(r, sat, focal, 1, 1)

	r.Tick(0.1)

	assert.Equal(t, 1, r.Len(), "kill applied after the pass")
	assert.False(t, focal.Registered())
	assert.True(t, satellite.Attached(), "satellite resolved its focal during the pass")
	assert.Equal(t, shape.Satellite, satellite.Type)
}

func TestFlushDropsStaleRequests(t *testing.T) {
	r, f := newRoster(t, false)
	s := spawn(t, r, f, 1)[0]
	s.AddBehavior(r.Pools(), shape.Lifecycle).InitLifecycle(r, s, 0, 0, 0)
	s.AddBehavior(r.Pools(), shape.Dying).InitDying(r, s, 0)

	r.Tick(0.1)

	assert.Equal(t, 0, r.Len())
	stats := r.Stats()
	assert.Equal(t, 1, stats.Killed)
	assert.Equal(t, 1, stats.DroppedRequests)
	require.NoError(t, r.CheckInvariant())
}

func TestPopulationLimitKillsOnlyLiveShapes(t *testing.T) {
	r, f := newRoster(t, false)
	spawn(t, r, f, 15)
	dyingShapes := spawn(t, r, f, 2)
	dying := map[*shape.Shape]bool{}
	for _, s := range dyingShapes {
		r.MarkAsDying(s)
		dying[s] = true
	}

	destroyed := r.EnforcePopulationLimit(10)

	assert.Equal(t, 5, destroyed)
	assert.Equal(t, 10, r.LiveCount())
	assert.Equal(t, 2, r.DyingCount())
	for _, s := range dyingShapes {
		assert.True(t, s.Registered())
	}
	assertPartition(t, r, dying)
}

func TestPopulationLimitWithDestroyDurationMarksDying(t *testing.T) {
	r, f := newRoster(t, false)
	r.SetDestroyDuration(0.5)
	spawn(t, r, f, 15)

	r.EnforcePopulationLimit(10)

	assert.Equal(t, 10, r.LiveCount())
	assert.Equal(t, 5, r.DyingCount())
	assert.Equal(t, 15, r.Len())
	for i := 0; i < r.DyingCount(); i++ {
		b := r.At(i).Behaviors()
		require.NotEmpty(t, b)
		assert.Equal(t, shape.Dying, b[len(b)-1].Type)
	}
}

func TestPopulationLimitZeroIsUnlimited(t *testing.T) {
	r, f := newRoster(t, false)
	spawn(t, r, f, 5)
	assert.Zero(t, r.EnforcePopulationLimit(0))
	assert.Equal(t, 5, r.Len())
}

func TestResolveGoesStaleAfterKill(t *testing.T) {
	r, f := newRoster(t, true)
	s := spawn(t, r, f, 1)[0]
	inst := shape.InstanceOf(s)

	got, err := r.Resolve(inst)
	require.NoError(t, err)
	assert.Same(t, s, got)

	r.Kill(s)
	_, err = r.Resolve(inst)
	assert.ErrorIs(t, err, shape.ErrStaleReference)

	// The recycled object comes back from the factory under a new generation.
	again := spawn(t, r, f, 1)[0]
	assert.Same(t, s, again)
	_, err = r.Resolve(inst)
	assert.ErrorIs(t, err, shape.ErrStaleReference)
}

func TestClearRecyclesEveryShape(t *testing.T) {
	r, f := newRoster(t, true)
	shapes := spawn(t, r, f, 6)
	r.MarkAsDying(shapes[4])

	r.Clear()

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, r.DyingCount())
	assert.Equal(t, 3, f.Idle(0))
	assert.Equal(t, 3, f.Idle(1))
	for _, s := range shapes {
		assert.False(t, s.Registered())
		assert.Equal(t, int32(1), s.InstanceID())
	}
	require.NoError(t, r.CheckInvariant())
}
