// Package game ties the roster, the factories and the levels together into
// one simulation and owns its save format.
package game

import (
	"fmt"
	"math/rand/v2"

	"github.com/shapeflow/shapesim/internal/core/event"
	"github.com/shapeflow/shapesim/internal/level"
	"github.com/shapeflow/shapesim/internal/roster"
	"github.com/shapeflow/shapesim/internal/shape"
	"go.uber.org/zap"
)

// Options are the simulation knobs read from configuration.
type Options struct {
	Seed         uint64
	ReseedOnLoad bool
	StartLevel   int32

	// CreationRate and DestructionRate are in shapes per second.
	CreationRate    float32
	DestructionRate float32
	// DestroyDuration makes random destruction shrink shapes first.
	DestroyDuration float32
}

// Game is a single-goroutine simulation. Save and Load must not be called
// from inside Update.
type Game struct {
	roster    *roster.Roster
	pools     *shape.Pools
	factories *shape.FactoryRegistry
	levels    *level.Registry
	level     *level.Level

	pcg *rand.PCG
	rng *rand.Rand

	creationRate        float32
	creationProgress    float32
	destructionRate     float32
	destructionProgress float32

	opts Options
	bus  *event.Bus
	log  *zap.Logger
}

// New builds a game on the start level. bus may be nil.
func New(factories *shape.FactoryRegistry, levels *level.Registry, opts Options, bus *event.Bus, log *zap.Logger) (*Game, error) {
	lvl, err := levels.Get(opts.StartLevel)
	if err != nil {
		return nil, fmt.Errorf("start level: %w", err)
	}
	pcg := rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)
	rng := rand.New(pcg)
	pools := shape.NewPools()

	r := roster.New(pools, rng, bus, log.Named("roster"))
	r.SetDestroyDuration(opts.DestroyDuration)

	return &Game{
		roster:          r,
		pools:           pools,
		factories:       factories,
		levels:          levels,
		level:           lvl,
		pcg:             pcg,
		rng:             rng,
		creationRate:    opts.CreationRate,
		destructionRate: opts.DestructionRate,
		opts:            opts,
		bus:             bus,
		log:             log,
	}, nil
}

func (g *Game) Roster() *roster.Roster            { return g.roster }
func (g *Game) Pools() *shape.Pools               { return g.pools }
func (g *Game) Factories() *shape.FactoryRegistry { return g.factories }
func (g *Game) Level() *level.Level               { return g.level }
func (g *Game) Rand() *rand.Rand                  { return g.rng }

// Rates returns the creation and destruction rates in shapes per second.
func (g *Game) Rates() (creation, destruction float32) {
	return g.creationRate, g.destructionRate
}

// SetRates changes the creation and destruction rates. Negative rates are
// treated as zero.
func (g *Game) SetRates(creation, destruction float32) {
	g.creationRate = max(creation, 0)
	g.destructionRate = max(destruction, 0)
}

// SetLevel switches to another level. Shapes already spawned stay.
func (g *Game) SetLevel(id int32) error {
	lvl, err := g.levels.Get(id)
	if err != nil {
		return err
	}
	g.level = lvl
	g.log.Info("level changed", zap.Int32("level", id), zap.String("name", lvl.Name))
	return nil
}

// Update advances the simulation by dt seconds: shapes first, then level
// objects, then spawning and destruction, then the population limit.
func (g *Game) Update(dt float32) {
	g.roster.Tick(dt)
	g.level.GameUpdate(dt)

	g.creationProgress += g.creationRate * dt
	for g.creationProgress >= 1 {
		g.creationProgress--
		if err := g.SpawnShape(); err != nil {
			g.log.Error("spawn failed", zap.Error(err))
			g.creationProgress = 0
			break
		}
	}

	g.destructionProgress += g.destructionRate * dt
	for g.destructionProgress >= 1 {
		g.destructionProgress--
		g.roster.DestroyRandom()
	}

	if n := g.roster.EnforcePopulationLimit(g.level.PopulationLimit); n > 0 {
		g.log.Debug("population limit enforced",
			zap.Int("destroyed", n),
			zap.Int("limit", g.level.PopulationLimit),
		)
	}
}

// SpawnShape spawns one shape in the current level.
func (g *Game) SpawnShape() error {
	return g.level.SpawnShape(g.roster)
}

// DestroyShape destroys one random live shape.
func (g *Game) DestroyShape() bool {
	return g.roster.DestroyRandom()
}

// NewGame recycles every shape, resets the rate accumulators and reseeds the
// generator from its own stream.
func (g *Game) NewGame() {
	g.roster.Clear()
	g.creationProgress = 0
	g.destructionProgress = 0
	g.pcg.Seed(g.rng.Uint64(), g.rng.Uint64())
	g.log.Info("new game", zap.Int32("level", g.level.ID))
}
