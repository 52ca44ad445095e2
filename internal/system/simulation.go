package system

import (
	"time"

	coresys "github.com/shapeflow/shapesim/internal/core/system"
	"github.com/shapeflow/shapesim/internal/game"
)

// SimulationSystem advances the game by the tick duration. Phase 2 (Update).
type SimulationSystem struct {
	game *game.Game
}

func NewSimulationSystem(g *game.Game) *SimulationSystem {
	return &SimulationSystem{game: g}
}

func (s *SimulationSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SimulationSystem) Update(dt time.Duration) {
	s.game.Update(float32(dt.Seconds()))
}
