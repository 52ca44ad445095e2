package system

import (
	"context"
	"fmt"
	"time"

	"github.com/shapeflow/shapesim/internal/core/event"
	coresys "github.com/shapeflow/shapesim/internal/core/system"
	"github.com/shapeflow/shapesim/internal/game"
	"github.com/shapeflow/shapesim/internal/persist"
	"go.uber.org/zap"
)

// Saves moves the game in and out of a storage backend. An empty slot name
// means the configured default slot.
type Saves struct {
	game        *game.Game
	store       persist.Storage
	defaultSlot string
	bus         *event.Bus
	log         *zap.Logger
}

func NewSaves(g *game.Game, store persist.Storage, defaultSlot string, bus *event.Bus, log *zap.Logger) *Saves {
	return &Saves{game: g, store: store, defaultSlot: defaultSlot, bus: bus, log: log}
}

func (s *Saves) slot(name string) string {
	if name == "" {
		return s.defaultSlot
	}
	return name
}

func (s *Saves) Save(ctx context.Context, slot string) error {
	slot = s.slot(slot)
	data, err := s.game.Save()
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := s.store.Save(ctx, slot, data); err != nil {
		return err
	}
	s.log.Info("game saved",
		zap.String("slot", slot),
		zap.Int("bytes", len(data)),
		zap.Int("shapes", s.game.Roster().Len()),
	)
	event.Emit(s.bus, event.GameSaved{Slot: slot, Bytes: len(data)})
	return nil
}

// Load replaces the running game with the slot's contents. On any error the
// running game is left as it was.
func (s *Saves) Load(ctx context.Context, slot string) error {
	slot = s.slot(slot)
	data, err := s.store.Load(ctx, slot)
	if err != nil {
		return err
	}
	return s.game.Load(data)
}

// AutosaveSystem saves the game to the default slot every interval of
// simulated time. Phase 4 (Persist).
type AutosaveSystem struct {
	saves    *Saves
	interval time.Duration
	elapsed  time.Duration
	log      *zap.Logger
}

func NewAutosaveSystem(saves *Saves, interval time.Duration, log *zap.Logger) *AutosaveSystem {
	return &AutosaveSystem{saves: saves, interval: interval, log: log}
}

func (s *AutosaveSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *AutosaveSystem) Update(dt time.Duration) {
	if s.interval <= 0 {
		return
	}
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed = 0
	s.SaveNow()
}

// SaveNow saves immediately. Called for graceful shutdown.
func (s *AutosaveSystem) SaveNow() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.saves.Save(ctx, ""); err != nil {
		s.log.Error("autosave failed", zap.Error(err))
		return err
	}
	return nil
}
