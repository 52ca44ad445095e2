package system

import (
	"time"

	"github.com/shapeflow/shapesim/internal/core/event"
	coresys "github.com/shapeflow/shapesim/internal/core/system"
	"github.com/shapeflow/shapesim/internal/roster"
	"go.uber.org/zap"
)

// Counters aggregates roster events.
type Counters struct {
	Spawned     int
	Killed      int
	MarkedDying int
	Loads       int
	Saves       int
	// TotalAge sums the age of killed shapes, for the mean lifetime.
	TotalAge float64
}

// StatsSystem counts roster events and periodically logs the population.
// Phase 3 (PostUpdate).
type StatsSystem struct {
	roster   *roster.Roster
	counters Counters
	interval time.Duration
	elapsed  time.Duration
	log      *zap.Logger
}

func NewStatsSystem(r *roster.Roster, bus *event.Bus, interval time.Duration, log *zap.Logger) *StatsSystem {
	s := &StatsSystem{roster: r, interval: interval, log: log}
	event.Subscribe(bus, func(event.ShapeSpawned) { s.counters.Spawned++ })
	event.Subscribe(bus, func(e event.ShapeKilled) {
		s.counters.Killed++
		s.counters.TotalAge += float64(e.Age)
	})
	event.Subscribe(bus, func(event.ShapeMarkedDying) { s.counters.MarkedDying++ })
	event.Subscribe(bus, func(event.GameLoaded) { s.counters.Loads++ })
	event.Subscribe(bus, func(event.GameSaved) { s.counters.Saves++ })
	return s
}

func (s *StatsSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *StatsSystem) Counters() Counters { return s.counters }

func (s *StatsSystem) Update(dt time.Duration) {
	if s.interval <= 0 {
		return
	}
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed = 0

	meanAge := 0.0
	if s.counters.Killed > 0 {
		meanAge = s.counters.TotalAge / float64(s.counters.Killed)
	}
	st := s.roster.Stats()
	s.log.Info("population",
		zap.Int("live", s.roster.LiveCount()),
		zap.Int("dying", s.roster.DyingCount()),
		zap.Int("spawned", s.counters.Spawned),
		zap.Int("killed", s.counters.Killed),
		zap.Float64("mean_age", meanAge),
		zap.Int("dropped_requests", st.DroppedRequests),
	)
}
