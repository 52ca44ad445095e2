package system

import (
	"sort"
	"time"
)

// maxCatchUp bounds how many fixed steps one Advance may run after a stall.
// Wall time beyond that is dropped rather than simulated.
const maxCatchUp = 5

// Runner executes systems in phase order, either one tick at a time or in
// fixed steps driven by wall time. Systems sharing a phase run in
// registration order.
type Runner struct {
	systems []System
	sorted  bool

	step    time.Duration
	pending time.Duration
	ticks   uint64
}

// NewRunner returns a runner whose Advance runs ticks of length step.
func NewRunner(step time.Duration) *Runner {
	return &Runner{
		systems: make([]System, 0, 8),
		step:    step,
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		s.Update(dt)
	}
	r.ticks++
}

// Advance accumulates elapsed wall time and runs one Tick per whole step it
// covers. It returns the number of ticks run.
func (r *Runner) Advance(elapsed time.Duration) int {
	if r.step <= 0 {
		return 0
	}
	r.pending += elapsed
	n := 0
	for r.pending >= r.step && n < maxCatchUp {
		r.pending -= r.step
		r.Tick(r.step)
		n++
	}
	if n == maxCatchUp && r.pending >= r.step {
		r.pending %= r.step
	}
	return n
}

// TickPhase 只執行指定 Phase 的 System。
// 主迴圈在兩次模擬 tick 之間只跑 PhaseInput，讓指令不必等到下一個 tick。
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(dt)
		}
	}
}

// Len returns the number of registered systems.
func (r *Runner) Len() int { return len(r.systems) }

// Ticks counts completed full ticks.
func (r *Runner) Ticks() uint64 { return r.ticks }

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
