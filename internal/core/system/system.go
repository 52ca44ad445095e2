package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain driver commands (spawn, destroy, save, load)
	PhasePreUpdate               // 1: dispatch last tick's events
	PhaseUpdate                  // 2: simulation step
	PhasePostUpdate              // 3: stats, population reporting
	PhasePersist                 // 4: autosave
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post-update"
	case PhasePersist:
		return "persist"
	}
	return "unknown"
}

// System is the interface every phase system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
