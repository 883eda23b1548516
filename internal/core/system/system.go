package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseClock   Phase = iota // 0: advance world time
	PhaseDaily                // 1: day-boundary work (rebalancing, disasters)
	PhaseUpdate               // 2: per-entity behavior
	PhaseAnimate              // 3: cosmetic frame advance
	PhaseCleanup              // 4: apply deferred spawns/removals
)

func (p Phase) String() string {
	switch p {
	case PhaseClock:
		return "clock"
	case PhaseDaily:
		return "daily"
	case PhaseUpdate:
		return "update"
	case PhaseAnimate:
		return "animate"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
