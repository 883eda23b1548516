package system

import (
	"time"

	coresys "github.com/townsim/server/internal/core/system"
	"github.com/townsim/server/internal/world"
)

// AnimationSystem advances cosmetic frames at a fixed rate independent of the
// simulation step. Phase 3 (Animate).
type AnimationSystem struct {
	world    *world.State
	interval time.Duration
	acc      time.Duration
}

func NewAnimationSystem(ws *world.State, rate int) *AnimationSystem {
	if rate <= 0 {
		rate = 6
	}
	return &AnimationSystem{world: ws, interval: time.Second / time.Duration(rate)}
}

func (s *AnimationSystem) Phase() coresys.Phase { return coresys.PhaseAnimate }

func (s *AnimationSystem) Update(dt time.Duration) {
	s.acc += dt
	for s.acc >= s.interval {
		s.acc -= s.interval
		s.world.Context().Entities().AdvanceAnimations()
	}
}
