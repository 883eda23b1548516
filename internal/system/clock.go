package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/townsim/server/internal/core/event"
	coresys "github.com/townsim/server/internal/core/system"
	"github.com/townsim/server/internal/world"
)

// ClockSystem advances the world clock by the step delta and announces every
// day boundary crossed. Phase 0 (Clock).
type ClockSystem struct {
	world *world.State
	log   *zap.Logger
}

func NewClockSystem(ws *world.State, log *zap.Logger) *ClockSystem {
	return &ClockSystem{world: ws, log: log}
}

func (s *ClockSystem) Phase() coresys.Phase { return coresys.PhaseClock }

func (s *ClockSystem) Update(_ time.Duration) {
	ctx := s.world.Context()
	days := ctx.AdvanceClock()
	if days == 0 {
		return
	}
	first := ctx.Day() - days + 1
	pop, souls := ctx.Population(), ctx.Souls()
	for d := first; d <= ctx.Day(); d++ {
		ctx.Publish(event.DayPassed{Day: d, Population: pop, Souls: souls})
	}
	s.log.Info("day passed", zap.Int("day", ctx.Day()), zap.Int("population", pop), zap.Int64("souls", souls))
}
