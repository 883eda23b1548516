package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/townsim/server/internal/config"
	coresys "github.com/townsim/server/internal/core/system"
	"github.com/townsim/server/internal/pathfind"
	"github.com/townsim/server/internal/world"
)

// DisasterSystem rolls once per elapsed day for a hazard at a random cell.
// Phase 1 (Daily).
type DisasterSystem struct {
	world *world.State
	cfg   config.DisasterConfig
	log   *zap.Logger
}

func NewDisasterSystem(ws *world.State, cfg config.DisasterConfig, log *zap.Logger) *DisasterSystem {
	return &DisasterSystem{world: ws, cfg: cfg, log: log}
}

func (s *DisasterSystem) Phase() coresys.Phase { return coresys.PhaseDaily }

func (s *DisasterSystem) Update(_ time.Duration) {
	if !s.cfg.Enabled {
		return
	}
	ctx := s.world.Context()
	for d := 0; d < ctx.DaysElapsed(); d++ {
		if ctx.Rand().Float64() >= s.cfg.Chance {
			continue
		}
		g := ctx.Grid()
		at := pathfind.Cell{X: ctx.Rand().Intn(g.Width()), Y: ctx.Rand().Intn(g.Height())}.Center()
		ctx.Spawn(world.NewHazard(at, s.cfg.Radius, s.cfg.Intensity, s.cfg.Lifetime))
		s.log.Info("disaster struck",
			zap.Int("day", ctx.Day()),
			zap.Float64("x", at.X),
			zap.Float64("y", at.Y),
			zap.Float64("radius", s.cfg.Radius))
	}
}
