package system

import (
	"time"

	coresys "github.com/townsim/server/internal/core/system"
	"github.com/townsim/server/internal/world"
)

// EntityUpdateSystem runs every entity's behaviors for the step.
// Phase 2 (Update).
type EntityUpdateSystem struct {
	world *world.State
}

func NewEntityUpdateSystem(ws *world.State) *EntityUpdateSystem {
	return &EntityUpdateSystem{world: ws}
}

func (s *EntityUpdateSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *EntityUpdateSystem) Update(_ time.Duration) {
	ctx := s.world.Context()
	ctx.Entities().UpdateAll(ctx)
}
