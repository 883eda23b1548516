package system

import (
	"time"

	coresys "github.com/townsim/server/internal/core/system"
	"github.com/townsim/server/internal/world"
)

// CleanupSystem flushes the deferred spawn/removal queue at tick end.
// Phase 4 (Cleanup).
type CleanupSystem struct {
	world *world.State
}

func NewCleanupSystem(ws *world.State) *CleanupSystem {
	return &CleanupSystem{world: ws}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	ctx := s.world.Context()
	ctx.Entities().FlushDeferred(ctx)
}
