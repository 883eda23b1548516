package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/townsim/server/internal/config"
	coresys "github.com/townsim/server/internal/core/system"
	"github.com/townsim/server/internal/world"
)

// Engine runs the registered systems as one world step under the world's
// write lock.
type Engine struct {
	world  *world.State
	runner *coresys.Runner
	log    *zap.Logger
}

// NewEngine registers the standard tick systems in phase order.
func NewEngine(ws *world.State, cfg *config.Config, log *zap.Logger) *Engine {
	runner := coresys.NewRunner()
	runner.Register(NewClockSystem(ws, log))
	runner.Register(NewRebalanceSystem(ws, log))
	runner.Register(NewDisasterSystem(ws, cfg.Disasters, log))
	runner.Register(NewEntityUpdateSystem(ws))
	runner.Register(NewAnimationSystem(ws, cfg.Simulation.AnimationRate))
	runner.Register(NewCleanupSystem(ws))
	return &Engine{world: ws, runner: runner, log: log}
}

// Runner exposes the system runner so callers can register extra systems
// before the scheduler starts.
func (e *Engine) Runner() *coresys.Runner { return e.runner }

// Step advances the world by one fixed step. It matches coresys.StepFunc; a
// returned error means the world is corrupt and the loop must stop.
func (e *Engine) Step(dt time.Duration) error {
	e.world.BeginTick(dt)
	e.runner.Tick(dt)
	if err := e.world.EndTick(); err != nil {
		e.log.Error("world step failed", zap.Error(err))
		return err
	}
	return nil
}
