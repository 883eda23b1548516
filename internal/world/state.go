package world

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/townsim/server/internal/config"
	"github.com/townsim/server/internal/core/event"
	"github.com/townsim/server/internal/data"
	"github.com/townsim/server/internal/pathfind"
)

// ErrCorruptWorld is returned by EndTick when the world ends a tick in a
// state no operation can legally produce.
var ErrCorruptWorld = errors.New("world: corrupt state")

// TickPhase says whether a tick currently holds the write lock.
type TickPhase int32

const (
	PhaseIdle TickPhase = iota
	PhaseTicking
)

// Formulas are the tunable game formulas, usually backed by Lua scripts.
type Formulas interface {
	SoulYield(faith, age float64) int64
	DisasterDamage(distance, radius, intensity float64) float64
}

// State is the whole simulated town behind one RWMutex. The scheduler holds
// the write lock for the duration of a tick; external callers go through the
// locking methods on State.
type State struct {
	mu    sync.RWMutex
	phase atomic.Int32

	grid     *Grid
	clock    *Clock
	treasury *Treasury
	entities *Lifecycle
	catalog  *data.Catalog
	bus      *event.Bus
	formulas Formulas
	rng      *rand.Rand
	cfg      *config.Config
	log      *zap.Logger
	ctx      *Context

	// per tick, valid while phase is PhaseTicking
	dt          float64
	daysElapsed int

	afterDebit func() // test hook between debit and grid write
}

// NewState assembles a world over an existing grid. cfg must already be
// validated.
func NewState(cfg *config.Config, grid *Grid, catalog *data.Catalog, formulas Formulas, bus *event.Bus, log *zap.Logger) *State {
	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := &State{
		grid:     grid,
		clock:    NewClock(cfg.Clock.DayLength, cfg.Clock.TimeScale),
		treasury: NewTreasury(cfg.Economy.StartingSouls),
		catalog:  catalog,
		bus:      bus,
		formulas: formulas,
		rng:      rand.New(rand.NewSource(seed)),
		cfg:      cfg,
		log:      log,
	}
	s.entities = newLifecycle(s)
	s.ctx = &Context{s: s}
	for _, bt := range catalog.Buildings.All() {
		if bt.Effect.Kind != "" && !KnownEffect(bt.Effect.Kind) {
			log.Warn("building effect has no factory",
				zap.String("building", bt.ID), zap.String("effect", bt.Effect.Kind))
		}
	}
	return s
}

// Ticking reports whether a tick is in progress. It is safe to call without
// the lock.
func (s *State) Ticking() bool {
	return TickPhase(s.phase.Load()) == PhaseTicking
}

// BeginTick takes the write lock and returns the context for one step of
// length dt. Every BeginTick must be paired with EndTick.
func (s *State) BeginTick(dt time.Duration) *Context {
	s.mu.Lock()
	s.dt = dt.Seconds()
	s.daysElapsed = 0
	s.phase.Store(int32(PhaseTicking))
	return s.ctx
}

// EndTick validates the world and releases the write lock.
func (s *State) EndTick() error {
	defer s.mu.Unlock()
	s.phase.Store(int32(PhaseIdle))
	if b := s.treasury.Balance(); b < 0 {
		return fmt.Errorf("%w: treasury balance %d", ErrCorruptWorld, b)
	}
	return nil
}

// Context returns the tick context. Only tick systems, between BeginTick and
// EndTick, may use it.
func (s *State) Context() *Context { return s.ctx }

// Entities returns the lifecycle manager.
func (s *State) Entities() *Lifecycle { return s.entities }

func (s *State) Bus() *event.Bus { return s.bus }

func (s *State) Catalog() *data.Catalog { return s.catalog }

func (s *State) Day() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clock.Day()
}

func (s *State) TimeOfDay() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clock.TimeOfDay()
}

func (s *State) Souls() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.treasury.Balance()
}

// SoulCount returns how many dead residents are waiting to be harvested.
func (s *State) SoulCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entities.countResidents(false)
}

// Population returns the number of living residents.
func (s *State) Population() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entities.countResidents(true)
}

// SetTimeScale changes how fast simulated time runs relative to step time.
func (s *State) SetTimeScale(scale float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock.SetTimeScale(scale)
}

// Spawn registers e, deferred to the end of the current tick if one is
// running.
func (s *State) Spawn(e Entity) { s.entities.Spawn(e) }

// Remove unregisters e, deferred to the end of the current tick if one is
// running.
func (s *State) Remove(e Entity) { s.entities.Remove(e) }

// Construct builds typeID with its anchor at (x, y), paying from the
// treasury. It never leaves a partial result: on any failure the treasury
// and grid are unchanged.
func (s *State) Construct(x, y int, typeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.construct(x, y, typeID)
	if !ok {
		return false
	}
	s.entities.add(b)
	return true
}

// HarvestSoul collects the nearest soul within the harvest radius of p.
func (s *State) HarvestSoul(p pathfind.Point) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, yield := s.harvest(p, s.cfg.Residents.HarvestRadius, "harvest")
	if r == nil {
		return 0, false
	}
	s.entities.remove(r)
	return yield, true
}
