package world

import (
	"math/rand"

	"github.com/townsim/server/internal/data"
	"github.com/townsim/server/internal/pathfind"
)

// Context is the view of the world handed to systems and behaviors during a
// tick. The tick already holds the write lock, so nothing here locks; a
// Context must not be used outside BeginTick/EndTick.
type Context struct {
	s *State
}

// Delta is the length of the current step in seconds.
func (c *Context) Delta() float64 { return c.s.dt }

func (c *Context) Day() int                { return c.s.clock.Day() }
func (c *Context) TimeOfDay() float64      { return c.s.clock.TimeOfDay() }
func (c *Context) NormalizedTime() float64 { return c.s.clock.Normalized() }
func (c *Context) DayLength() float64      { return c.s.clock.DayLength() }

// DaysElapsed is how many day boundaries the clock crossed this tick.
func (c *Context) DaysElapsed() int { return c.s.daysElapsed }

// AdvanceClock moves the clock by this tick's delta and records the crossed
// day boundaries. Only the clock system calls it, once per tick.
func (c *Context) AdvanceClock() int {
	days := c.s.clock.Advance(c.s.dt)
	c.s.daysElapsed += days
	return days
}

func (c *Context) Grid() *Grid            { return c.s.grid }
func (c *Context) Rand() *rand.Rand       { return c.s.rng }
func (c *Context) Formulas() Formulas     { return c.s.formulas }
func (c *Context) Catalog() *data.Catalog { return c.s.catalog }
func (c *Context) Entities() *Lifecycle   { return c.s.entities }

func (c *Context) Souls() int64 { return c.s.treasury.Balance() }

// Population counts living residents.
func (c *Context) Population() int { return c.s.entities.countResidents(true) }

func (c *Context) EachResident(fn func(*Resident)) {
	c.s.entities.residents.Each(fn)
}

// EachBuilding visits buildings of category cat; CategoryNone visits all.
func (c *Context) EachBuilding(cat data.Category, fn func(*Building)) {
	c.s.entities.eachBuilding(cat, fn)
}

func (c *Context) EachHazard(fn func(*Hazard)) {
	c.s.entities.hazards.Each(fn)
}

// Spawn queues e for registration at the end of the tick.
func (c *Context) Spawn(e Entity) {
	c.s.entities.pending.QueueSpawn(e)
}

// Remove queues e for removal at the end of the tick. It is skipped by
// updates and harvesting for the rest of the tick.
func (c *Context) Remove(e Entity) {
	base := e.base()
	if base.doomed {
		return
	}
	base.doomed = true
	c.s.entities.pending.QueueRemoval(e)
}

// Construct places a building immediately; it is registered as an entity
// when the tick's deferred queue flushes.
func (c *Context) Construct(x, y int, typeID string) bool {
	b, ok := c.s.construct(x, y, typeID)
	if !ok {
		return false
	}
	c.s.entities.pending.QueueSpawn(b)
	return true
}

// HarvestSoul collects the nearest soul within the harvest radius of p.
func (c *Context) HarvestSoul(p pathfind.Point) (int64, bool) {
	return c.harvest(p, c.s.cfg.Residents.HarvestRadius, "harvest")
}

func (c *Context) harvest(p pathfind.Point, radius float64, reason string) (int64, bool) {
	r, yield := c.s.harvest(p, radius, reason)
	if r == nil {
		return 0, false
	}
	c.Remove(r)
	return yield, true
}

// Publish delivers ev synchronously to the bus subscribers.
func (c *Context) Publish(ev any) {
	c.s.bus.Emit(ev)
}
