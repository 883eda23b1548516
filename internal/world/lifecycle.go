package world

import (
	"go.uber.org/zap"

	"github.com/townsim/server/internal/core/ecs"
	"github.com/townsim/server/internal/core/event"
	"github.com/townsim/server/internal/data"
)

// Lifecycle owns every live entity. While a tick runs, structural changes
// are queued and applied by FlushDeferred at the end of the tick, so
// iteration never sees a store change under it.
type Lifecycle struct {
	state     *State
	pool      *ecs.EntityPool
	residents *ecs.Store[*Resident]
	buildings *ecs.Store[*Building]
	hazards   *ecs.Store[*Hazard]
	pending   *ecs.Deferred[Entity]
}

func newLifecycle(s *State) *Lifecycle {
	return &Lifecycle{
		state:     s,
		pool:      ecs.NewEntityPool(),
		residents: ecs.NewStore[*Resident](),
		buildings: ecs.NewStore[*Building](),
		hazards:   ecs.NewStore[*Hazard](),
		pending:   ecs.NewDeferred[Entity](),
	}
}

// Spawn registers e. During a tick the request is queued; otherwise it takes
// the write lock and applies immediately. Buildings are only accepted once
// placed on the grid; use Construct to build one.
func (l *Lifecycle) Spawn(e Entity) {
	if l.state.Ticking() {
		l.pending.QueueSpawn(e)
		return
	}
	l.state.mu.Lock()
	defer l.state.mu.Unlock()
	l.add(e)
}

// Remove unregisters e, queued during a tick like Spawn.
func (l *Lifecycle) Remove(e Entity) {
	if l.state.Ticking() {
		l.pending.QueueRemoval(e)
		return
	}
	l.state.mu.Lock()
	defer l.state.mu.Unlock()
	l.remove(e)
}

// Pending returns the sizes of the deferred queues.
func (l *Lifecycle) Pending() (removals, spawns int) {
	return l.pending.Pending()
}

// Counts returns the live store sizes.
func (l *Lifecycle) Counts() (residents, buildings, hazards int) {
	return l.residents.Len(), l.buildings.Len(), l.hazards.Len()
}

// UpdateAll runs one tick of behavior for every entity not already queued
// for removal: buildings first, then residents, then hazards.
func (l *Lifecycle) UpdateAll(ctx *Context) {
	l.buildings.Each(func(b *Building) {
		if !b.doomed {
			b.Update(ctx)
		}
	})
	l.residents.Each(func(r *Resident) {
		if !r.doomed {
			r.Update(ctx)
		}
	})
	l.hazards.Each(func(h *Hazard) {
		if !h.doomed {
			h.Update(ctx)
		}
	})
}

// AdvanceAnimations steps every entity's cosmetic frame once.
func (l *Lifecycle) AdvanceAnimations() {
	l.buildings.Each(func(b *Building) { b.Animate() })
	l.residents.Each(func(r *Resident) { r.Animate() })
	l.hazards.Each(func(h *Hazard) { h.Animate() })
}

// FlushDeferred applies queued removals, then queued spawns, each in the
// order they were requested.
func (l *Lifecycle) FlushDeferred(ctx *Context) {
	removals, spawns := l.pending.Drain()
	for _, e := range removals {
		l.remove(e)
	}
	for _, e := range spawns {
		l.add(e)
	}
	if len(removals) > 0 || len(spawns) > 0 {
		l.state.log.Debug("flushed deferred entities",
			zap.Int("removed", len(removals)), zap.Int("spawned", len(spawns)))
	}
}

// add registers e under the write lock. A building must already be written
// into the grid (Construct does both); one that is not is rejected.
func (l *Lifecycle) add(e Entity) {
	base := e.base()
	if !base.id.IsZero() && l.pool.Alive(base.id) {
		return
	}
	if b, ok := e.(*Building); ok && !l.state.grid.Holds(b) {
		l.state.log.Warn("building spawn rejected: footprint not on grid",
			zap.String("type", b.Type.ID), zap.Int("x", b.X), zap.Int("y", b.Y))
		return
	}
	base.id = l.pool.Create()
	base.doomed = false

	switch v := e.(type) {
	case *Resident:
		l.dropStaleRefs(v)
		l.residents.Add(v.id, v)
		var home ecs.EntityID
		if v.Home != nil {
			home = v.Home.id
		}
		if h := v.household(); h != nil && v.Alive() {
			h.Population++
		}
		event.Publish(l.state.bus, event.ResidentBorn{Resident: v.id, Home: home})
	case *Building:
		l.buildings.Add(v.id, v)
		l.state.publishMap(v, false)
	case *Hazard:
		l.hazards.Add(v.id, v)
		event.Publish(l.state.bus, event.DisasterOccurred{
			Hazard: v.id, X: v.Pos.X, Y: v.Pos.Y, Radius: v.Radius,
		})
	}
}

// remove unregisters e under the write lock. Removing something that is not
// registered is a no-op.
func (l *Lifecycle) remove(e Entity) {
	base := e.base()
	if base.id.IsZero() || !l.pool.Alive(base.id) {
		return
	}
	switch v := e.(type) {
	case *Resident:
		l.residents.Remove(v.id)
		if h := v.household(); v.Alive() && h != nil && h.Population > 0 {
			h.Population--
		}
	case *Building:
		l.buildings.Remove(v.id)
		l.state.grid.Remove(v)
		l.detach(v)
		l.state.publishMap(v, true)
	case *Hazard:
		l.hazards.Remove(v.id)
	}
	l.pool.Release(base.id)
	base.doomed = true
}

// detach drops every resident reference to a removed building.
func (l *Lifecycle) detach(b *Building) {
	l.residents.Each(func(r *Resident) {
		if r.Home == b {
			r.Home = nil
		}
		if r.Relocation == b {
			r.Relocation = nil
		}
		if r.visiting == b {
			r.visiting = nil
		}
	})
}

// gone reports whether b has been removed or is queued for removal.
func (l *Lifecycle) gone(b *Building) bool {
	return b.doomed || (!b.id.IsZero() && !l.pool.Alive(b.id))
}

// dropStaleRefs clears references a resident picked up before its buildings
// were removed, e.g. a spawn queued in the same tick its home was destroyed.
// A resident left with nowhere to live starts idle.
func (l *Lifecycle) dropStaleRefs(r *Resident) {
	if r.Home != nil && l.gone(r.Home) {
		r.Home = nil
	}
	if r.Relocation != nil && l.gone(r.Relocation) {
		r.Relocation = nil
	}
	if r.visiting != nil && l.gone(r.visiting) {
		r.visiting = nil
	}
	if r.Alive() && r.Home == nil && r.Relocation == nil {
		r.State = StateIdle
		r.hasTarget = false
		r.mover.Clear()
	}
}

func (l *Lifecycle) countResidents(alive bool) int {
	n := 0
	l.residents.Each(func(r *Resident) {
		if r.Alive() == alive {
			n++
		}
	})
	return n
}

func (l *Lifecycle) eachBuilding(c data.Category, fn func(*Building)) {
	l.buildings.Each(func(b *Building) {
		if c == data.CategoryNone || b.Category() == c {
			fn(b)
		}
	})
}
