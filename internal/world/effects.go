package world

import (
	"github.com/townsim/server/internal/data"
)

// aging runs alongside a resident's routine.
type aging struct{}

func (aging) Exclusive() bool { return false }

func (aging) Tick(ctx *Context, self Entity) {
	r, ok := self.(*Resident)
	if !ok || !r.Alive() {
		return
	}
	r.Age += r.Type.AgeRate * ctx.Delta()
	if r.Age >= r.Type.MaxAge {
		r.die(ctx)
	}
}

// populationGrowth spawns a new resident at its house every interval while
// the house is below capacity.
type populationGrowth struct {
	interval float64
	elapsed  float64
}

func newPopulationGrowth(spec data.EffectSpec) Behavior {
	return &populationGrowth{interval: spec.Interval}
}

func (*populationGrowth) Exclusive() bool { return false }

func (g *populationGrowth) Tick(ctx *Context, self Entity) {
	b, ok := self.(*Building)
	if !ok || g.interval <= 0 {
		return
	}
	g.elapsed += ctx.Delta()
	if g.elapsed < g.interval {
		return
	}
	g.elapsed -= g.interval
	if b.Population >= b.Type.Capacity {
		return
	}
	ctx.Spawn(NewResident(ctx.s.catalog.Residents.Default(), b))
}

// faithAura raises the faith of residents working at the building.
type faithAura struct {
	rate float64
}

func newFaithAura(spec data.EffectSpec) Behavior {
	return faithAura{rate: spec.Rate}
}

func (faithAura) Exclusive() bool { return false }

func (a faithAura) Tick(ctx *Context, self Entity) {
	b, ok := self.(*Building)
	if !ok {
		return
	}
	gain := a.rate * ctx.Delta()
	ctx.EachResident(func(r *Resident) {
		if r.State != StateWorking || r.visiting != b {
			return
		}
		r.Faith += gain
		if r.Faith > maxFaith {
			r.Faith = maxFaith
		}
	})
}

// soulWell periodically harvests the nearest soul within its radius.
type soulWell struct {
	interval float64
	radius   float64
	elapsed  float64
}

func newSoulWell(spec data.EffectSpec) Behavior {
	return &soulWell{interval: spec.Interval, radius: spec.Radius}
}

func (*soulWell) Exclusive() bool { return false }

func (w *soulWell) Tick(ctx *Context, self Entity) {
	b, ok := self.(*Building)
	if !ok || w.interval <= 0 {
		return
	}
	w.elapsed += ctx.Delta()
	if w.elapsed < w.interval {
		return
	}
	w.elapsed -= w.interval
	ctx.harvest(b.Center(), w.radius, "soul_well:"+b.Type.ID)
}

// disasterImpact wears down buildings inside a hazard's radius and expires
// the hazard when its lifetime runs out.
type disasterImpact struct{}

func (disasterImpact) Exclusive() bool { return false }

func (disasterImpact) Tick(ctx *Context, self Entity) {
	h, ok := self.(*Hazard)
	if !ok {
		return
	}
	dt := ctx.Delta()
	ctx.EachBuilding(data.CategoryNone, func(b *Building) {
		if b.doomed || b.Durability <= 0 {
			return
		}
		d := b.Center().Dist(h.Pos)
		if d > h.Radius {
			return
		}
		b.Durability -= ctx.Formulas().DisasterDamage(d, h.Radius, h.Intensity) * dt
		if b.Durability <= 0 {
			b.Durability = 0
			ctx.Remove(b)
		}
	})
	h.Remaining -= dt
	if h.Remaining <= 0 {
		ctx.Remove(h)
	}
}
