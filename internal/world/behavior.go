package world

import "github.com/townsim/server/internal/data"

// Behavior is one unit of per-tick logic attached to an entity.
type Behavior interface {
	// Exclusive behaviors compete: at most one runs per tick, the first
	// added. Non-exclusive ones all run.
	Exclusive() bool
	Tick(ctx *Context, self Entity)
}

// Behaviors is an entity's ordered behavior list.
type Behaviors struct {
	list []Behavior
}

func (b *Behaviors) Add(x Behavior) {
	b.list = append(b.list, x)
}

func (b *Behaviors) Len() int { return len(b.list) }

func (b *Behaviors) Run(ctx *Context, self Entity) {
	exclusiveRan := false
	for _, x := range b.list {
		if x.Exclusive() {
			if exclusiveRan {
				continue
			}
			exclusiveRan = true
		}
		x.Tick(ctx, self)
	}
}

// EffectFactory builds a fresh effect instance for one building.
type EffectFactory func(spec data.EffectSpec) Behavior

var effectFactories = map[string]EffectFactory{
	"population_growth": newPopulationGrowth,
	"faith_aura":        newFaithAura,
	"soul_well":         newSoulWell,
}

// RegisterEffect adds or replaces an effect kind in the factory table. Call
// it before any building of that kind is constructed.
func RegisterEffect(kind string, f EffectFactory) {
	effectFactories[kind] = f
}

// KnownEffect reports whether kind has a factory.
func KnownEffect(kind string) bool {
	_, ok := effectFactories[kind]
	return ok
}

func newEffect(spec data.EffectSpec) Behavior {
	if spec.Kind == "" {
		return nil
	}
	f, ok := effectFactories[spec.Kind]
	if !ok {
		return nil
	}
	return f(spec)
}
