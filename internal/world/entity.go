package world

import (
	"github.com/townsim/server/internal/core/ecs"
	"github.com/townsim/server/internal/data"
	"github.com/townsim/server/internal/pathfind"
)

// Entity is anything the lifecycle manager stores and updates each tick:
// *Resident, *Building or *Hazard.
type Entity interface {
	ID() ecs.EntityID
	Update(ctx *Context)
	Animate()
	base() *entityBase
}

type entityBase struct {
	id        ecs.EntityID
	behaviors Behaviors
	frame     int
	doomed    bool // queued for removal this tick
}

func (e *entityBase) ID() ecs.EntityID      { return e.id }
func (e *entityBase) Frame() int            { return e.frame }
func (e *entityBase) Behaviors() *Behaviors { return &e.behaviors }
func (e *entityBase) base() *entityBase     { return e }

// Building is a placed instance of a catalog building type. X, Y is the
// anchor (top-left of the footprint box).
type Building struct {
	entityBase
	Type       *data.BuildingType
	X, Y       int
	Durability float64
	Population int // displayed population, written by the rebalancer
}

// NewBuilding creates a building of type bt anchored at (x, y) with the
// type's effect attached. It is not placed on any grid.
func NewBuilding(bt *data.BuildingType, x, y int) *Building {
	b := &Building{Type: bt, X: x, Y: y, Durability: bt.Durability}
	if fx := newEffect(bt.Effect); fx != nil {
		b.behaviors.Add(fx)
	}
	return b
}

func (b *Building) Category() data.Category { return b.Type.Category }

func (b *Building) Update(ctx *Context) { b.behaviors.Run(ctx, b) }

func (b *Building) Animate() { b.frame++ }

// Occupies reports whether world cell (x, y) is part of b's footprint.
func (b *Building) Occupies(x, y int) bool {
	return b.Type.Occupies(x-b.X, y-b.Y)
}

// Anchor is the centre of the anchor cell; residents living here rest on it.
func (b *Building) Anchor() pathfind.Point {
	return pathfind.Cell{X: b.X, Y: b.Y}.Center()
}

// Center is the centre of the footprint box.
func (b *Building) Center() pathfind.Point {
	return pathfind.Point{
		X: float64(b.X) + float64(b.Type.Width)/2,
		Y: float64(b.Y) + float64(b.Type.Height)/2,
	}
}

func (b *Building) eachCell(fn func(x, y int, spec data.CellSpec)) {
	for dy := 0; dy < b.Type.Height; dy++ {
		for dx := 0; dx < b.Type.Width; dx++ {
			spec := b.Type.Cell(dx, dy)
			if spec.Occupied {
				fn(b.X+dx, b.Y+dy, spec)
			}
		}
	}
}

// Hazard is a short-lived disaster zone that wears down buildings in range.
type Hazard struct {
	entityBase
	Pos       pathfind.Point
	Radius    float64
	Intensity float64
	Remaining float64 // seconds until it expires
}

func NewHazard(pos pathfind.Point, radius, intensity, lifetime float64) *Hazard {
	h := &Hazard{Pos: pos, Radius: radius, Intensity: intensity, Remaining: lifetime}
	h.behaviors.Add(disasterImpact{})
	return h
}

func (h *Hazard) Update(ctx *Context) { h.behaviors.Run(ctx, h) }

func (h *Hazard) Animate() { h.frame++ }
