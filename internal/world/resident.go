package world

import (
	"github.com/townsim/server/internal/core/event"
	"github.com/townsim/server/internal/data"
	"github.com/townsim/server/internal/pathfind"
)

// ResidentState is a resident's position in its daily routine.
type ResidentState uint8

const (
	StateIdle ResidentState = iota // homeless, waiting for a relocation target
	StateAtHome
	StateTraveling
	StateWorking
	StateReturningHome
	StateRelocating
	StateDead
)

var residentStateNames = [...]string{
	StateIdle:          "idle",
	StateAtHome:        "at_home",
	StateTraveling:     "traveling",
	StateWorking:       "working",
	StateReturningHome: "returning_home",
	StateRelocating:    "relocating",
	StateDead:          "dead",
}

func (s ResidentState) String() string {
	if int(s) < len(residentStateNames) {
		return residentStateNames[s]
	}
	return "unknown"
}

const maxFaith = 100

// Resident is a villager. Dead residents stay in the world as souls until
// harvested.
type Resident struct {
	entityBase
	Type       *data.ResidentType
	Pos        pathfind.Point
	HomePos    pathfind.Point
	Home       *Building
	Relocation *Building
	Age        float64
	Faith      float64
	State      ResidentState

	visiting  *Building // destination while traveling or working
	target    pathfind.Point
	hasTarget bool
	wait      float64
	waitSet   bool
	worked    float64
	mover     Mover
}

// NewResident creates a resident of type rt living at home. A nil home
// leaves it idle.
func NewResident(rt *data.ResidentType, home *Building) *Resident {
	r := &Resident{Type: rt, Faith: rt.Faith, State: StateIdle}
	if home != nil {
		r.Home = home
		r.HomePos = home.Anchor()
		r.Pos = r.HomePos
		r.State = StateAtHome
	}
	r.behaviors.Add(residentAction{})
	r.behaviors.Add(aging{})
	return r
}

func (r *Resident) Alive() bool { return r.State != StateDead }

// Visiting returns the building the resident is heading to or working at.
func (r *Resident) Visiting() *Building { return r.visiting }

// Target returns the point the resident is currently walking to.
func (r *Resident) Target() (pathfind.Point, bool) { return r.target, r.hasTarget }

func (r *Resident) Update(ctx *Context) { r.behaviors.Run(ctx, r) }

// Animate advances the walk cycle while the resident is moving.
func (r *Resident) Animate() {
	switch r.State {
	case StateTraveling, StateReturningHome, StateRelocating:
		r.frame++
	default:
		r.frame = 0
	}
}

// AssignRelocation sends the resident to a new home. Whatever it was doing is
// abandoned.
func (r *Resident) AssignRelocation(b *Building) {
	if !r.Alive() {
		return
	}
	r.Relocation = b
	r.visiting = nil
	r.hasTarget = false
	r.mover.Clear()
	r.State = StateRelocating
}

// household is the building the resident counts toward: its relocation
// target while one is set, otherwise its home.
func (r *Resident) household() *Building {
	if r.Relocation != nil {
		return r.Relocation
	}
	return r.Home
}

func (r *Resident) setTarget(p pathfind.Point) {
	r.target = p
	r.hasTarget = true
	r.mover.Clear()
}

func (r *Resident) scheduleWait(ctx *Context) {
	cfg := ctx.s.cfg.Residents
	r.wait = cfg.WaitMin
	if span := cfg.WaitMax - cfg.WaitMin; span > 0 {
		r.wait += ctx.Rand().Float64() * span
	}
	r.waitSet = true
}

func (r *Resident) move(ctx *Context) MoveResult {
	cfg := ctx.s.cfg.Residents
	return r.mover.Step(ctx.Grid(), &r.Pos, r.target, MoverParams{
		Speed:         r.Type.Speed,
		Delta:         ctx.Delta(),
		Epsilon:       cfg.ArrivalEpsilon,
		RetryCooldown: cfg.PathRetryCooldown,
	})
}

// goHome is the recovery path for a failed route: teleport home and lose
// some faith. A homeless resident goes idle where its home used to be.
func (r *Resident) goHome(ctx *Context) {
	r.Pos = r.HomePos
	r.visiting = nil
	r.hasTarget = false
	r.mover.Clear()
	r.Faith -= ctx.s.cfg.Residents.FaithPenalty
	if r.Faith < 0 {
		r.Faith = 0
	}
	r.arriveHome(ctx)
}

func (r *Resident) arriveHome(ctx *Context) {
	r.Pos = r.HomePos
	r.hasTarget = false
	r.worked = 0
	if r.Home == nil {
		r.State = StateIdle
		return
	}
	r.State = StateAtHome
	r.scheduleWait(ctx)
}

func (r *Resident) die(ctx *Context) {
	if r.State == StateDead {
		return
	}
	if h := r.household(); h != nil && h.Population > 0 {
		h.Population--
	}
	r.State = StateDead
	r.visiting = nil
	r.Relocation = nil
	r.hasTarget = false
	r.mover.Clear()
	ctx.Publish(event.ResidentDied{Resident: r.ID(), Age: r.Age})
}

// residentAction drives the daily routine:
//
//	AT_HOME --wait--> TRAVELING --arrive--> WORKING --done--> RETURNING_HOME --arrive--> AT_HOME
//
// with RELOCATING entered from any living state by the rebalancer.
type residentAction struct{}

func (residentAction) Exclusive() bool { return true }

func (residentAction) Tick(ctx *Context, self Entity) {
	r, ok := self.(*Resident)
	if !ok {
		return
	}
	switch r.State {
	case StateIdle:
		if r.Home != nil {
			r.arriveHome(ctx)
		}

	case StateAtHome:
		if r.Home == nil {
			r.State = StateIdle
			return
		}
		if !r.waitSet {
			r.scheduleWait(ctx)
		}
		r.wait -= ctx.Delta()
		if r.wait > 0 {
			return
		}
		r.waitSet = false
		dest := pickDestination(ctx, r)
		if dest == nil {
			r.scheduleWait(ctx)
			return
		}
		entry, ok := ctx.Grid().EntryPoint(dest, r.Pos)
		if !ok {
			r.scheduleWait(ctx)
			return
		}
		r.visiting = dest
		r.setTarget(entry)
		r.State = StateTraveling

	case StateTraveling:
		switch r.move(ctx) {
		case MoveArrived:
			r.worked = 0
			r.hasTarget = false
			r.State = StateWorking
		case MoveFailed:
			r.goHome(ctx)
		}

	case StateWorking:
		r.worked += ctx.Delta()
		if r.worked < ctx.s.cfg.Residents.WorkDuration && r.visiting != nil {
			return
		}
		r.visiting = nil
		if r.Home == nil {
			r.State = StateIdle
			return
		}
		entry, ok := ctx.Grid().EntryPoint(r.Home, r.Pos)
		if !ok {
			r.goHome(ctx)
			return
		}
		r.setTarget(entry)
		r.State = StateReturningHome

	case StateReturningHome:
		switch r.move(ctx) {
		case MoveArrived:
			r.mover.Clear()
			r.arriveHome(ctx)
		case MoveFailed:
			r.goHome(ctx)
		}

	case StateRelocating:
		if r.Relocation == nil {
			r.goHome(ctx)
			return
		}
		if !r.hasTarget {
			entry, ok := ctx.Grid().EntryPoint(r.Relocation, r.Pos)
			if !ok {
				r.Relocation = nil
				r.goHome(ctx)
				return
			}
			r.setTarget(entry)
		}
		switch r.move(ctx) {
		case MoveArrived:
			r.Home = r.Relocation
			r.HomePos = r.Home.Anchor()
			r.Relocation = nil
			r.arriveHome(ctx)
		case MoveFailed:
			r.Relocation = nil
			r.goHome(ctx)
		}
	}
}

// pickDestination chooses uniformly among buildings a resident can visit:
// anything but houses, roads and its own home.
func pickDestination(ctx *Context, r *Resident) *Building {
	var candidates []*Building
	ctx.EachBuilding(data.CategoryNone, func(b *Building) {
		if b == r.Home || b.Type.Road {
			return
		}
		switch b.Category() {
		case data.CategoryReligious, data.CategoryCemetery, data.CategoryInfrastructure:
			candidates = append(candidates, b)
		}
	})
	if len(candidates) == 0 {
		return nil
	}
	return candidates[ctx.Rand().Intn(len(candidates))]
}
