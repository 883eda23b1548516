package world

import "github.com/townsim/server/internal/pathfind"

// MoveResult is the outcome of one Mover step.
type MoveResult uint8

const (
	MoveInProgress MoveResult = iota
	MoveArrived
	MoveFailed
)

func (r MoveResult) String() string {
	switch r {
	case MoveArrived:
		return "arrived"
	case MoveFailed:
		return "failed"
	default:
		return "in_progress"
	}
}

// Mover walks a position along a planned route. It caches the route per
// destination and, after a failed search, refuses to search for the same
// destination again until its retry cooldown runs out.
type Mover struct {
	dest     pathfind.Point
	route    []pathfind.Point
	next     int
	active   bool
	cooldown float64
	failed   pathfind.Point
}

// MoverParams are the per-step movement inputs.
type MoverParams struct {
	Speed         float64 // cells per second
	Delta         float64 // seconds
	Epsilon       float64 // arrival tolerance
	RetryCooldown float64 // seconds
}

// Clear drops the cached route. The retry cooldown survives.
func (m *Mover) Clear() {
	m.route = nil
	m.next = 0
	m.active = false
}

func (m *Mover) Active() bool { return m.active }

// Remaining returns the waypoints not yet reached.
func (m *Mover) Remaining() []pathfind.Point {
	if !m.active || m.next >= len(m.route) {
		return nil
	}
	return m.route[m.next:]
}

// Step advances *pos toward dest by Speed*Delta along the cached route,
// planning one first if needed.
func (m *Mover) Step(g pathfind.Grid, pos *pathfind.Point, dest pathfind.Point, p MoverParams) MoveResult {
	if m.cooldown > 0 {
		m.cooldown -= p.Delta
		if m.cooldown < 0 {
			m.cooldown = 0
		}
	}
	if !m.active || m.dest != dest {
		if m.cooldown > 0 && m.failed == dest {
			return MoveFailed
		}
		route, err := pathfind.Find(g, *pos, dest)
		if err != nil {
			m.Clear()
			m.failed = dest
			m.cooldown = p.RetryCooldown
			return MoveFailed
		}
		m.route = route
		m.next = 0
		m.dest = dest
		m.active = true
	}

	budget := p.Speed * p.Delta
	for budget > 0 && m.next < len(m.route) {
		budget = moveToward(pos, m.route[m.next], budget)
		if *pos == m.route[m.next] {
			m.next++
		}
	}
	if m.next >= len(m.route) && budget > 0 {
		moveToward(pos, dest, budget)
	}
	if m.next >= len(m.route) && pos.Dist(dest) <= p.Epsilon {
		*pos = dest
		m.Clear()
		return MoveArrived
	}
	return MoveInProgress
}

// moveToward moves *pos up to budget toward target and returns the unspent
// budget. Reaching the target snaps onto it exactly.
func moveToward(pos *pathfind.Point, target pathfind.Point, budget float64) float64 {
	d := pos.Dist(target)
	if d <= budget {
		*pos = target
		return budget - d
	}
	frac := budget / d
	pos.X += (target.X - pos.X) * frac
	pos.Y += (target.Y - pos.Y) * frac
	return 0
}
