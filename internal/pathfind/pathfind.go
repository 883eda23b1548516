// Package pathfind plans minimum-cost routes over a 4-connected cost grid.
package pathfind

import (
	"container/heap"
	"errors"
	"math"
)

// Impassable is the move cost at or above which a cell cannot be entered.
// It is far larger than any sum of ordinary cell costs along a route on maps
// this engine supports, so a blocked cell can never look cheaper than a
// detour.
const Impassable = 1 << 30

// ErrNoPath is returned when the goal cannot be reached.
var ErrNoPath = errors.New("pathfind: no path")

// Grid is the cost view the planner searches.
type Grid interface {
	Width() int
	Height() int
	// MoveCost is the cost of entering cell (x, y). Out-of-range cells and
	// cells costing Impassable or more are never entered.
	MoveCost(x, y int) int
}

// Point is a continuous grid position; cell (x, y) spans [x, x+1) × [y, y+1).
type Point struct {
	X, Y float64
}

// Cell is an integer grid coordinate.
type Cell struct {
	X, Y int
}

// Center returns the centre point of c.
func (c Cell) Center() Point {
	return Point{X: float64(c.X) + 0.5, Y: float64(c.Y) + 0.5}
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Snap floors p to a cell and clamps it into g's bounds.
func Snap(g Grid, p Point) Cell {
	x := int(math.Floor(p.X))
	y := int(math.Floor(p.Y))
	return Cell{X: clampInt(x, 0, g.Width()-1), Y: clampInt(y, 0, g.Height()-1)}
}

// Walkable reports whether (x, y) is in bounds and enterable.
func Walkable(g Grid, x, y int) bool {
	if x < 0 || y < 0 || x >= g.Width() || y >= g.Height() {
		return false
	}
	return g.MoveCost(x, y) < Impassable
}

var neighborOffsets = [...]Cell{
	{X: 0, Y: -1},
	{X: 1, Y: 0},
	{X: 0, Y: 1},
	{X: -1, Y: 0},
}

// Find returns the cell-centre waypoints of a minimum-cost route from the
// cell containing from to the cell containing to, excluding the start cell.
// An empty route means both points share a cell. ErrNoPath is returned when
// the goal cell is not walkable or not reachable.
func Find(g Grid, from, to Point) ([]Point, error) {
	start := Snap(g, from)
	goal := Snap(g, to)
	if start == goal {
		return []Point{}, nil
	}
	if !Walkable(g, goal.X, goal.Y) {
		return nil, ErrNoPath
	}

	w, h := g.Width(), g.Height()
	n := w * h
	dist := make([]int, n)
	prev := make([]int, n)
	for i := range dist {
		dist[i] = math.MaxInt
		prev[i] = -1
	}

	startIdx := start.Y*w + start.X
	goalIdx := goal.Y*w + goal.X
	dist[startIdx] = 0

	open := &nodeHeap{}
	heap.Push(open, node{idx: startIdx, cost: 0})

	for open.Len() > 0 {
		cur := heap.Pop(open).(node)
		if cur.cost != dist[cur.idx] {
			continue // stale entry
		}
		if cur.idx == goalIdx {
			break
		}
		cx, cy := cur.idx%w, cur.idx/w
		for _, d := range neighborOffsets {
			nx, ny := cx+d.X, cy+d.Y
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			step := g.MoveCost(nx, ny)
			if step >= Impassable {
				continue
			}
			nIdx := ny*w + nx
			cost := cur.cost + step
			if cost < dist[nIdx] {
				dist[nIdx] = cost
				prev[nIdx] = cur.idx
				heap.Push(open, node{idx: nIdx, cost: cost})
			}
		}
	}

	if dist[goalIdx] == math.MaxInt {
		return nil, ErrNoPath
	}

	var route []Point
	for idx := goalIdx; idx != startIdx; idx = prev[idx] {
		route = append(route, Cell{X: idx % w, Y: idx / w}.Center())
	}
	for i, j := 0, len(route)-1; i < j; i, j = i+1, j-1 {
		route[i], route[j] = route[j], route[i]
	}
	return route, nil
}

// RouteCost sums the entry cost of every waypoint in route.
func RouteCost(g Grid, route []Point) int {
	total := 0
	for _, p := range route {
		c := Snap(g, p)
		total += g.MoveCost(c.X, c.Y)
	}
	return total
}

type node struct {
	idx  int
	cost int
}

type nodeHeap []node

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].cost == h[j].cost {
		return h[i].idx < h[j].idx
	}
	return h[i].cost < h[j].cost
}
func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)   { *h = append(*h, x.(node)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
