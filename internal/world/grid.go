package world

import (
	"errors"
	"fmt"
	"math"

	"github.com/townsim/server/internal/data"
	"github.com/townsim/server/internal/pathfind"
)

var (
	ErrOutOfBounds  = errors.New("world: footprint out of bounds")
	ErrNotBuildable = errors.New("world: terrain not buildable")
	ErrOccupied     = errors.New("world: cell occupied")
)

// Terrain tiles.
const (
	TileWater uint16 = iota + 1
	TileGrass
	TileForest
	TileRock
)

// Terrain is the static ground under a cell.
type Terrain struct {
	Walkable  bool
	Buildable bool
	MoveCost  int
	Tile      uint16
}

var (
	TerrainGrass  = Terrain{Walkable: true, Buildable: true, MoveCost: 2, Tile: TileGrass}
	TerrainForest = Terrain{Walkable: true, Buildable: false, MoveCost: 4, Tile: TileForest}
	TerrainWater  = Terrain{Walkable: false, Buildable: false, MoveCost: pathfind.Impassable, Tile: TileWater}
	TerrainRock   = Terrain{Walkable: false, Buildable: false, MoveCost: pathfind.Impassable, Tile: TileRock}
)

// MapCell is one grid cell: terrain plus at most one occupying building.
type MapCell struct {
	Terrain  Terrain
	Building *Building
}

// Grid is the town map. Every cell covered by a building's footprint points
// at that building; Remove clears exactly those cells.
type Grid struct {
	width  int
	height int
	cells  []MapCell // flat array [x * height + y]
}

// NewGrid creates a width×height grid filled with fill.
func NewGrid(width, height int, fill Terrain) *Grid {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("world: invalid grid size %dx%d", width, height))
	}
	g := &Grid{
		width:  width,
		height: height,
		cells:  make([]MapCell, width*height),
	}
	for i := range g.cells {
		g.cells[i].Terrain = fill
	}
	return g
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

// Cell returns the cell at (x, y). Callers validate coordinates first; an
// out-of-range lookup is a programming error and panics.
func (g *Grid) Cell(x, y int) *MapCell {
	if !g.InBounds(x, y) {
		panic(fmt.Sprintf("world: cell (%d,%d) outside %dx%d grid", x, y, g.width, g.height))
	}
	return &g.cells[x*g.height+y]
}

func (g *Grid) SetTerrain(x, y int, t Terrain) {
	g.Cell(x, y).Terrain = t
}

// BuildingAt returns the building covering (x, y), or nil.
func (g *Grid) BuildingAt(x, y int) *Building {
	if !g.InBounds(x, y) {
		return nil
	}
	return g.Cell(x, y).Building
}

// Buildable reports whether terrain allows building at (x, y) and no
// building occupies it.
func (g *Grid) Buildable(x, y int) bool {
	if !g.InBounds(x, y) {
		return false
	}
	c := g.Cell(x, y)
	return c.Terrain.Buildable && c.Building == nil
}

// MoveCost implements pathfind.Grid. Building cells use the building's own
// per-cell walkability and cost.
func (g *Grid) MoveCost(x, y int) int {
	if !g.InBounds(x, y) {
		return pathfind.Impassable
	}
	c := g.Cell(x, y)
	if b := c.Building; b != nil {
		spec := b.Type.Cell(x-b.X, y-b.Y)
		if !spec.Walkable {
			return pathfind.Impassable
		}
		return spec.MoveCost
	}
	if !c.Terrain.Walkable {
		return pathfind.Impassable
	}
	return c.Terrain.MoveCost
}

// Walkable reports whether a resident may stand on (x, y).
func (g *Grid) Walkable(x, y int) bool {
	return g.MoveCost(x, y) < pathfind.Impassable
}

// CheckPlacement validates a footprint of type bt anchored at (x, y).
func (g *Grid) CheckPlacement(bt *data.BuildingType, x, y int) error {
	for dy := 0; dy < bt.Height; dy++ {
		for dx := 0; dx < bt.Width; dx++ {
			if !bt.Occupies(dx, dy) {
				continue
			}
			cx, cy := x+dx, y+dy
			if !g.InBounds(cx, cy) {
				return fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, cx, cy)
			}
			c := g.Cell(cx, cy)
			if c.Building != nil {
				return fmt.Errorf("%w: (%d,%d)", ErrOccupied, cx, cy)
			}
			if !c.Terrain.Buildable {
				return fmt.Errorf("%w: (%d,%d)", ErrNotBuildable, cx, cy)
			}
		}
	}
	return nil
}

func (g *Grid) CanPlace(bt *data.BuildingType, x, y int) bool {
	return g.CheckPlacement(bt, x, y) == nil
}

// Place writes b into every cell of its footprint. Nothing is written when
// any cell fails validation.
func (g *Grid) Place(b *Building) error {
	if err := g.CheckPlacement(b.Type, b.X, b.Y); err != nil {
		return err
	}
	b.eachCell(func(x, y int, _ data.CellSpec) {
		g.Cell(x, y).Building = b
	})
	return nil
}

// Holds reports whether every cell of b's footprint references b.
func (g *Grid) Holds(b *Building) bool {
	held := true
	b.eachCell(func(x, y int, _ data.CellSpec) {
		if !g.InBounds(x, y) || g.Cell(x, y).Building != b {
			held = false
		}
	})
	return held
}

// Remove clears the cells that reference b and returns how many it cleared.
func (g *Grid) Remove(b *Building) int {
	cleared := 0
	b.eachCell(func(x, y int, _ data.CellSpec) {
		if !g.InBounds(x, y) {
			return
		}
		if c := g.Cell(x, y); c.Building == b {
			c.Building = nil
			cleared++
		}
	})
	return cleared
}

// EntryPoint picks the walkable cell inside or 4-adjacent to b's footprint
// closest to near, and returns its centre.
func (g *Grid) EntryPoint(b *Building, near pathfind.Point) (pathfind.Point, bool) {
	best := pathfind.Point{}
	bestDist := math.Inf(1)
	consider := func(x, y int) {
		if !g.Walkable(x, y) {
			return
		}
		if occ := g.Cell(x, y).Building; occ != nil && occ != b {
			return
		}
		p := pathfind.Cell{X: x, Y: y}.Center()
		if d := near.Dist(p); d < bestDist {
			best, bestDist = p, d
		}
	}
	b.eachCell(func(x, y int, spec data.CellSpec) {
		if spec.Walkable && g.InBounds(x, y) {
			consider(x, y)
		}
		for _, o := range [...]pathfind.Cell{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}} {
			nx, ny := x+o.X, y+o.Y
			if b.Type.Occupies(nx-b.X, ny-b.Y) {
				continue
			}
			consider(nx, ny)
		}
	})
	return best, !math.IsInf(bestDist, 1)
}

// FindSite returns the anchor closest to near at which bt can be placed.
func (g *Grid) FindSite(bt *data.BuildingType, near pathfind.Cell) (int, int, bool) {
	bestX, bestY, bestDist := 0, 0, math.MaxInt
	for x := 0; x < g.width; x++ {
		for y := 0; y < g.height; y++ {
			dx, dy := x-near.X, y-near.Y
			d := dx*dx + dy*dy
			if d >= bestDist || !g.CanPlace(bt, x, y) {
				continue
			}
			bestX, bestY, bestDist = x, y, d
		}
	}
	return bestX, bestY, bestDist != math.MaxInt
}
