package data

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrUnknownType is returned when a catalog lookup misses.
var ErrUnknownType = errors.New("unknown type")

// Category groups building types by the role they play in the town.
type Category uint8

const (
	CategoryNone Category = iota
	CategoryResidential
	CategoryReligious
	CategoryCemetery
	CategoryInfrastructure
)

var categoryNames = map[string]Category{
	"none":           CategoryNone,
	"residential":    CategoryResidential,
	"religious":      CategoryReligious,
	"cemetery":       CategoryCemetery,
	"infrastructure": CategoryInfrastructure,
}

func (c Category) String() string {
	for name, v := range categoryNames {
		if v == c {
			return name
		}
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

func (c *Category) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, ok := categoryNames[s]
	if !ok {
		return fmt.Errorf("line %d: unknown category %q", node.Line, s)
	}
	*c = v
	return nil
}

// Footprint cell markers.
const (
	cellEmpty    = '.'
	cellBlocked  = 'X'
	cellWalkable = 'W'
)

// CellSpec describes one cell of a building's width×height box.
type CellSpec struct {
	Occupied bool
	Walkable bool
	MoveCost int
	Tile     uint16
}

// EffectSpec names the concurrent effect a building runs each tick and its
// parameters. Kind is a key into the world's effect factory table.
type EffectSpec struct {
	Kind     string  `yaml:"kind"`
	Interval float64 `yaml:"interval"` // seconds
	Radius   float64 `yaml:"radius"`
	Rate     float64 `yaml:"rate"`
}

// BuildingType is an immutable catalog record.
type BuildingType struct {
	ID         string     `yaml:"id"`
	Name       string     `yaml:"name"`
	Category   Category   `yaml:"category"`
	Cost       int64      `yaml:"cost"`
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Footprint  []string   `yaml:"footprint"` // rows of '.', 'X' (blocked) or 'W' (walkable)
	MoveCost   int        `yaml:"move_cost"` // cost of 'W' cells
	TileBase   uint16     `yaml:"tile_base"`
	Durability float64    `yaml:"durability"`
	Capacity   int        `yaml:"capacity"`
	Road       bool       `yaml:"road"` // roads are never visiting destinations
	Effect     EffectSpec `yaml:"effect"`

	cells []CellSpec
}

// Cell returns the spec of the footprint cell at offset (dx, dy) from the
// anchor. Offsets outside the box report an unoccupied cell.
func (t *BuildingType) Cell(dx, dy int) CellSpec {
	if dx < 0 || dy < 0 || dx >= t.Width || dy >= t.Height {
		return CellSpec{}
	}
	return t.cells[dy*t.Width+dx]
}

// Occupies reports whether offset (dx, dy) is part of the footprint.
func (t *BuildingType) Occupies(dx, dy int) bool {
	return t.Cell(dx, dy).Occupied
}

func (t *BuildingType) compile() error {
	if t.ID == "" {
		return fmt.Errorf("building without id")
	}
	if t.Width <= 0 || t.Height <= 0 {
		return fmt.Errorf("building %s: size %dx%d", t.ID, t.Width, t.Height)
	}
	if len(t.Footprint) == 0 {
		// Absent mask means the whole box is blocked.
		for y := 0; y < t.Height; y++ {
			row := make([]byte, t.Width)
			for x := range row {
				row[x] = cellBlocked
			}
			t.Footprint = append(t.Footprint, string(row))
		}
	}
	if len(t.Footprint) != t.Height {
		return fmt.Errorf("building %s: footprint has %d rows, want %d", t.ID, len(t.Footprint), t.Height)
	}
	if t.MoveCost <= 0 {
		t.MoveCost = 1
	}
	if t.Durability <= 0 {
		t.Durability = 100
	}

	t.cells = make([]CellSpec, t.Width*t.Height)
	occupied := 0
	for y, row := range t.Footprint {
		if len(row) != t.Width {
			return fmt.Errorf("building %s: footprint row %d has width %d, want %d", t.ID, y, len(row), t.Width)
		}
		for x := 0; x < t.Width; x++ {
			i := y*t.Width + x
			c := CellSpec{Tile: t.TileBase + uint16(i)}
			switch row[x] {
			case cellEmpty:
			case cellBlocked:
				c.Occupied = true
			case cellWalkable:
				c.Occupied = true
				c.Walkable = true
				c.MoveCost = t.MoveCost
			default:
				return fmt.Errorf("building %s: bad footprint marker %q", t.ID, row[x])
			}
			if c.Occupied {
				occupied++
			}
			t.cells[i] = c
		}
	}
	if occupied == 0 {
		return fmt.Errorf("building %s: empty footprint", t.ID)
	}
	return nil
}

type buildingListFile struct {
	Buildings []BuildingType `yaml:"buildings"`
}

// BuildingTable holds building types indexed by ID, in file order.
type BuildingTable struct {
	types map[string]*BuildingType
	order []*BuildingType
}

// LoadBuildingTable loads building types from a YAML file. An empty path
// loads the built-in catalog.
func LoadBuildingTable(path string) (*BuildingTable, error) {
	raw, err := readCatalog(path, "buildings.yaml")
	if err != nil {
		return nil, fmt.Errorf("read building list: %w", err)
	}
	return ParseBuildingTable(raw)
}

// ParseBuildingTable decodes and validates a building catalog document.
func ParseBuildingTable(raw []byte) (*BuildingTable, error) {
	var f buildingListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse building list: %w", err)
	}
	t := &BuildingTable{types: make(map[string]*BuildingType, len(f.Buildings))}
	for i := range f.Buildings {
		bt := &f.Buildings[i]
		if err := bt.compile(); err != nil {
			return nil, err
		}
		if _, dup := t.types[bt.ID]; dup {
			return nil, fmt.Errorf("building %s: duplicate id", bt.ID)
		}
		t.types[bt.ID] = bt
		t.order = append(t.order, bt)
	}
	return t, nil
}

func (t *BuildingTable) Get(id string) (*BuildingType, error) {
	bt, ok := t.types[id]
	if !ok {
		return nil, fmt.Errorf("building %q: %w", id, ErrUnknownType)
	}
	return bt, nil
}

func (t *BuildingTable) Count() int { return len(t.order) }

// All returns every type in catalog order.
func (t *BuildingTable) All() []*BuildingType { return t.order }

// ByCategory returns the types in category c, in catalog order.
func (t *BuildingTable) ByCategory(c Category) []*BuildingType {
	var out []*BuildingType
	for _, bt := range t.order {
		if bt.Category == c {
			out = append(out, bt)
		}
	}
	return out
}

func readCatalog(path, builtin string) ([]byte, error) {
	if path == "" {
		return defaultCatalogs.ReadFile("defaults/" + builtin)
	}
	return os.ReadFile(path)
}
