package data

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.yaml
var defaultCatalogs embed.FS

// ResidentType is an immutable catalog record for a kind of resident.
type ResidentType struct {
	ID      string  `yaml:"id"`
	Name    string  `yaml:"name"`
	MaxAge  float64 `yaml:"max_age"`
	AgeRate float64 `yaml:"age_rate"` // years per simulated second
	Speed   float64 `yaml:"speed"`    // cells per simulated second
	Faith   float64 `yaml:"faith"`    // starting faith
}

type residentListFile struct {
	Default   string         `yaml:"default"`
	Residents []ResidentType `yaml:"residents"`
}

// ResidentTable holds resident types indexed by ID.
type ResidentTable struct {
	types    map[string]*ResidentType
	fallback *ResidentType
}

// LoadResidentTable loads resident types from a YAML file. An empty path
// loads the built-in catalog.
func LoadResidentTable(path string) (*ResidentTable, error) {
	raw, err := readCatalog(path, "residents.yaml")
	if err != nil {
		return nil, fmt.Errorf("read resident list: %w", err)
	}
	var f residentListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse resident list: %w", err)
	}
	t := &ResidentTable{types: make(map[string]*ResidentType, len(f.Residents))}
	for i := range f.Residents {
		rt := &f.Residents[i]
		if rt.ID == "" || rt.MaxAge <= 0 || rt.Speed <= 0 {
			return nil, fmt.Errorf("resident %q: id, max_age and speed are required", rt.ID)
		}
		t.types[rt.ID] = rt
	}
	if f.Default != "" {
		t.fallback = t.types[f.Default]
	}
	if t.fallback == nil && len(f.Residents) > 0 {
		t.fallback = &f.Residents[0]
	}
	if t.fallback == nil {
		return nil, fmt.Errorf("resident list is empty")
	}
	return t, nil
}

func (t *ResidentTable) Get(id string) (*ResidentType, error) {
	rt, ok := t.types[id]
	if !ok {
		return nil, fmt.Errorf("resident %q: %w", id, ErrUnknownType)
	}
	return rt, nil
}

// Default is the type used for residents born in town.
func (t *ResidentTable) Default() *ResidentType { return t.fallback }

func (t *ResidentTable) Count() int { return len(t.types) }

// Catalog bundles the static tables the world consults.
type Catalog struct {
	Buildings *BuildingTable
	Residents *ResidentTable
}

// LoadCatalog loads both tables; empty paths select the built-in catalogs.
func LoadCatalog(buildingsPath, residentsPath string) (*Catalog, error) {
	b, err := LoadBuildingTable(buildingsPath)
	if err != nil {
		return nil, err
	}
	r, err := LoadResidentTable(residentsPath)
	if err != nil {
		return nil, err
	}
	return &Catalog{Buildings: b, Residents: r}, nil
}
