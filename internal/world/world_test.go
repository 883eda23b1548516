package world

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/townsim/server/internal/config"
	"github.com/townsim/server/internal/core/event"
	"github.com/townsim/server/internal/data"
)

const testStep = time.Second / 60

type fixedFormulas struct {
	yield  int64
	damage float64
}

func (f fixedFormulas) SoulYield(faith, age float64) int64 { return f.yield }
func (f fixedFormulas) DisasterDamage(distance, radius, intensity float64) float64 {
	return f.damage
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Simulation.Seed = 42
	cfg.Residents.WaitMin = 1
	cfg.Residents.WaitMax = 1
	cfg.Residents.WorkDuration = 1
	return cfg
}

func newTestState(t *testing.T, w, h int, cfg *config.Config) *State {
	t.Helper()
	cat, err := data.LoadCatalog("", "")
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	return newTestStateWithCatalog(t, w, h, cfg, cat)
}

func newTestStateWithCatalog(t *testing.T, w, h int, cfg *config.Config, cat *data.Catalog) *State {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	formulas := fixedFormulas{yield: 10, damage: 50}
	return NewState(cfg, NewGrid(w, h, TerrainGrass), cat, formulas, event.NewBus(zap.NewNop()), zap.NewNop())
}

// tick runs one full step the way the engine does.
func tick(t *testing.T, s *State) {
	t.Helper()
	ctx := s.BeginTick(testStep)
	ctx.AdvanceClock()
	s.Entities().UpdateAll(ctx)
	s.Entities().AdvanceAnimations()
	s.Entities().FlushDeferred(ctx)
	if err := s.EndTick(); err != nil {
		t.Fatalf("EndTick: %v", err)
	}
}

func runFor(t *testing.T, s *State, d time.Duration) {
	t.Helper()
	for n := int(d / testStep); n > 0; n-- {
		tick(t, s)
	}
}

func mustConstruct(t *testing.T, s *State, x, y int, typeID string) *Building {
	t.Helper()
	if !s.Construct(x, y, typeID) {
		t.Fatalf("Construct(%d, %d, %q) failed", x, y, typeID)
	}
	b := s.grid.BuildingAt(x, y)
	if b == nil {
		// Anchor cell may be empty in the footprint; search the box.
		bt, _ := s.catalog.Buildings.Get(typeID)
		for dy := 0; dy < bt.Height && b == nil; dy++ {
			for dx := 0; dx < bt.Width && b == nil; dx++ {
				b = s.grid.BuildingAt(x+dx, y+dy)
			}
		}
	}
	return b
}

func TestEndTickReportsNegativeTreasury(t *testing.T) {
	s := newTestState(t, 8, 8, nil)

	s.BeginTick(testStep)
	s.treasury.Add(-s.treasury.Balance() - 1)
	err := s.EndTick()
	if err == nil {
		t.Fatal("expected corrupt world error")
	}
	if !errors.Is(err, ErrCorruptWorld) {
		t.Fatalf("error = %v, want ErrCorruptWorld", err)
	}
	// Lock must be released even on error.
	if got := s.Souls(); got != -1 {
		t.Fatalf("Souls = %d, want -1", got)
	}
}

func TestTickingFlag(t *testing.T) {
	s := newTestState(t, 8, 8, nil)
	if s.Ticking() {
		t.Fatal("ticking before BeginTick")
	}
	s.BeginTick(testStep)
	if !s.Ticking() {
		t.Fatal("not ticking inside tick")
	}
	if err := s.EndTick(); err != nil {
		t.Fatal(err)
	}
	if s.Ticking() {
		t.Fatal("ticking after EndTick")
	}
}

func TestSnapshotCounts(t *testing.T) {
	s := newTestState(t, 16, 16, nil)
	hut := mustConstruct(t, s, 2, 2, "hut")
	rt := s.catalog.Residents.Default()
	s.Spawn(NewResident(rt, hut))
	dead := NewResident(rt, nil)
	s.Spawn(dead)
	dead.State = StateDead

	snap := s.Snapshot()
	if snap.Day != 1 || snap.Population != 1 || snap.Dead != 1 {
		t.Fatalf("snapshot day/pop/dead = %d/%d/%d", snap.Day, snap.Population, snap.Dead)
	}
	if len(snap.Buildings) != 1 || snap.Buildings[0].Type != "hut" || snap.Buildings[0].Population != 1 {
		t.Fatalf("buildings = %+v", snap.Buildings)
	}
	if len(snap.Residents) != 2 || snap.Residents[0].Home != uint64(hut.ID()) {
		t.Fatalf("residents = %+v", snap.Residents)
	}
	if s.Population() != 1 || s.SoulCount() != 1 {
		t.Fatalf("Population/SoulCount = %d/%d", s.Population(), s.SoulCount())
	}
}
