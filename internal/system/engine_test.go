package system

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/townsim/server/internal/config"
	"github.com/townsim/server/internal/core/event"
	coresys "github.com/townsim/server/internal/core/system"
	"github.com/townsim/server/internal/world"
)

func fastDayConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Clock.DayLength = 1
	cfg.Disasters.Enabled = false
	return cfg
}

func stepFor(t *testing.T, e *Engine, d time.Duration) {
	t.Helper()
	dt := time.Second / 60
	for n := int(d / dt); n > 0; n-- {
		if err := e.Step(dt); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
}

func TestEngineDayRolloverRebalances(t *testing.T) {
	cfg := fastDayConfig()
	ws := newWorld(t, cfg)
	houses := buildHouses(t, ws, 2)
	populate(ws, houses[0], 4)
	var days []event.DayPassed
	event.Subscribe(ws.Bus(), func(e event.DayPassed) { days = append(days, e) })

	e := NewEngine(ws, cfg, zap.NewNop())
	stepFor(t, e, 1100*time.Millisecond)

	if len(days) != 1 || days[0].Day != 2 || days[0].Population != 4 {
		t.Fatalf("day events = %+v", days)
	}
	if ws.Day() != 2 {
		t.Fatalf("Day = %d, want 2", ws.Day())
	}
	if got := populations(houses); !equalInts(got, []int{2, 2}) {
		t.Fatalf("populations after rollover = %v, want [2 2]", got)
	}
}

func TestEngineDisasterSpawnsHazard(t *testing.T) {
	cfg := fastDayConfig()
	cfg.Disasters.Enabled = true
	cfg.Disasters.Chance = 1
	cfg.Disasters.Lifetime = 30
	ws := newWorld(t, cfg)
	struck := 0
	event.Subscribe(ws.Bus(), func(event.DisasterOccurred) { struck++ })

	e := NewEngine(ws, cfg, zap.NewNop())
	stepFor(t, e, 1100*time.Millisecond)

	if struck != 1 {
		t.Fatalf("disasters = %d, want 1", struck)
	}
	if _, _, h := ws.Entities().Counts(); h != 1 {
		t.Fatalf("hazards = %d, want 1", h)
	}
	if len(ws.Snapshot().Hazards) != 1 {
		t.Fatal("hazard missing from snapshot")
	}
}

func TestAnimationSystemRate(t *testing.T) {
	cfg := fastDayConfig()
	cfg.Simulation.AnimationRate = 6
	ws := newWorld(t, cfg)
	houses := buildHouses(t, ws, 1)

	e := NewEngine(ws, cfg, zap.NewNop())
	stepFor(t, e, time.Second)

	if f := houses[0].Frame(); f < 5 || f > 6 {
		t.Fatalf("frames after 1s = %d, want ~6", f)
	}
}

func TestEngineRunsExtraSystemsInPhase(t *testing.T) {
	cfg := fastDayConfig()
	ws := newWorld(t, cfg)
	e := NewEngine(ws, cfg, zap.NewNop())
	probe := &tickProbe{world: ws}
	e.Runner().Register(probe)

	stepFor(t, e, 100*time.Millisecond)

	if probe.calls != 6 || !probe.sawTicking {
		t.Fatalf("probe calls=%d ticking=%v", probe.calls, probe.sawTicking)
	}
	if ws.Ticking() {
		t.Fatal("world still ticking after Step")
	}
}

type tickProbe struct {
	world      *world.State
	calls      int
	sawTicking bool
}

func (p *tickProbe) Phase() coresys.Phase { return coresys.PhaseUpdate }
func (p *tickProbe) Update(time.Duration) {
	p.calls++
	p.sawTicking = p.world.Ticking()
}
