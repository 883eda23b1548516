package world

import (
	"testing"
	"time"

	"github.com/townsim/server/internal/core/event"
	"github.com/townsim/server/internal/data"
	"github.com/townsim/server/internal/pathfind"
)

const nestCatalog = `
buildings:
  - id: nest
    name: Nest
    category: residential
    cost: 10
    width: 1
    height: 1
    capacity: 2
    effect:
      kind: population_growth
      interval: 1
`

func TestPopulationGrowthStopsAtCapacity(t *testing.T) {
	buildings, err := data.ParseBuildingTable([]byte(nestCatalog))
	if err != nil {
		t.Fatal(err)
	}
	residents, err := data.LoadResidentTable("")
	if err != nil {
		t.Fatal(err)
	}
	s := newTestStateWithCatalog(t, 8, 8, nil, &data.Catalog{Buildings: buildings, Residents: residents})
	nest := mustConstruct(t, s, 3, 3, "nest")
	born := 0
	event.Subscribe(s.bus, func(e event.ResidentBorn) {
		if e.Home == nest.ID() {
			born++
		}
	})

	runFor(t, s, 5500*time.Millisecond)

	if born != 2 || nest.Population != 2 || s.Population() != 2 {
		t.Fatalf("born=%d population=%d living=%d, want 2", born, nest.Population, s.Population())
	}
}

func TestFaithAuraRaisesWorkers(t *testing.T) {
	s := newTestState(t, 16, 16, nil)
	hut := mustConstruct(t, s, 1, 1, "hut")
	chapel := mustConstruct(t, s, 8, 8, "chapel")
	worker := NewResident(s.catalog.Residents.Default(), hut)
	idle := NewResident(s.catalog.Residents.Default(), hut)
	s.Spawn(worker)
	s.Spawn(idle)
	worker.State = StateWorking
	worker.visiting = chapel
	worker.Faith = 99.5
	idleFaith := idle.Faith

	runFor(t, s, 500*time.Millisecond)

	if worker.Faith != maxFaith {
		t.Fatalf("worker faith = %v, want capped at %v", worker.Faith, maxFaith)
	}
	if idle.Faith != idleFaith {
		t.Fatalf("idle faith changed to %v", idle.Faith)
	}
}

func TestSoulWellHarvestsNearbySouls(t *testing.T) {
	s := newTestState(t, 16, 16, nil)
	start := s.Souls()
	graveyard := mustConstruct(t, s, 2, 2, "graveyard")
	near := NewResident(s.catalog.Residents.Default(), nil)
	near.Pos = pathfind.Point{X: 4.5, Y: 3.5}
	far := NewResident(s.catalog.Residents.Default(), nil)
	far.Pos = pathfind.Point{X: 15.5, Y: 15.5}
	s.Spawn(near)
	s.Spawn(far)
	near.State = StateDead
	far.State = StateDead

	runFor(t, s, 5200*time.Millisecond)

	if want := start - graveyard.Type.Cost + 10; s.Souls() != want {
		t.Fatalf("souls = %d, want %d", s.Souls(), want)
	}
	if s.SoulCount() != 1 {
		t.Fatalf("SoulCount = %d, want 1 (the far one)", s.SoulCount())
	}
	if s.Entities().residents.Has(near.ID()) {
		t.Fatal("harvested soul still registered")
	}
}

func TestDisasterDestroysBuildingAndExpires(t *testing.T) {
	s := newTestState(t, 16, 16, nil)
	hut := mustConstruct(t, s, 2, 2, "hut")
	r := NewResident(s.catalog.Residents.Default(), hut)
	s.Spawn(r)
	var removed []event.MapUpdated
	event.Subscribe(s.bus, func(e event.MapUpdated) {
		if e.Removed {
			removed = append(removed, e)
		}
	})
	s.Spawn(NewHazard(hut.Center(), 3, 1, 2))

	runFor(t, s, 2500*time.Millisecond)

	if s.grid.BuildingAt(2, 2) != nil {
		t.Fatal("destroyed hut still on the grid")
	}
	if len(removed) != 1 || removed[0].Building != hut.ID() {
		t.Fatalf("removal events = %+v", removed)
	}
	if _, b, h := s.Entities().Counts(); b != 0 || h != 0 {
		t.Fatalf("buildings/hazards = %d/%d, want 0/0", b, h)
	}
	if r.Home != nil || r.State != StateIdle {
		t.Fatalf("resident home=%v state=%v, want homeless idle", r.Home, r.State)
	}
}
