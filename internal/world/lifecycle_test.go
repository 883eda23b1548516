package world

import (
	"testing"

	"github.com/townsim/server/internal/core/event"
)

func TestSpawnAppliesImmediatelyOutsideTick(t *testing.T) {
	s := newTestState(t, 8, 8, nil)
	r := NewResident(s.catalog.Residents.Default(), nil)
	s.Spawn(r)
	if r.ID().IsZero() {
		t.Fatal("resident has no id after spawn")
	}
	if n, _, _ := s.Entities().Counts(); n != 1 {
		t.Fatalf("residents = %d, want 1", n)
	}
	s.Remove(r)
	if n, _, _ := s.Entities().Counts(); n != 0 {
		t.Fatalf("residents = %d after remove, want 0", n)
	}
	// Removing twice is harmless.
	s.Remove(r)
}

func TestSpawnAndRemoveDeferredDuringTick(t *testing.T) {
	s := newTestState(t, 8, 8, nil)
	rt := s.catalog.Residents.Default()
	a := NewResident(rt, nil)
	b := NewResident(rt, nil)
	c := NewResident(rt, nil)
	s.Spawn(a)

	var born []*Resident
	event.Subscribe(s.bus, func(e event.ResidentBorn) {
		switch e.Resident {
		case b.ID():
			born = append(born, b)
		case c.ID():
			born = append(born, c)
		}
	})

	ctx := s.BeginTick(testStep)
	ctx.Spawn(b)
	ctx.Remove(a)
	s.Spawn(c) // external caller during a tick queues too

	seen := 0
	ctx.EachResident(func(*Resident) { seen++ })
	if seen != 1 {
		t.Fatalf("iteration saw %d residents mid-tick, want 1", seen)
	}
	if n, _, _ := s.Entities().Counts(); n != 1 {
		t.Fatalf("store changed mid-tick: %d", n)
	}
	if rem, sp := s.Entities().Pending(); rem != 1 || sp != 2 {
		t.Fatalf("pending = %d removals %d spawns, want 1 and 2", rem, sp)
	}

	s.Entities().FlushDeferred(ctx)
	if err := s.EndTick(); err != nil {
		t.Fatal(err)
	}

	if n, _, _ := s.Entities().Counts(); n != 2 {
		t.Fatalf("residents after flush = %d, want 2", n)
	}
	if s.Entities().pool.Alive(a.ID()) {
		t.Fatal("removed resident still alive in pool")
	}
	if len(born) != 2 || born[0] != b || born[1] != c {
		t.Fatal("spawns not applied in queue order")
	}
}

func TestRemovedEntityIsSkippedForRestOfTick(t *testing.T) {
	s := newTestState(t, 8, 8, nil)
	r := NewResident(s.catalog.Residents.Default(), nil)
	s.Spawn(r)

	ctx := s.BeginTick(testStep)
	ctx.Remove(r)
	ageBefore := r.Age
	s.Entities().UpdateAll(ctx)
	if r.Age != ageBefore {
		t.Fatal("doomed resident was updated")
	}
	s.Entities().FlushDeferred(ctx)
	if err := s.EndTick(); err != nil {
		t.Fatal(err)
	}
}

func TestRemovingBuildingDetachesResidents(t *testing.T) {
	s := newTestState(t, 16, 16, nil)
	hut := mustConstruct(t, s, 2, 2, "hut")
	other := mustConstruct(t, s, 8, 8, "hut")
	rt := s.catalog.Residents.Default()
	home := NewResident(rt, hut)
	mover := NewResident(rt, other)
	s.Spawn(home)
	s.Spawn(mover)
	mover.AssignRelocation(hut)

	s.Remove(hut)

	if s.grid.BuildingAt(2, 2) != nil || s.grid.BuildingAt(3, 3) != nil {
		t.Fatal("footprint not cleared")
	}
	if home.Home != nil {
		t.Fatal("resident still points at demolished home")
	}
	if mover.Relocation != nil {
		t.Fatal("relocation target not cleared")
	}

	tick(t, s)
	if home.State != StateIdle {
		t.Fatalf("homeless resident state = %v, want idle", home.State)
	}
}

func TestSpawnQueuedWithHomeRemovedSameTick(t *testing.T) {
	s := newTestState(t, 16, 16, nil)
	hut := mustConstruct(t, s, 2, 2, "hut")
	r := NewResident(s.catalog.Residents.Default(), hut)

	ctx := s.BeginTick(testStep)
	ctx.Spawn(r)
	ctx.Remove(hut)
	s.Entities().FlushDeferred(ctx)
	if err := s.EndTick(); err != nil {
		t.Fatal(err)
	}

	if n, b, _ := s.Entities().Counts(); n != 1 || b != 0 {
		t.Fatalf("residents/buildings = %d/%d, want 1/0", n, b)
	}
	if r.Home != nil {
		t.Fatal("resident registered with a demolished home")
	}
	if r.State != StateIdle {
		t.Fatalf("state = %v, want idle", r.State)
	}
	if hut.Population != 0 {
		t.Fatalf("demolished hut population = %d, want 0", hut.Population)
	}
}

// relocatingPair sets up two huts holding one resident each as the
// rebalancer leaves them: r2 still lives in a but counts toward b.
func relocatingPair(t *testing.T, s *State) (a, b *Building, r1, r2 *Resident) {
	t.Helper()
	a = mustConstruct(t, s, 2, 2, "hut")
	b = mustConstruct(t, s, 10, 10, "hut")
	rt := s.catalog.Residents.Default()
	r1 = NewResident(rt, a)
	r2 = NewResident(rt, a)
	s.Spawn(r1)
	s.Spawn(r2)
	r2.AssignRelocation(b)
	a.Population, b.Population = 1, 1
	return a, b, r1, r2
}

func TestRelocatingResidentDeathDecrementsTarget(t *testing.T) {
	s := newTestState(t, 16, 16, nil)
	a, b, r1, r2 := relocatingPair(t, s)
	r2.Age = r2.Type.MaxAge

	tick(t, s)

	if r2.Alive() || !r1.Alive() {
		t.Fatalf("alive r1=%v r2=%v, want true/false", r1.Alive(), r2.Alive())
	}
	if a.Population != 1 || b.Population != 0 {
		t.Fatalf("populations a=%d b=%d, want 1/0", a.Population, b.Population)
	}
}

func TestRemovingRelocatingResidentDecrementsTarget(t *testing.T) {
	s := newTestState(t, 16, 16, nil)
	a, b, _, r2 := relocatingPair(t, s)

	s.Remove(r2)

	if a.Population != 1 || b.Population != 0 {
		t.Fatalf("populations a=%d b=%d, want 1/0", a.Population, b.Population)
	}
}

func TestSpawnRejectsBuildingOffGrid(t *testing.T) {
	s := newTestState(t, 16, 16, nil)
	b := NewBuilding(mustType(t, "hut"), 4, 4)

	s.Spawn(b)
	if !b.ID().IsZero() {
		t.Fatal("unplaced building was registered")
	}
	if _, n, _ := s.Entities().Counts(); n != 0 {
		t.Fatalf("buildings = %d, want 0", n)
	}

	if err := s.grid.Place(b); err != nil {
		t.Fatal(err)
	}
	s.Spawn(b)
	if b.ID().IsZero() {
		t.Fatal("placed building was not registered")
	}
	if _, n, _ := s.Entities().Counts(); n != 1 {
		t.Fatalf("buildings = %d, want 1", n)
	}
}

func TestSpawnAndRemoveSameTickLeavesEntityRegistered(t *testing.T) {
	s := newTestState(t, 8, 8, nil)
	r := NewResident(s.catalog.Residents.Default(), nil)

	ctx := s.BeginTick(testStep)
	ctx.Spawn(r)
	ctx.Remove(r)
	s.Entities().FlushDeferred(ctx)
	if err := s.EndTick(); err != nil {
		t.Fatal(err)
	}

	// Removals apply before spawns, so the removal finds nothing to remove.
	if r.ID().IsZero() || !s.Entities().pool.Alive(r.ID()) {
		t.Fatal("resident not registered")
	}
	if n, _, _ := s.Entities().Counts(); n != 1 {
		t.Fatalf("residents = %d, want 1", n)
	}
}

func TestBehaviorsRunOneExclusive(t *testing.T) {
	var calls []string
	var bs Behaviors
	bs.Add(recordBehavior{"first", true, &calls})
	bs.Add(recordBehavior{"effect", false, &calls})
	bs.Add(recordBehavior{"second", true, &calls})
	bs.Run(nil, nil)

	if len(calls) != 2 || calls[0] != "first" || calls[1] != "effect" {
		t.Fatalf("calls = %v, want [first effect]", calls)
	}
}

type recordBehavior struct {
	name      string
	exclusive bool
	calls     *[]string
}

func (b recordBehavior) Exclusive() bool { return b.exclusive }
func (b recordBehavior) Tick(*Context, Entity) {
	*b.calls = append(*b.calls, b.name)
}
