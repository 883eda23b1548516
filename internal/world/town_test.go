package world

import "testing"

func TestFoundTownPlacesPlanAndResidents(t *testing.T) {
	cfg := testConfig()
	cfg.Economy.StartingSouls = 100
	s := newTestState(t, 32, 32, cfg)

	placed := s.FoundTown([]string{"hut", "well", "nope", "hut", "chapel"}, 3)
	// 30 + 20 + 30 spent; the chapel (90) is unaffordable and "nope" unknown.
	if len(placed) != 3 {
		t.Fatalf("placed %d buildings, want 3", len(placed))
	}
	if got := s.Souls(); got != 20 {
		t.Errorf("souls = %d, want 20", got)
	}
	if got := s.Population(); got != 6 {
		t.Errorf("population = %d, want 6", got)
	}
	for _, b := range placed {
		if b.Type.ID == "hut" && b.Population != 3 {
			t.Errorf("hut at (%d,%d) population = %d, want 3", b.X, b.Y, b.Population)
		}
	}
	_, buildings, _ := s.Entities().Counts()
	if buildings != 3 {
		t.Errorf("registered buildings = %d, want 3", buildings)
	}
}

func TestFoundTownCapsAtCapacity(t *testing.T) {
	s := newTestState(t, 32, 32, nil)
	placed := s.FoundTown([]string{"hut"}, 50)
	if len(placed) != 1 {
		t.Fatalf("placed %d buildings", len(placed))
	}
	if got := s.Population(); got != placed[0].Type.Capacity {
		t.Errorf("population = %d, want capacity %d", got, placed[0].Type.Capacity)
	}
}
