package world

import "testing"

func TestClockAdvance(t *testing.T) {
	tests := []struct {
		name      string
		dayLength float64
		scale     float64
		steps     []float64
		wantDays  int
		wantDay   int
		wantTOD   float64
	}{
		{"within day", 10, 1, []float64{3, 4}, 0, 1, 7},
		{"exact boundary", 10, 1, []float64{10}, 1, 2, 0},
		{"several days in one call", 10, 1, []float64{25}, 2, 3, 5},
		{"time scale doubles", 10, 2, []float64{3, 3}, 1, 2, 2},
		{"paused", 10, 0, []float64{50}, 0, 1, 0},
		{"negative ignored", 10, 1, []float64{-5, 2}, 0, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClock(tt.dayLength, tt.scale)
			days := 0
			for _, s := range tt.steps {
				days += c.Advance(s)
			}
			if days != tt.wantDays || c.Day() != tt.wantDay || c.TimeOfDay() != tt.wantTOD {
				t.Fatalf("days=%d day=%d tod=%v, want %d %d %v",
					days, c.Day(), c.TimeOfDay(), tt.wantDays, tt.wantDay, tt.wantTOD)
			}
			if tod := c.TimeOfDay(); tod < 0 || tod >= c.DayLength() {
				t.Fatalf("time of day %v outside [0, %v)", tod, c.DayLength())
			}
		})
	}
}

func TestClockStaysInRangeOverManySmallSteps(t *testing.T) {
	c := NewClock(1, 1)
	total := 0
	for i := 0; i < 6000; i++ {
		total += c.Advance(1.0 / 60)
		if tod := c.TimeOfDay(); tod < 0 || tod >= 1 {
			t.Fatalf("step %d: time of day %v out of range", i, tod)
		}
	}
	if total < 99 || total > 100 {
		t.Fatalf("crossed %d days, want ~100", total)
	}
	if c.Day() != 1+total {
		t.Fatalf("Day = %d, want %d", c.Day(), 1+total)
	}
}

func TestTreasury(t *testing.T) {
	tr := NewTreasury(100)
	if !tr.Spend(60) || tr.Balance() != 40 {
		t.Fatalf("spend 60: balance %d", tr.Balance())
	}
	if tr.Spend(41) {
		t.Fatal("overspend succeeded")
	}
	if tr.Spend(-5) {
		t.Fatal("negative spend succeeded")
	}
	if tr.Balance() != 40 {
		t.Fatalf("balance changed on failed spend: %d", tr.Balance())
	}
	if got := tr.Add(15); got != 55 {
		t.Fatalf("Add returned %d, want 55", got)
	}
	if !tr.CanAfford(55) || tr.CanAfford(56) {
		t.Fatal("CanAfford boundary wrong")
	}
}
