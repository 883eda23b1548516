package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "townsim.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[clock]
day_length = 30.5

[residents]
wait_min = 1
wait_max = 2

[ledger]
enabled = true
driver = "postgres"
flush_interval = "500ms"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Clock.DayLength != 30.5 {
		t.Errorf("day_length = %v", cfg.Clock.DayLength)
	}
	if cfg.Clock.TimeScale != 1 {
		t.Errorf("time_scale default lost: %v", cfg.Clock.TimeScale)
	}
	if cfg.Residents.WaitMax != 2 || cfg.Residents.WorkDuration != 8 {
		t.Errorf("residents = %+v", cfg.Residents)
	}
	if cfg.Ledger.FlushInterval != 500*time.Millisecond {
		t.Errorf("flush_interval = %v", cfg.Ledger.FlushInterval)
	}
	if cfg.Simulation.StartTime == 0 {
		t.Error("start time not stamped")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"zero day", "[clock]\nday_length = 0\n", "day_length"},
		{"negative scale", "[clock]\ntime_scale = -1\n", "time_scale"},
		{"wait order", "[residents]\nwait_min = 5\nwait_max = 1\n", "wait_min"},
		{"chance", "[disasters]\nchance = 2.0\n", "chance"},
		{"driver", "[ledger]\nenabled = true\ndriver = \"mysql\"\n", "driver"},
		{"syntax", "[clock\n", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestShippedConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "townsim.toml"))
	if err != nil {
		t.Fatalf("shipped config: %v", err)
	}
	if cfg.Simulation.StepRate != 60 || cfg.Simulation.MaxFrame != 250*time.Millisecond {
		t.Errorf("simulation = %+v", cfg.Simulation)
	}
	if len(cfg.Town.Plan) == 0 {
		t.Error("town plan empty")
	}
}
