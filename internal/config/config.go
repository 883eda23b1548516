package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Simulation SimulationConfig `toml:"simulation"`
	Clock      ClockConfig      `toml:"clock"`
	Economy    EconomyConfig    `toml:"economy"`
	Town       TownConfig       `toml:"town"`
	Residents  ResidentConfig   `toml:"residents"`
	Map        MapConfig        `toml:"map"`
	Disasters  DisasterConfig   `toml:"disasters"`
	Data       DataConfig       `toml:"data"`
	Scripts    ScriptConfig     `toml:"scripts"`
	Logging    LoggingConfig    `toml:"logging"`
	Ledger     LedgerConfig     `toml:"ledger"`
	Spectator  SpectatorConfig  `toml:"spectator"`
}

type SimulationConfig struct {
	StepRate      int           `toml:"step_rate"`      // fixed steps per simulated second
	MaxFrame      time.Duration `toml:"max_frame"`      // clamp on one loop iteration's wall time
	AnimationRate int           `toml:"animation_rate"` // cosmetic frame advances per second
	Seed          int64         `toml:"seed"`           // 0 = random
	StartTime     int64         // set at boot, not from config
}

type ClockConfig struct {
	DayLength float64 `toml:"day_length"` // seconds of simulated time per day
	TimeScale float64 `toml:"time_scale"`
}

type EconomyConfig struct {
	StartingSouls int64 `toml:"starting_souls"`
}

// TownConfig lists the buildings founded at boot, in placement order.
type TownConfig struct {
	Plan []string `toml:"plan"`
}

type ResidentConfig struct {
	WaitMin           float64 `toml:"wait_min"`      // seconds at home before heading out
	WaitMax           float64 `toml:"wait_max"`
	WorkDuration      float64 `toml:"work_duration"` // seconds spent at a destination
	FaithPenalty      float64 `toml:"faith_penalty"` // applied when a route cannot be found
	ArrivalEpsilon    float64 `toml:"arrival_epsilon"`
	PathRetryCooldown float64 `toml:"path_retry_cooldown"`
	HarvestRadius     float64 `toml:"harvest_radius"`
	InitialPerHouse   int     `toml:"initial_per_house"`
}

type MapConfig struct {
	Width       int     `toml:"width"`
	Height      int     `toml:"height"`
	WaterLevel  float64 `toml:"water_level"`  // noise threshold below which cells are water
	ForestLevel float64 `toml:"forest_level"` // noise threshold above which cells are forest
}

type DisasterConfig struct {
	Enabled   bool    `toml:"enabled"`
	Chance    float64 `toml:"chance"` // probability per elapsed day
	Radius    float64 `toml:"radius"`
	Lifetime  float64 `toml:"lifetime"` // seconds
	Intensity float64 `toml:"intensity"`
}

type DataConfig struct {
	Buildings string `toml:"buildings"` // empty = built-in catalog
	Residents string `toml:"residents"`
}

type ScriptConfig struct {
	Dir string `toml:"dir"` // empty = built-in formulas only
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type LedgerConfig struct {
	Enabled       bool          `toml:"enabled"`
	Driver        string        `toml:"driver"` // "postgres" or "sqlite"
	DSN           string        `toml:"dsn"`
	MaxOpenConns  int           `toml:"max_open_conns"`
	MaxIdleConns  int           `toml:"max_idle_conns"`
	QueueSize     int           `toml:"queue_size"`
	FlushInterval time.Duration `toml:"flush_interval"`
}

type SpectatorConfig struct {
	Enabled     bool   `toml:"enabled"`
	BindAddress string `toml:"bind_address"`
	EveryFrames int    `toml:"every_frames"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Simulation.StartTime = time.Now().Unix()
	return cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Simulation.StepRate <= 0:
		return fmt.Errorf("simulation.step_rate must be > 0")
	case c.Clock.DayLength <= 0:
		return fmt.Errorf("clock.day_length must be > 0")
	case c.Clock.TimeScale < 0:
		return fmt.Errorf("clock.time_scale must be >= 0")
	case c.Residents.WaitMin < 0 || c.Residents.WaitMax < c.Residents.WaitMin:
		return fmt.Errorf("residents.wait_min/wait_max out of order")
	case c.Map.Width <= 0 || c.Map.Height <= 0:
		return fmt.Errorf("map dimensions must be positive")
	case c.Disasters.Chance < 0 || c.Disasters.Chance > 1:
		return fmt.Errorf("disasters.chance must be within [0,1]")
	case c.Ledger.Enabled && c.Ledger.Driver != "postgres" && c.Ledger.Driver != "sqlite":
		return fmt.Errorf("ledger.driver %q not supported", c.Ledger.Driver)
	}
	return nil
}

// Defaults returns the configuration used when a key is absent from the file.
func Defaults() *Config {
	return &Config{
		Simulation: SimulationConfig{
			StepRate:      60,
			MaxFrame:      250 * time.Millisecond,
			AnimationRate: 6,
		},
		Clock: ClockConfig{
			DayLength: 120,
			TimeScale: 1,
		},
		Economy: EconomyConfig{
			StartingSouls: 400,
		},
		Town: TownConfig{
			Plan: []string{"hut", "hut", "hut", "well", "chapel", "graveyard"},
		},
		Residents: ResidentConfig{
			WaitMin:           4,
			WaitMax:           12,
			WorkDuration:      8,
			FaithPenalty:      5,
			ArrivalEpsilon:    0.05,
			PathRetryCooldown: 2,
			HarvestRadius:     1.5,
			InitialPerHouse:   2,
		},
		Map: MapConfig{
			Width:       64,
			Height:      48,
			WaterLevel:  0.28,
			ForestLevel: 0.72,
		},
		Disasters: DisasterConfig{
			Enabled:   true,
			Chance:    0.15,
			Radius:    3,
			Lifetime:  10,
			Intensity: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Ledger: LedgerConfig{
			Enabled:       false,
			Driver:        "sqlite",
			DSN:           "townsim-ledger.db",
			MaxOpenConns:  4,
			MaxIdleConns:  1,
			QueueSize:     1024,
			FlushInterval: 2 * time.Second,
		},
		Spectator: SpectatorConfig{
			Enabled:     false,
			BindAddress: "127.0.0.1:7070",
			EveryFrames: 6,
		},
	}
}
