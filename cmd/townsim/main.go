package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/townsim/server/internal/config"
	"github.com/townsim/server/internal/core/event"
	coresys "github.com/townsim/server/internal/core/system"
	"github.com/townsim/server/internal/data"
	"github.com/townsim/server/internal/persist"
	"github.com/townsim/server/internal/scripting"
	"github.com/townsim/server/internal/spectate"
	"github.com/townsim/server/internal/system"
	"github.com/townsim/server/internal/world"
)

const statusInterval = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(cfg *config.Config) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m               townsim  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mmap:\033[0m %d×%d \033[90m(seed %d)\033[0m\n\n", cfg.Map.Width, cfg.Map.Height, cfg.Simulation.Seed)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := humanize.Comma(int64(count))
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main simulation logic ─────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/townsim.toml"
	if p := os.Getenv("TOWNSIM_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Simulation.Seed == 0 {
		cfg.Simulation.Seed = time.Now().UnixNano()
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg)

	// Background workers (ledger, spectator) run until cancel; stop waits
	// for them so the ledger drains before the database closes.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	stop := func() {
		cancel()
		wg.Wait()
	}

	// 3. Catalogs and formulas
	printSection("data")
	catalog, err := data.LoadCatalog(cfg.Data.Buildings, cfg.Data.Residents)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	printStat("building types", catalog.Buildings.Count())
	printStat("resident types", catalog.Residents.Count())

	formulas, err := scripting.NewEngine(cfg.Scripts.Dir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer formulas.Close()
	printOK("formulas loaded")
	fmt.Println()

	// 4. World
	printSection("world")
	bus := event.NewBus(log)
	grid := world.GenerateTerrain(cfg.Map, cfg.Simulation.Seed)
	ws := world.NewState(cfg, grid, catalog, formulas, bus, log)
	placed := ws.FoundTown(cfg.Town.Plan, cfg.Residents.InitialPerHouse)
	printStat("buildings", len(placed))
	printStat("residents", ws.Population())
	printStat("souls", int(ws.Souls()))
	fmt.Println()

	// 5. Optional ledger
	if cfg.Ledger.Enabled {
		printSection("ledger")
		dbCtx, dbCancel := context.WithTimeout(ctx, 30*time.Second)
		db, err := persist.NewDB(dbCtx, cfg.Ledger, log)
		dbCancel()
		if err != nil {
			return fmt.Errorf("ledger: %w", err)
		}
		defer db.Close()
		rec := persist.NewRecorder(persist.NewLedgerRepo(db), bus, cfg.Ledger, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.Run(ctx)
		}()
		printOK(fmt.Sprintf("%s ledger ready (run %s)", db.Driver(), rec.RunID()))
		fmt.Println()
	}

	// 6. Optional spectator feed
	var render func()
	if cfg.Spectator.Enabled {
		hub := spectate.NewHub(log)
		srv := spectate.NewServer(cfg.Spectator.BindAddress, hub, log)
		render = spectate.NewFeed(ws, hub, cfg.Spectator.EveryFrames, log).Render
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.Run(ctx)
		}()
		go func() {
			defer wg.Done()
			if err := srv.Serve(ctx); err != nil {
				log.Error("spectator feed stopped", zap.Error(err))
			}
		}()
	}

	// 7. Systems and scheduler
	engine := system.NewEngine(ws, cfg, log)
	sched := coresys.NewScheduler(cfg.Simulation.StepRate, cfg.Simulation.MaxFrame, engine.Step, render, log)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	printSection("ready")
	printReady(fmt.Sprintf("simulation running (%d Hz, day %.0fs)", cfg.Simulation.StepRate, cfg.Clock.DayLength))
	if cfg.Spectator.Enabled {
		printReady(fmt.Sprintf("spectator feed ws://%s/ws", cfg.Spectator.BindAddress))
	}
	fmt.Println()

	sched.Start()

	status := time.NewTicker(statusInterval)
	defer status.Stop()
	for {
		select {
		case <-status.C:
			logStatus(ws, sched, log)
		case <-sched.Done():
			err := sched.Stop()
			log.Error("simulation halted", zap.Error(err))
			stop()
			return fmt.Errorf("simulation: %w", err)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			err := sched.Stop()
			stop()
			if err != nil {
				return fmt.Errorf("simulation: %w", err)
			}
			logStatus(ws, sched, log)
			log.Info("simulation stopped")
			return nil
		}
	}
}

func logStatus(ws *world.State, sched *coresys.Scheduler, log *zap.Logger) {
	snap := ws.Snapshot()
	log.Info("town status",
		zap.Int("day", snap.Day),
		zap.Int("population", snap.Population),
		zap.Int("buildings", len(snap.Buildings)),
		zap.Int("awaiting_harvest", snap.Dead),
		zap.String("souls", humanize.Comma(snap.Souls)),
		zap.String("ticks", humanize.Comma(int64(sched.Ticks()))))
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
