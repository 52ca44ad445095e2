package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/profile"
	"github.com/shapeflow/shapesim/internal/config"
	"github.com/shapeflow/shapesim/internal/core/event"
	coresys "github.com/shapeflow/shapesim/internal/core/system"
	"github.com/shapeflow/shapesim/internal/data"
	"github.com/shapeflow/shapesim/internal/game"
	"github.com/shapeflow/shapesim/internal/persist"
	"github.com/shapeflow/shapesim/internal/scripting"
	"github.com/shapeflow/shapesim/internal/spawn"
	"github.com/shapeflow/shapesim/internal/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(cfgPath string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              shapesim  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m     shape spawning & lifecycle runtime    \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mconfig:\033[0m %s\n\n", cfgPath)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
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

// ── Main loop ─────────────────────────────────────────────────────

// inputPollRate is how often console commands are drained between ticks.
const inputPollRate = 5 * time.Millisecond

func run() error {
	// 1. Load config
	cfgPath := "config/shapesim.toml"
	if p := os.Getenv("SHAPESIM_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	if p := startProfile(cfg.Debug); p != nil {
		defer p.Stop()
	}

	printBanner(cfgPath)

	// 3. Catalog, factories, scripting, levels
	printSection("catalog")
	catalog, err := data.LoadCatalog(cfg.Data.Catalog)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	factories, err := catalog.BuildFactories(log)
	if err != nil {
		return fmt.Errorf("factories: %w", err)
	}
	printStat("factories", factories.Count())

	var adjuster spawn.Adjuster
	if cfg.Scripting.Enabled {
		engine, err := scripting.NewEngine(cfg.Scripting.Dir, log)
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer engine.Close()
		if engine.HasAdjustSpawn() {
			adjuster = engine
			printOK("adjust_spawn hook loaded")
		}
	}

	levels, err := catalog.BuildLevels(factories, adjuster)
	if err != nil {
		return fmt.Errorf("levels: %w", err)
	}
	printStat("levels", levels.Len())
	fmt.Println()

	// 4. Storage backend
	printSection("storage")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var store persist.Storage
	switch cfg.Storage.Backend {
	case "postgres":
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		schema, err := persist.RunMigrations(ctx, db.Pool, log)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		store = persist.NewSlotRepo(db)
		printOK(fmt.Sprintf("PostgreSQL save slots ready (schema %d)", schema))
	default:
		fs, err := persist.NewFileStorage(cfg.Storage.Dir, log)
		if err != nil {
			return fmt.Errorf("file storage: %w", err)
		}
		store = fs
		printOK(fmt.Sprintf("save directory %s", cfg.Storage.Dir))
	}

	// 5. Game
	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	bus := event.NewBus()
	g, err := game.New(factories, levels, game.Options{
		Seed:            seed,
		ReseedOnLoad:    cfg.Simulation.ReseedOnLoad,
		StartLevel:      cfg.Simulation.StartLevel,
		CreationRate:    cfg.Simulation.CreationRate,
		DestructionRate: cfg.Simulation.DestructionRate,
		DestroyDuration: cfg.Simulation.DestroyDuration,
	}, bus, log)
	if err != nil {
		return fmt.Errorf("game: %w", err)
	}

	saves := system.NewSaves(g, store, cfg.Storage.Slot, bus, log)
	if cfg.Storage.LoadOnStart {
		switch err := saves.Load(ctx, ""); {
		case err == nil:
			printStat("shapes restored", g.Roster().Len())
		case errors.Is(err, persist.ErrSlotNotFound):
			printOK("no save found, starting fresh")
		default:
			return fmt.Errorf("load %s: %w", cfg.Storage.Slot, err)
		}
	}
	fmt.Println()

	// 6. Systems
	commands := make(chan system.Command, 64)
	go readCommands(os.Stdin, commands, log)

	autosave := system.NewAutosaveSystem(saves, cfg.Simulation.AutosaveInterval, log)
	runner := coresys.NewRunner(cfg.Simulation.TickRate)
	runner.Register(system.NewInputSystem(g, saves, commands, 16, log))
	runner.Register(system.NewEventSystem(bus))
	runner.Register(system.NewSimulationSystem(g))
	runner.Register(system.NewStatsSystem(g.Roster(), bus, 10*time.Second, log))
	runner.Register(autosave)

	// 7. Run
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()
	inputTicker := time.NewTicker(inputPollRate)
	defer inputTicker.Stop()

	var deadline <-chan time.Time
	if cfg.Simulation.RunFor > 0 {
		deadline = time.After(cfg.Simulation.RunFor)
	}

	printSection("running")
	printReady(fmt.Sprintf("level %d %s", g.Level().ID, g.Level().Name))
	printReady(fmt.Sprintf("tick %s, seed %d", cfg.Simulation.TickRate, seed))
	fmt.Println()

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			runner.Advance(now.Sub(last))
			last = now
		case <-inputTicker.C:
			runner.TickPhase(coresys.PhaseInput, 0)
		case <-deadline:
			log.Info("run duration reached", zap.Duration("run_for", cfg.Simulation.RunFor))
			autosave.SaveNow()
			return nil
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			autosave.SaveNow()
			log.Info("stopped",
				zap.Int("shapes", g.Roster().Len()),
				zap.Uint64("ticks", runner.Ticks()),
			)
			return nil
		}
	}
}

// readCommands turns console lines into commands until r is exhausted.
func readCommands(r io.Reader, out chan<- system.Command, log *zap.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, err := system.ParseCommand(line)
		if err != nil {
			log.Warn("bad command", zap.String("line", line), zap.Error(err))
			continue
		}
		out <- cmd
	}
}

func startProfile(cfg config.DebugConfig) interface{ Stop() } {
	var mode func(*profile.Profile)
	switch cfg.Profile {
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfile
	case "block":
		mode = profile.BlockProfile
	case "mutex":
		mode = profile.MutexProfile
	case "trace":
		mode = profile.TraceProfile
	default:
		return nil
	}
	return profile.Start(mode, profile.ProfilePath(cfg.ProfileDir), profile.NoShutdownHook, profile.Quiet)
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
