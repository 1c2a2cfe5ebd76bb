package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/instar-sim/instar/bodyplan"
	"github.com/instar-sim/instar/config"
	"github.com/instar-sim/instar/engine"
	"github.com/instar-sim/instar/renderer"
	"github.com/instar-sim/instar/sim"
	"github.com/instar-sim/instar/storage"
	"github.com/instar-sim/instar/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	dbPath := flag.String("db", "", "SQLite database for run and event history (empty = disabled)")
	listSystems := flag.Bool("list-systems", false, "Print the tick pipeline and exit")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to open output directory", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
		os.Exit(1)
	}

	store, err := storage.Open(*dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	eng := engine.New(rngSeed, cfg.Engine.MaxParticles)

	s, err := sim.New(eng, sim.Options{
		Seed:     rngSeed,
		Output:   output,
		Store:    store,
		LogStats: *logStats,
	})
	if err != nil {
		slog.Error("failed to build simulation", "error", err)
		os.Exit(1)
	}

	if *listSystems {
		for _, info := range s.Registry().All() {
			fmt.Printf("%-12s %-22s [%s] %s\n", info.ID, info.Name, info.Category, info.Description)
		}
		return
	}

	ctx := context.Background()
	runID, err := store.BeginRun(ctx, rngSeed, s.Preset().Identity.String())
	if err != nil {
		slog.Error("failed to begin run", "error", err)
		os.Exit(1)
	}

	start := time.Now()
	slog.Info("starting simulation",
		"seed", rngSeed,
		"run_id", runID,
		"bodyplan", s.Preset().Identity.String(),
		"headless", *headless,
		"max_ticks", *maxTicks,
	)

	if *headless {
		runHeadless(s, *maxTicks, *stepsPerUpdate)
	} else {
		runGraphical(s, cfg, *maxTicks)
	}

	if err := store.EndRun(ctx, s.Tick()); err != nil {
		slog.Warn("failed to close run", "error", err)
	}
	logSummary(s, store, start)
}

func runHeadless(s *sim.Simulation, maxTicks, stepsPerUpdate int) {
	for {
		for i := 0; i < stepsPerUpdate; i++ {
			s.Update()
		}
		if maxTicks > 0 && int(s.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", s.Tick())
			return
		}
	}
}

func runGraphical(s *sim.Simulation, cfg *config.Config, maxTicks int) {
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Instar")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	view := renderer.NewView(int32(cfg.Screen.Width), int32(cfg.Screen.Height))
	paused := false

	for !rl.WindowShouldClose() {
		switch {
		case rl.IsKeyPressed(rl.KeySpace):
			paused = !paused
		case rl.IsKeyPressed(rl.KeyTab):
			view.CycleMorphogen(s.Field().NumMorphogens())
		case rl.IsKeyPressed(rl.KeyR):
			s.Reset()
		case rl.IsKeyPressed(rl.KeyOne):
			s.SelectBodyPlan(bodyplan.IdentityAncestral)
		case rl.IsKeyPressed(rl.KeyTwo):
			s.SelectBodyPlan(bodyplan.IdentityBeetle)
		case rl.IsKeyPressed(rl.KeyThree):
			s.SelectBodyPlan(bodyplan.IdentityButterfly)
		case rl.IsKeyPressed(rl.KeyFour):
			s.SelectBodyPlan(bodyplan.IdentityAnt)
		}

		if !paused {
			s.Update()
		}

		rl.BeginDrawing()
		view.Draw(renderer.Scene{
			Field:      s.Field(),
			Segments:   s.Segments(),
			Catalog:    s.Catalog(),
			Snapshot:   s.Snapshot(),
			Stage:      s.Stage(),
			Progress:   s.Progress(),
			BodyLength: s.Preset().BodyLength,
			BodyHeight: s.Preset().BodyHeight,
			Tick:       s.Tick(),
		})
		rl.EndDrawing()

		if maxTicks > 0 && int(s.Tick()) >= maxTicks {
			break
		}
	}
}

func logSummary(s *sim.Simulation, store *storage.Store, start time.Time) {
	events, err := store.EventCount(context.Background())
	if err != nil {
		slog.Warn("failed to count events", "error", err)
	}

	slog.Info("simulation finished",
		"ticks", humanize.Comma(int64(s.Tick())),
		"sim_age", humanize.SIWithDigits(s.Age(), 1, "s"),
		"stage", s.Stage().String(),
		"particles", humanize.Comma(int64(s.ParticleCount())),
		"events", humanize.Comma(int64(events)),
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)
}
