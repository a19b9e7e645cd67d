package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/camrig/config"
	"github.com/pthm-cable/camrig/rig"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics, replaying an intent script")
	scriptPath := flag.String("script", "", "Intent script for headless mode (empty = built-in demo)")
	logStats := flag.Bool("log-stats", false, "Output commit stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	viewsPath := flag.String("views", "", "YAML file named views are loaded from and saved to")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	opts := rig.Options{
		LogStats:  *logStats || cfg.Telemetry.Enabled,
		OutputDir: *outputDir,
		ViewsPath: *viewsPath,
	}

	if *headless {
		if err := runHeadless(cfg, opts, *scriptPath); err != nil {
			slog.Error("headless run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Camera Rig")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	v, err := rig.NewViewer(cfg, opts)
	if err != nil {
		slog.Error("failed to create viewer", "error", err)
		return
	}
	defer func() {
		if err := v.Unload(); err != nil {
			slog.Error("unload", "error", err)
		}
	}()

	for !rl.WindowShouldClose() {
		v.Update(time.Now())
		v.Draw()
	}
}

func runHeadless(cfg *config.Config, opts rig.Options, scriptPath string) error {
	script, err := rig.LoadScript(scriptPath)
	if err != nil {
		return err
	}
	r, sim, err := rig.NewHeadless(cfg, opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slog.Info("starting headless replay", "steps", len(script.Steps), "script", scriptPath)
	runErr := r.RunScript(ctx, script)

	st := sim.State()
	slog.Info("replay finished",
		"eye", st.Eye, "target", st.Target, "projection", st.Projection.String(),
		"host_calls", len(sim.Calls()), "refreshes", sim.Refreshes(),
	)
	if err := r.Unload(); err != nil {
		slog.Error("unload", "error", err)
	}
	return runErr
}
