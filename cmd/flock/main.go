package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/simulation"
	"github.com/spf13/cobra"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
)

const (
	rendererWindow   = "window"
	rendererTerminal = "terminal"
	rendererHeadless = "headless"
)

type options struct {
	configFile  string
	schemaFile  string
	renderer    string
	ticks       int
	reportEvery int
	seed        uint64
	logLevel    string
	logFile     string
}

func newRootCmd() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:           "flock",
		Short:         "Boids flocking simulation with an optional predator.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, o)
		},
	}

	cmd.Flags().StringVarP(&o.configFile, "config", "c", "", "JSON config file (built-in defaults when empty)")
	cmd.Flags().StringVar(&o.schemaFile, "schema", "", "JSON schema for the config file (embedded schema when empty)")
	cmd.Flags().StringVarP(&o.renderer, "renderer", "r", rendererWindow, "window, terminal or headless")
	cmd.Flags().IntVarP(&o.ticks, "ticks", "n", 1000, "ticks to simulate in headless mode")
	cmd.Flags().IntVar(&o.reportEvery, "report-every", 100, "headless report interval in ticks, 0 for the final state only")
	cmd.Flags().Uint64Var(&o.seed, "seed", 0, "random seed, overrides the config file (0 picks one)")
	cmd.Flags().StringVar(&o.logLevel, "log-level", "info", "debug, info, warn or error")
	cmd.Flags().StringVar(&o.logFile, "log-file", "", "append logs to this file instead of stderr")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, o *options) error {
	switch o.renderer {
	case rendererWindow, rendererTerminal, rendererHeadless:
	default:
		return fmt.Errorf("unknown renderer %q", o.renderer)
	}
	if o.ticks < 0 || o.reportEvery < 0 {
		return fmt.Errorf("--ticks and --report-every must not be negative")
	}

	cfg, err := loadConfig(cmd, o)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(o)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	system, err := actor.NewActorSystem("FlockWorld", actor.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return fmt.Errorf("failed to start actor system: %w", err)
	}
	// ctx may already be cancelled here
	defer system.Stop(context.Background())

	switch o.renderer {
	case rendererTerminal:
		return runTerminal(ctx, cfg, system)
	case rendererHeadless:
		pid, err := system.Spawn(ctx, "flock", simulation.NewFlockActor(nil, cfg))
		if err != nil {
			return fmt.Errorf("failed to spawn flock: %w", err)
		}
		return simulation.RunHeadless(ctx, pid, o.ticks, o.reportEvery, cmd.OutOrStdout())
	default:
		return runWindow(ctx, cfg, system)
	}
}

func loadConfig(cmd *cobra.Command, o *options) (*simulation.Config, error) {
	cfg := simulation.DefaultConfig()
	if o.configFile != "" {
		var err error
		if cfg, err = simulation.LoadConfig(o.configFile, o.schemaFile); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = o.seed
	}
	return cfg, nil
}

// newLogger writes to --log-file when set. Without one the terminal renderer
// discards logs, since stderr shares the screen.
func newLogger(o *options) (golog.Logger, func(), error) {
	level, err := parseLevel(o.logLevel)
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer = os.Stderr
	closeFn := func() {}
	switch {
	case o.logFile != "":
		f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	case o.renderer == rendererTerminal:
		return golog.DiscardLogger, closeFn, nil
	}
	return golog.New(level, w), closeFn, nil
}

func parseLevel(s string) (golog.Level, error) {
	switch s {
	case "debug":
		return golog.DebugLevel, nil
	case "info":
		return golog.InfoLevel, nil
	case "warn", "warning":
		return golog.WarningLevel, nil
	case "error":
		return golog.ErrorLevel, nil
	}
	return golog.InfoLevel, fmt.Errorf("unknown log level %q", s)
}

func runWindow(ctx context.Context, cfg *simulation.Config, system actor.ActorSystem) error {
	game, err := simulation.NewGame(ctx, cfg, system)
	if err != nil {
		return err
	}
	ebiten.SetWindowSize(int(cfg.CanvasWidth), int(cfg.CanvasHeight))
	ebiten.SetWindowTitle("Flock: boids and a predator")
	ebiten.SetTPS(windowTPS(cfg.TicksPerSecond))
	return ebiten.RunGame(game)
}

// windowTPS rounds the configured tick rate for ebiten, never below 1.
func windowTPS(ticksPerSecond float64) int {
	return max(int(math.Round(ticksPerSecond)), 1)
}

func runTerminal(ctx context.Context, cfg *simulation.Config, system actor.ActorSystem) error {
	snapshots := make(chan *simulation.Snapshot, 10)
	pid, err := system.Spawn(ctx, "flock", simulation.NewFlockActor(snapshots, cfg))
	if err != nil {
		return fmt.Errorf("failed to spawn flock: %w", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to init screen: %w", err)
	}
	defer screen.Fini()

	return simulation.NewTerminalView(screen).Run(ctx, pid, snapshots, cfg.TicksPerSecond)
}
