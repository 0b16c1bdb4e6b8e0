// Command snakearm animates a FABRIK snake arm in the terminal. A left
// click moves the target; the arm chases it once per frame.
//
// With -snapshot the arm is solved against the configured target and a
// single WebP frame is written instead.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"zappem.net/pub/kinematics/fabrik"
	"zappem.net/pub/kinematics/fabrik/internal/config"
	"zappem.net/pub/kinematics/fabrik/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run parses args and drives the command, returning the process exit
// code. Deferred cleanup has finished by the time it returns.
func run(args []string, stderr io.Writer) int {
	// CLI flags
	fs := flag.NewFlagSet("snakearm", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "Path to config.json file")
	preset := fs.String("preset", "", "Chain preset: snake or arm (default: snake)")
	joints := fs.Int("joints", 0, "Number of joints (default: from preset)")
	segment := fs.Float64("segment", 0, "Segment length (default: from preset)")
	size := fs.Int("size", 0, "Snapshot size in pixels (default: 512)")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	logFile := fs.String("log", "", "Log file (terminal mode logs nowhere without it)")
	snapshot := fs.String("snapshot", "", "Write one WebP frame to this path and exit")
	frames := fs.Int("frames", 1, "Solve calls to run before taking the snapshot")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(stderr, "Error loading config: %v\n", err)
			return 1
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		Preset:   *preset,
		Joints:   *joints,
		Segment:  *segment,
		Size:     *size,
		LogLevel: *logLevel,
		LogFile:  *logFile,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger := zap.NewNop()
	if cfg.LogFile != "" || *snapshot != "" {
		var err error
		logger, err = logging.New("snakearm", cfg.LogLevel, cfg.LogFile)
		if err != nil {
			fmt.Fprintf(stderr, "Error creating logger: %v\n", err)
			return 1
		}
	}
	defer logger.Sync()

	chain, err := fabrik.NewChain(cfg.Params())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger.Info("chain ready",
		zap.String("preset", cfg.Preset),
		zap.Int("joints", chain.Len()),
		zap.Float64("segment", chain.Segment()),
		zap.Float64("reach", chain.Reach()),
	)

	if *snapshot != "" {
		if err := runSnapshot(chain, cfg, logger, *snapshot, *frames); err != nil {
			logger.Error("snapshot failed", zap.Error(err))
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(stderr, "Failed to initialize: %v\n", err)
		return 1
	}

	game := NewGame(screen, chain, cfg, logger)
	defer game.cleanup()

	game.run()
	return 0
}
