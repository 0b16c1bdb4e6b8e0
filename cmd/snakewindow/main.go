// Command snakewindow animates a FABRIK snake arm in a desktop window.
// Clicking in the window moves the target onto the ground plane under
// the pointer; R resets the arm and Escape or Q closes the window.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"
	"zappem.net/pub/math/geom"

	"zappem.net/pub/kinematics/fabrik"
	"zappem.net/pub/kinematics/fabrik/internal/config"
	"zappem.net/pub/kinematics/fabrik/internal/logging"
	"zappem.net/pub/kinematics/fabrik/render"
	"zappem.net/pub/kinematics/fabrik/view"
)

// window runs the chain inside ebiten's game loop. Update and Draw are
// called from the same goroutine, so the chain and target need no
// locking.
type window struct {
	chain  *fabrik.Chain
	target geom.Vector
	view   view.View
	style  render.Style
	last   fabrik.Report

	frame *image.RGBA
	img   *ebiten.Image

	log *zap.Logger
}

func (w *window) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		w.chain.Reset()
		w.log.Info("chain reset")
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		w.target = w.view.Unproject(
			(float64(x)+0.5)/float64(w.style.Width),
			(float64(y)+0.5)/float64(w.style.Height),
		)
		w.log.Info("new target",
			zap.Float64("x", w.target[0]),
			zap.Float64("y", w.target[1]),
			zap.Bool("reachable", w.chain.Reachable(w.target)),
		)
	}
	w.last = w.chain.Solve(w.target)
	w.log.Debug("solve", logging.SolveFields(w.last)...)
	return nil
}

func (w *window) Draw(screen *ebiten.Image) {
	if w.frame == nil {
		w.frame = image.NewRGBA(image.Rect(0, 0, w.style.Width, w.style.Height))
		w.img = ebiten.NewImage(w.style.Width, w.style.Height)
	}
	render.Draw(w.frame, w.chain.Joints(), w.target, w.view, w.style)
	w.img.WritePixels(w.frame.Pix)
	screen.DrawImage(w.img, nil)
}

func (w *window) Layout(outsideWidth, outsideHeight int) (int, int) {
	return w.style.Width, w.style.Height
}

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	preset := flag.String("preset", "", "Chain preset: snake or arm (default: snake)")
	size := flag.Int("size", 0, "Window size in pixels (default: 512)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	logFile := flag.String("log", "", "Log file (default: stderr)")

	flag.Parse()

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Resolve(config.Flags{
		Preset:   *preset,
		Size:     *size,
		LogLevel: *logLevel,
		LogFile:  *logFile,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New("snakewindow", cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	chain, err := fabrik.NewChain(cfg.Params())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	st, err := cfg.Style()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	// The window redraws every tick; antialiasing comes from the
	// rasterizer alone.
	st.Supersample = 1

	w := &window{
		chain:  chain,
		target: cfg.TargetV(),
		view:   cfg.View(),
		style:  st,
		log:    logger,
	}

	ebiten.SetWindowTitle(fmt.Sprintf("snake arm (%s, %d joints)", cfg.Preset, chain.Len()))
	ebiten.SetWindowSize(st.Width, st.Height)
	ebiten.SetTPS(cfg.FPS)
	logger.Info("window open", zap.Int("size", st.Width), zap.Int("tps", cfg.FPS))
	if err := ebiten.RunGame(w); err != nil {
		logger.Error("window closed", zap.Error(err))
		os.Exit(1)
	}
}
