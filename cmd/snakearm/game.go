package main

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"
	"zappem.net/pub/math/geom"

	"zappem.net/pub/kinematics/fabrik"
	"zappem.net/pub/kinematics/fabrik/internal/config"
	"zappem.net/pub/kinematics/fabrik/internal/logging"
	"zappem.net/pub/kinematics/fabrik/render"
	"zappem.net/pub/kinematics/fabrik/view"
)

var markStyle = map[render.Kind]struct {
	r     rune
	style tcell.Style
}{
	render.KindLink:   {'·', tcell.StyleDefault.Foreground(tcell.ColorDarkGreen)},
	render.KindJoint:  {'o', tcell.StyleDefault.Foreground(tcell.ColorGreen)},
	render.KindBase:   {'#', tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)},
	render.KindTip:    {'@', tcell.StyleDefault.Foreground(tcell.ColorLime).Bold(true)},
	render.KindTarget: {'X', tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)},
}

// Game drives a chain from a terminal. The chain, target and screen are
// only touched from the goroutine running the frame loop; input events
// reach it over a channel.
type Game struct {
	screen        tcell.Screen
	width, height int

	chain  *fabrik.Chain
	target geom.Vector
	view   view.View
	fps    int
	paused bool
	last   fabrik.Report

	log *zap.Logger
}

// NewGame prepares an initialized screen for the chain and enables
// mouse reporting.
func NewGame(screen tcell.Screen, chain *fabrik.Chain, cfg config.Config, log *zap.Logger) *Game {
	screen.EnableMouse()
	screen.HideCursor()
	g := &Game{
		screen: screen,
		chain:  chain,
		target: cfg.TargetV(),
		view:   cfg.View(),
		fps:    cfg.FPS,
		log:    log,
	}
	g.width, g.height = screen.Size()
	return g
}

// rows is the number of screen rows used for the scene; the last row
// holds the status line.
func (g *Game) rows() int {
	if g.height < 2 {
		return g.height
	}
	return g.height - 1
}

// pointer maps a screen cell onto the world z=0 plane through the same
// view the scene is drawn with.
func (g *Game) pointer(x, y int) geom.Vector {
	nx := (float64(x) + 0.5) / float64(g.width)
	ny := (float64(y) + 0.5) / float64(g.rows())
	return g.view.Unproject(nx, ny)
}

// step runs the solver once unless paused.
func (g *Game) step() {
	if g.paused {
		return
	}
	g.last = g.chain.Solve(g.target)
	g.log.Debug("solve", logging.SolveFields(g.last)...)
}

func (g *Game) draw() {
	g.screen.Clear()
	for _, m := range render.Marks(g.width, g.rows(), g.chain.Joints(), g.target, g.view) {
		ms := markStyle[m.Kind]
		g.screen.SetContent(m.X, m.Y, ms.r, nil, ms.style)
	}

	state := "converged"
	switch {
	case g.paused:
		state = "paused"
	case !g.last.Reachable:
		state = "out of reach"
	case !g.last.Converged:
		state = "settling"
	}
	status := fmt.Sprintf(" target (%.2f, %.2f)  error %.3f  iterations %d  %s  [click] retarget [r] reset [space] pause [q] quit",
		g.target[0], g.target[1], g.last.TipError, g.last.Iterations, state)
	style := tcell.StyleDefault.Foreground(tcell.ColorSilver)
	for i, r := range []rune(status) {
		if i >= g.width {
			break
		}
		g.screen.SetContent(i, g.height-1, r, nil, style)
	}
	g.screen.Show()
}

// handleInput applies one event and reports whether the game should
// keep running.
func (g *Game) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case 'q':
				return false
			case 'r':
				g.chain.Reset()
				g.log.Info("chain reset")
			case ' ':
				g.paused = !g.paused
			}
		}

	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 == 0 {
			break
		}
		x, y := ev.Position()
		if y >= g.rows() {
			break
		}
		g.target = g.pointer(x, y)
		g.log.Info("new target",
			zap.Float64("x", g.target[0]),
			zap.Float64("y", g.target[1]),
			zap.Bool("reachable", g.chain.Reachable(g.target)),
		)

	case *tcell.EventResize:
		g.screen.Sync()
		g.width, g.height = g.screen.Size()
	}

	return true
}

// pump forwards screen events to events until the screen is finalized
// or done is closed.
func (g *Game) pump(events chan<- tcell.Event, done <-chan struct{}) {
	for {
		ev := g.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case events <- ev:
		case <-done:
			return
		}
	}
}

func (g *Game) run() {
	ticker := time.NewTicker(time.Second / time.Duration(g.fps))
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	done := make(chan struct{})
	defer close(done)
	go g.pump(eventChan, done)

	for {
		select {
		case ev := <-eventChan:
			if !g.handleInput(ev) {
				return
			}

		case <-ticker.C:
			g.step()
			g.draw()
		}
	}
}

func (g *Game) cleanup() {
	g.screen.Fini()
}
