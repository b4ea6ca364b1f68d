package simulation

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/ui"
	"github.com/tochemey/goakt/v3/actor"
)

// whiteImage is the texture source for every triangle; colours come from the vertices.
var whiteImage = ebiten.NewImage(3, 3)

var (
	birdColor       = color.RGBA{R: 100, G: 200, B: 255, A: 255}
	predatorColor   = color.RGBA{R: 255, G: 60, B: 60, A: 255}
	perceptionColor = color.RGBA{R: 50, G: 100, B: 255, A: 60}
	alarmColor      = color.RGBA{R: 255, G: 50, B: 50, A: 120}
)

func init() {
	whiteImage.Fill(color.White)
}

// Game is the ebiten front end. It owns no simulation state: every frame it
// asks the flock actor for one tick and draws the latest snapshot pushed back.
type Game struct {
	ctx        context.Context
	System     actor.ActorSystem
	flockPID   *actor.PID
	snapshotCh chan *Snapshot
	lastState  *Snapshot
	paused     bool

	// UI Controls
	panel *ui.Panel

	widgetNumber             *ui.Slider
	widgetSeparation         *ui.Slider
	widgetAlignment          *ui.Slider
	widgetCohesion           *ui.Slider
	widgetDistance           *ui.Slider
	widgetSeparationDistance *ui.Slider
	widgetViewAngle          *ui.Slider
	widgetPredator           *ui.Checkbox
	widgetShowPerception     *ui.Checkbox
	widgetShowAlarm          *ui.Checkbox

	cfg *Config

	// Timing instrumentation
	updateAvg float64 // Rolling average in ms
	drawAvg   float64 // Rolling average in ms
}

// NewGame spawns the flock actor on system and builds the control panel.
func NewGame(ctx context.Context, cfg *Config, system actor.ActorSystem) (*Game, error) {
	snapshotCh := make(chan *Snapshot, 10)

	flockPID, err := system.Spawn(ctx, "flock", NewFlockActor(snapshotCh, cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to spawn flock: %w", err)
	}

	g := &Game{
		ctx:        ctx,
		System:     system,
		flockPID:   flockPID,
		snapshotCh: snapshotCh,
		cfg:        cfg,
	}

	panel := ui.NewPanel(10, 10, 280, cfg.CanvasHeight-20, "Flock  [Tab] hide  [Space] pause")

	panel.AddSection("Population (Restart Required)")
	g.widgetNumber = panel.AddIntSlider("Birds", 1, 1000, cfg.Number)
	g.widgetPredator = panel.AddCheckbox("Predator", cfg.WithPredator)

	panel.AddSection("Rule Weights")
	g.widgetSeparation = panel.AddSlider("Separation", 0, 0.5, cfg.Separation)
	g.widgetAlignment = panel.AddSlider("Alignment", 0, 0.5, cfg.Alignment)
	g.widgetCohesion = panel.AddSlider("Cohesion", 0, 0.05, cfg.Cohesion)

	panel.AddSection("Perception")
	g.widgetDistance = panel.AddSlider("Distance", 5, 300, cfg.Distance)
	g.widgetSeparationDistance = panel.AddSlider("Separation Distance", 1, 100, cfg.SeparationDistance)
	g.widgetViewAngle = panel.AddSlider("View Angle", 0, math.Pi, cfg.ViewAngle)

	panel.AddSection("Visualization")
	g.widgetShowPerception = panel.AddCheckbox("Show Perception Circle", false)
	g.widgetShowAlarm = panel.AddCheckbox("Show Alarm Circle", false)

	panel.AddButton("Restart", g.restart)
	g.panel = panel

	return g, nil
}

// panelConfig is the current config with the panel values applied.
func (g *Game) panelConfig() *Config {
	next := *g.cfg
	next.Number = g.widgetNumber.Int()
	next.WithPredator = g.widgetPredator.Value
	next.Separation = g.widgetSeparation.Value
	next.Alignment = g.widgetAlignment.Value
	next.Cohesion = g.widgetCohesion.Value
	next.Distance = g.widgetDistance.Value
	next.SeparationDistance = g.widgetSeparationDistance.Value
	next.ViewAngle = g.widgetViewAngle.Value
	return &next
}

// restart rebuilds the flock with the panel values.
func (g *Game) restart() {
	next := g.panelConfig()
	msg, err := next.ToProto()
	if err != nil {
		g.System.Logger().Errorf("restart failed: %v", err)
		return
	}
	if err := actor.Tell(g.ctx, g.flockPID, msg); err != nil {
		g.System.Logger().Errorf("restart failed: %v", err)
		return
	}
	g.cfg = next
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.updateAvg = g.updateAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.panel.Visible = !g.panel.Visible
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	g.panel.Update()

	// Latest state (non-blocking)
	select {
	case snap := <-g.snapshotCh:
		g.lastState = snap
	default:
	}

	if g.paused {
		return nil
	}
	if err := actor.Tell(g.ctx, g.flockPID, Step(1)); err != nil {
		return fmt.Errorf("step failed: %w", err)
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.drawAvg = g.drawAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	if s := g.lastState; s != nil {
		for _, b := range s.Birds {
			if g.widgetShowPerception.Value {
				vector.StrokeCircle(screen, float32(b.Position.X), float32(b.Position.Y),
					float32(g.cfg.Distance), 1, perceptionColor, true)
			}
			if g.widgetShowAlarm.Value {
				vector.StrokeCircle(screen, float32(b.Position.X), float32(b.Position.Y),
					float32(g.cfg.SeparationDistance), 1, alarmColor, true)
			}
			drawBird(screen, b, 6, birdColor)
		}
		if s.Predator != nil {
			drawBird(screen, *s.Predator, 12, predatorColor)
		}
	}

	g.panel.Draw(screen)
	g.drawStats(screen)
}

func (g *Game) drawStats(screen *ebiten.Image) {
	state := ""
	if g.paused {
		state = "PAUSED\n"
	}
	msg := fmt.Sprintf("%sFPS: %.2f\nTPS: %.2f\n\nUpdate: %.2fms\nDraw:   %.2fms",
		state, ebiten.ActualFPS(), ebiten.ActualTPS(), g.updateAvg, g.drawAvg)
	if s := g.lastState; s != nil {
		msg += fmt.Sprintf("\n\nTick:  %d\nBirds: %d\nMean:  %s\nStdev: %s",
			s.Tick, len(s.Birds), s.Statistic.MeanVelocity, s.Statistic.StdevVelocity)
	}
	ebitenutil.DebugPrintAt(screen, msg, screen.Bounds().Dx()-220, 10)
}

func (g *Game) Layout(w, h int) (int, int) { return int(g.cfg.CanvasWidth), int(g.cfg.CanvasHeight) }

// birdTriangle returns the tip and the two rear corners of a bird of the
// given length pointing along its heading.
func birdTriangle(b BirdView, length float64) (tip, right, left geometry.Vector2D) {
	nose := geometry.NewVectorPolar(length, b.Heading)
	wing := nose.Mul(0.8)
	return b.Position.Add(nose), b.Position.Add(wing.Rotate(2.5)), b.Position.Add(wing.Rotate(-2.5))
}

// drawBird draws a triangle of the given length pointing along the heading.
func drawBird(screen *ebiten.Image, b BirdView, length float64, clr color.RGBA) {
	tip, right, left := birdTriangle(b, length)

	r := float32(clr.R) / 255
	gr := float32(clr.G) / 255
	bl := float32(clr.B) / 255
	a := float32(clr.A) / 255
	vertices := []ebiten.Vertex{
		{DstX: float32(tip.X), DstY: float32(tip.Y), SrcX: 1, SrcY: 1, ColorR: r, ColorG: gr, ColorB: bl, ColorA: a},
		{DstX: float32(right.X), DstY: float32(right.Y), SrcX: 1, SrcY: 1, ColorR: r, ColorG: gr, ColorB: bl, ColorA: a},
		{DstX: float32(left.X), DstY: float32(left.Y), SrcX: 1, SrcY: 1, ColorR: r, ColorG: gr, ColorB: bl, ColorA: a},
	}
	screen.DrawTriangles(vertices, []uint16{0, 1, 2}, whiteImage, &ebiten.DrawTrianglesOptions{})
}
