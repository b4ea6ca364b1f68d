package simulation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/tochemey/goakt/v3/actor"
)

// glyphs indexed by heading octant, screen Y pointing down
var headingGlyphs = [8]rune{'→', '↘', '↓', '↙', '←', '↖', '↑', '↗'}

var (
	birdStyle     = tcell.StyleDefault.Foreground(tcell.ColorLightSkyBlue)
	predatorStyle = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	statusStyle   = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
)

// TerminalView draws snapshots on a tcell screen. The last row is a status line.
type TerminalView struct {
	screen tcell.Screen
	paused bool
}

func NewTerminalView(screen tcell.Screen) *TerminalView {
	return &TerminalView{screen: screen}
}

// headingGlyph maps a heading in radians to an arrow.
func headingGlyph(angle float64) rune {
	octant := int(math.Round(angle / (math.Pi / 4)))
	return headingGlyphs[((octant%8)+8)%8]
}

// cellFor scales a canvas position onto a cols x rows grid.
func cellFor(x, y, canvasW, canvasH float64, cols, rows int) (int, int) {
	cx := int(x / canvasW * float64(cols))
	cy := int(y / canvasH * float64(rows))
	return min(max(cx, 0), cols-1), min(max(cy, 0), rows-1)
}

// Render draws one frame and shows it.
func (v *TerminalView) Render(s *Snapshot) {
	v.screen.Clear()
	cols, rows := v.screen.Size()
	fieldRows := rows - 1
	if cols <= 0 || fieldRows <= 0 || s == nil {
		v.screen.Show()
		return
	}

	for _, b := range s.Birds {
		x, y := cellFor(b.Position.X, b.Position.Y, s.CanvasWidth, s.CanvasHeight, cols, fieldRows)
		v.screen.SetContent(x, y, headingGlyph(b.Heading), nil, birdStyle)
	}
	if s.Predator != nil {
		x, y := cellFor(s.Predator.Position.X, s.Predator.Position.Y, s.CanvasWidth, s.CanvasHeight, cols, fieldRows)
		v.screen.SetContent(x, y, '@', nil, predatorStyle)
	}

	state := ""
	if v.paused {
		state = " PAUSED"
	}
	status := fmt.Sprintf(" tick %d | birds %d | mean v %s | stdev %s |%s [space] pause [q] quit",
		s.Tick, len(s.Birds), s.Statistic.MeanVelocity, s.Statistic.StdevVelocity, state)
	v.drawLine(rows-1, status, cols)

	v.screen.Show()
}

func (v *TerminalView) drawLine(row int, text string, cols int) {
	col := 0
	for _, r := range text {
		if col >= cols {
			break
		}
		v.screen.SetContent(col, row, r, nil, statusStyle)
		col++
	}
	for ; col < cols; col++ {
		v.screen.SetContent(col, row, ' ', nil, statusStyle)
	}
}

// handleEvent returns false when the user asked to quit.
func (v *TerminalView) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case 'q', 'Q':
				return false
			case ' ':
				v.paused = !v.paused
			}
		}
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

// Run drives the flock actor at ticksPerSecond and renders every snapshot it
// pushes until ctx is done or the user quits. The screen must already be
// initialised; the caller finalises it.
func (v *TerminalView) Run(ctx context.Context, pid *actor.PID, snapshots <-chan *Snapshot, ticksPerSecond float64) error {
	if ticksPerSecond <= 0 {
		ticksPerSecond = 60
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / ticksPerSecond))
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				// screen finalised
				return
			}
			events <- ev
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-events:
			if !v.handleEvent(ev) {
				return nil
			}

		case s := <-snapshots:
			v.Render(s)

		case <-ticker.C:
			if v.paused {
				continue
			}
			if err := actor.Tell(ctx, pid, Step(1)); err != nil {
				return fmt.Errorf("step failed: %w", err)
			}
		}
	}
}
