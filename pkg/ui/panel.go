package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	headerHeight = 25
	titleHeight  = 30
	padding      = 10
)

// row is either a section header (widget nil) or a widget.
type row struct {
	title  string
	widget Widget
}

// Panel is a scrollable column of titled sections.
type Panel struct {
	Title         string
	X, Y          float64
	Width, Height float64
	Visible       bool
	ScrollOffset  float64

	BGColor     color.RGBA
	BorderColor color.RGBA

	rows []row
}

func NewPanel(x, y, width, height float64, title string) *Panel {
	return &Panel{
		Title:       title,
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		Visible:     true,
		BGColor:     color.RGBA{R: 30, G: 30, B: 40, A: 220},
		BorderColor: color.RGBA{R: 100, G: 100, B: 120, A: 255},
	}
}

func (p *Panel) AddSection(title string) {
	p.rows = append(p.rows, row{title: title})
}

func (p *Panel) Add(w Widget) {
	p.rows = append(p.rows, row{widget: w})
	p.layout()
}

func (p *Panel) AddSlider(label string, min, max, value float64) *Slider {
	s := NewSlider(0, 0, p.Width-2*padding, label, min, max, value)
	p.Add(s)
	return s
}

// AddIntSlider adds a slider snapping to whole numbers.
func (p *Panel) AddIntSlider(label string, min, max int, value int) *Slider {
	s := NewSlider(0, 0, p.Width-2*padding, label, float64(min), float64(max), float64(value))
	s.Step = 1
	s.Set(float64(value))
	p.Add(s)
	return s
}

func (p *Panel) AddCheckbox(label string, value bool) *Checkbox {
	c := NewCheckbox(0, 0, label, value)
	p.Add(c)
	return c
}

func (p *Panel) AddButton(label string, onClick func()) *Button {
	b := NewButton(0, 0, p.Width-2*padding, 24, label, onClick)
	p.Add(b)
	return b
}

func (p *Panel) contentHeight() float64 {
	h := 0.0
	for _, r := range p.rows {
		if r.widget == nil {
			h += headerHeight
			continue
		}
		h += r.widget.Height()
	}
	return h
}

// layout places every widget according to the scroll offset.
func (p *Panel) layout() {
	y := p.Y + titleHeight - p.ScrollOffset
	for _, r := range p.rows {
		if r.widget == nil {
			y += headerHeight
			continue
		}
		r.widget.MoveTo(p.X+padding, y)
		y += r.widget.Height()
	}
}

func (p *Panel) visible(y, h float64) bool {
	return y >= p.Y+titleHeight-5 && y+h <= p.Y+p.Height
}

// Update scrolls on the mouse wheel and forwards input to visible widgets.
func (p *Panel) Update() {
	if !p.Visible {
		return
	}
	if _, dy := ebiten.Wheel(); dy != 0 {
		maxScroll := max(p.contentHeight()-p.Height+titleHeight+padding, 0)
		p.ScrollOffset = min(max(p.ScrollOffset-dy*20, 0), maxScroll)
	}
	p.layout()

	y := p.Y + titleHeight - p.ScrollOffset
	for _, r := range p.rows {
		if r.widget == nil {
			y += headerHeight
			continue
		}
		if p.visible(y, r.widget.Height()) {
			r.widget.Update()
		}
		y += r.widget.Height()
	}
}

func (p *Panel) Draw(screen *ebiten.Image) {
	if !p.Visible {
		return
	}
	vector.FillRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), p.BGColor, true)
	vector.StrokeRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), 2, p.BorderColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+padding), int(p.Y+5))

	y := p.Y + titleHeight - p.ScrollOffset
	for _, r := range p.rows {
		if r.widget == nil {
			if p.visible(y, headerHeight) {
				vector.FillRect(screen, float32(p.X+5), float32(y), float32(p.Width-10), 20,
					color.RGBA{R: 60, G: 60, B: 70, A: 255}, true)
				ebitenutil.DebugPrintAt(screen, r.title, int(p.X+padding), int(y+3))
			}
			y += headerHeight
			continue
		}
		if p.visible(y, r.widget.Height()) {
			r.widget.Draw(screen)
		}
		y += r.widget.Height()
	}
}
