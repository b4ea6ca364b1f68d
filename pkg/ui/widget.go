package ui

import "github.com/hajimehoshi/ebiten/v2"

// Widget is one row of a Panel.
type Widget interface {
	Update()
	Draw(screen *ebiten.Image)
	// Height is the vertical space the widget needs, label included.
	Height() float64
	// MoveTo places the widget body at (x, y); the panel calls it while scrolling.
	MoveTo(x, y float64)
}

func cursorIn(x, y, w, h float64) bool {
	mx, my := ebiten.CursorPosition()
	return float64(mx) >= x && float64(mx) <= x+w &&
		float64(my) >= y && float64(my) <= y+h
}
