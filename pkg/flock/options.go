package flock

import (
	"errors"
	"fmt"
)

// ErrInvalidOptions is wrapped by every Options validation failure.
var ErrInvalidOptions = errors.New("invalid flock options")

// UpdateMode selects how neighbour queries observe the population during a tick.
type UpdateMode int

const (
	// UpdateInPlace runs a single pass in population order. Birds later in
	// the order see the already updated state of earlier ones.
	UpdateInPlace UpdateMode = iota
	// UpdateDoubleBuffered makes every bird read the population as it was
	// at the start of the tick. Safe to evaluate in parallel.
	UpdateDoubleBuffered
)

func (m UpdateMode) String() string {
	switch m {
	case UpdateInPlace:
		return "in-place"
	case UpdateDoubleBuffered:
		return "double-buffered"
	default:
		return fmt.Sprintf("UpdateMode(%d)", int(m))
	}
}

// ParseUpdateMode maps "in-place" / "double-buffered" to an UpdateMode.
// The empty string selects UpdateInPlace.
func ParseUpdateMode(s string) (UpdateMode, error) {
	switch s {
	case "", "in-place":
		return UpdateInPlace, nil
	case "double-buffered":
		return UpdateDoubleBuffered, nil
	default:
		return UpdateInPlace, fmt.Errorf("%w: unknown update mode %q", ErrInvalidOptions, s)
	}
}

// Options is the construction input of a Flock. It is copied into the flock
// and never changes afterwards.
type Options struct {
	Number             int
	Separation         float64
	Alignment          float64
	Cohesion           float64
	Distance           float64 // perception radius
	SeparationDistance float64 // inner radius used by separation and predator avoidance
	WithPredator       bool
	ViewAngle          float64 // field-of-view half-angle, radians
	CanvasWidth        float64
	CanvasHeight       float64

	Mode    UpdateMode
	Workers int // only used by UpdateDoubleBuffered, <= 1 means sequential
}

// Validate checks the construction preconditions.
func (o Options) Validate() error {
	if o.Number <= 0 {
		return fmt.Errorf("%w: number must be positive, got %d", ErrInvalidOptions, o.Number)
	}
	nonNegative := []struct {
		name  string
		value float64
	}{
		{"separation", o.Separation},
		{"alignment", o.Alignment},
		{"cohesion", o.Cohesion},
		{"distance", o.Distance},
		{"separation distance", o.SeparationDistance},
	}
	for _, f := range nonNegative {
		if f.value < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %v", ErrInvalidOptions, f.name, f.value)
		}
	}
	if o.CanvasWidth <= 0 || o.CanvasHeight <= 0 {
		return fmt.Errorf("%w: canvas must be positive, got %vx%v", ErrInvalidOptions, o.CanvasWidth, o.CanvasHeight)
	}
	if o.Mode != UpdateInPlace && o.Mode != UpdateDoubleBuffered {
		return fmt.Errorf("%w: unknown update mode %d", ErrInvalidOptions, int(o.Mode))
	}
	if o.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidOptions, o.Workers)
	}
	return nil
}
