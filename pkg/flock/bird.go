package flock

import "github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"

// Bird is one simulated agent. The predator is a Bird too.
type Bird struct {
	Position geometry.Vector2D `json:"position"`
	Velocity geometry.Vector2D `json:"velocity"`
}

// NewBird creates a bird at (x, y) moving with (vx, vy).
func NewBird(x, y, vx, vy float64) Bird {
	return Bird{
		Position: geometry.Vector2D{X: x, Y: y},
		Velocity: geometry.Vector2D{X: vx, Y: vy},
	}
}

func (b Bird) X() float64  { return b.Position.X }
func (b Bird) Y() float64  { return b.Position.Y }
func (b Bird) Vx() float64 { return b.Velocity.X }
func (b Bird) Vy() float64 { return b.Velocity.Y }

// Heading is the direction of travel in radians relative to the X-axis.
func (b Bird) Heading() float64 { return b.Velocity.Angle() }

// Speed is the velocity magnitude.
func (b Bird) Speed() float64 { return b.Velocity.Len() }

// DistanceTo gives the cartesian distance between two birds.
func (b Bird) DistanceTo(other Bird) float64 {
	return b.Position.DistanceTo(other.Position)
}

// move integrates the position by velocity*factor.
func (b *Bird) move(factor float64) {
	b.Position = b.Position.Add(b.Velocity.Mul(factor))
}
