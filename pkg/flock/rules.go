package flock

import (
	"math"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

const (
	// PredatorFleeGain is the base flee speed added when the predator is seen
	// inside the separation radius. It is at least the bird max speed so
	// fleeing dominates the flocking rules.
	PredatorFleeGain = 5.0

	// TurnFactor is the velocity nudge applied per tick inside the edge margin.
	TurnFactor = 0.5

	maxEdgeMargin      = 100.0
	edgeMarginFraction = 0.1
)

// InFieldOfView reports whether point lies inside the view cone of ref,
// i.e. the angle between (point - ref.Position) and ref.Velocity is below
// viewAngle. A bird with zero velocity sees all around.
func InFieldOfView(ref Bird, point geometry.Vector2D, viewAngle float64) bool {
	return geometry.AngleBetween(point.Sub(ref.Position), ref.Velocity) < viewAngle
}

// Separation pushes bird away from every neighbour strictly closer than
// separationDistance. Each contribution is (bird - neighbour), the sum is
// scaled by weight. Neighbours beyond the inner radius contribute nothing.
func Separation(neighbors []Bird, bird Bird, separationDistance, weight float64) geometry.Vector2D {
	push := geometry.Zero
	for _, n := range neighbors {
		if bird.DistanceTo(n) < separationDistance {
			push = push.Add(bird.Position.Sub(n.Position))
		}
	}
	return push.Mul(weight)
}

// Alignment steers bird towards the mean velocity of its neighbours.
func Alignment(neighbors []Bird, bird Bird, weight float64) geometry.Vector2D {
	if len(neighbors) == 0 {
		return geometry.Zero
	}
	return meanVelocity(neighbors).Sub(bird.Velocity).Mul(weight)
}

// Cohesion steers bird towards the centroid of its neighbours.
func Cohesion(neighbors []Bird, bird Bird, weight float64) geometry.Vector2D {
	if len(neighbors) == 0 {
		return geometry.Zero
	}
	return centroid(neighbors).Sub(bird.Position).Mul(weight)
}

func meanVelocity(birds []Bird) geometry.Vector2D {
	vs := make([]geometry.Vector2D, len(birds))
	for i, b := range birds {
		vs[i] = b.Velocity
	}
	return geometry.Mean(vs)
}

func centroid(birds []Bird) geometry.Vector2D {
	ps := make([]geometry.Vector2D, len(birds))
	for i, b := range birds {
		ps[i] = b.Position
	}
	return geometry.Mean(ps)
}

// AvoidPredator returns the flee velocity of bird, which is birds[self] as
// already steered this tick by the flocking rules; its velocity decides
// whether the predator is in view. self is the index of bird in birds. The
// result is non zero only when the predator is closer than separationDistance
// and inside the view cone. The flee speed grows from PredatorFleeGain at the
// edge of the radius to twice that on contact.
func AvoidPredator(birds []Bird, bird Bird, self int, predator Bird, separationDistance, viewAngle float64) geometry.Vector2D {
	if self < 0 || self >= len(birds) {
		return geometry.Zero
	}
	d := bird.DistanceTo(predator)
	if d >= separationDistance || !InFieldOfView(bird, predator.Position, viewAngle) {
		return geometry.Zero
	}
	away := bird.Position.Sub(predator.Position)
	if away.IsZero() {
		// on top of the predator: flee backwards
		away = bird.Velocity.Mul(-1)
	}
	return away.WithLen(PredatorFleeGain * (2 - d/separationDistance))
}

// AvoidSpeeding rescales the velocity of b so its magnitude lies in
// [minSpeed, maxSpeed], keeping its direction. A stopped bird is restarted
// along +X at minSpeed.
func AvoidSpeeding(b *Bird, maxSpeed, minSpeed float64) {
	speed := b.Velocity.Len()
	switch {
	case speed < geometry.Epsilon:
		b.Velocity = geometry.Vector2D{X: minSpeed}
	case speed > maxSpeed:
		b.Velocity = b.Velocity.Mul(maxSpeed / speed)
	case speed < minSpeed:
		b.Velocity = b.Velocity.Mul(minSpeed / speed)
	}
}

// AvoidBoundaries keeps b on the [0,width]x[0,height] canvas.
// Inside the edge margin the velocity is nudged towards the interior by
// TurnFactor. Then any velocity component whose full step would leave the
// canvas is reflected, and shortened if the canvas is narrower than the step.
// Positions are never moved here, so motion stays continuous.
func AvoidBoundaries(b *Bird, width, height float64) {
	margin := math.Min(maxEdgeMargin, edgeMarginFraction*math.Min(width, height))

	b.Velocity.X = steerAxis(b.Position.X, b.Velocity.X, width, margin)
	b.Velocity.Y = steerAxis(b.Position.Y, b.Velocity.Y, height, margin)
}

func steerAxis(pos, vel, limit, margin float64) float64 {
	if pos < margin {
		vel += TurnFactor
	}
	if pos > limit-margin {
		vel -= TurnFactor
	}

	next := pos + vel
	if next < 0 {
		vel = math.Abs(vel)
	} else if next > limit {
		vel = -math.Abs(vel)
	}

	// canvas narrower than the step
	next = pos + vel
	if next < 0 || next > limit {
		vel = math.Max(0, math.Min(limit, next)) - pos
	}
	return vel
}
