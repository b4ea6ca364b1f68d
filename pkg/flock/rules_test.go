package flock

import (
	"math"
	"testing"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

func TestBird_Accessors(t *testing.T) {
	b := NewBird(3, 4, 0, -2)
	assert.Equal(t, 3.0, b.X())
	assert.Equal(t, 4.0, b.Y())
	assert.Equal(t, 0.0, b.Vx())
	assert.Equal(t, -2.0, b.Vy())
	assert.InDelta(t, -math.Pi/2, b.Heading(), tol)
	assert.InDelta(t, 2.0, b.Speed(), tol)
	assert.InDelta(t, 5.0, b.DistanceTo(NewBird(0, 0, 1, 1)), tol)
}

func TestInFieldOfView(t *testing.T) {
	ref := NewBird(0, 0, 1, 0)

	tests := []struct {
		name      string
		point     geometry.Vector2D
		viewAngle float64
		want      bool
	}{
		{"ahead", geometry.Vector2D{X: 10, Y: 0}, math.Pi / 4, true},
		{"side inside wide cone", geometry.Vector2D{X: 0, Y: 10}, math.Pi * 3 / 4, true},
		{"side outside narrow cone", geometry.Vector2D{X: 0, Y: 10}, math.Pi / 4, false},
		{"directly behind with full cone", geometry.Vector2D{X: -10, Y: 0}, math.Pi, false},
		{"slightly off behind with full cone", geometry.Vector2D{X: -10, Y: 0.5}, math.Pi, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InFieldOfView(ref, tt.point, tt.viewAngle))
		})
	}

	t.Run("stopped bird sees everything", func(t *testing.T) {
		assert.True(t, InFieldOfView(NewBird(0, 0, 0, 0), geometry.Vector2D{X: -3, Y: 0}, 0.1))
	})
}

func TestSeparation(t *testing.T) {
	me := NewBird(0, 0, 0, 0)

	t.Run("close neighbour pushes away", func(t *testing.T) {
		got := Separation([]Bird{NewBird(1, 0, 0, 0)}, me, 5, 2)
		assert.True(t, got.Eq(geometry.Vector2D{X: -2, Y: 0}), "got %v", got)
	})

	t.Run("neighbour beyond inner radius ignored", func(t *testing.T) {
		got := Separation([]Bird{NewBird(6, 0, 0, 0)}, me, 5, 2)
		assert.True(t, got.Eq(geometry.Zero), "got %v", got)
	})

	t.Run("neighbour on the radius ignored", func(t *testing.T) {
		got := Separation([]Bird{NewBird(5, 0, 0, 0)}, me, 5, 2)
		assert.True(t, got.Eq(geometry.Zero), "got %v", got)
	})

	t.Run("symmetric neighbours cancel", func(t *testing.T) {
		got := Separation([]Bird{NewBird(1, 0, 0, 0), NewBird(-1, 0, 0, 0)}, me, 5, 1)
		assert.True(t, got.Eq(geometry.Zero), "got %v", got)
	})

	t.Run("zero weight", func(t *testing.T) {
		got := Separation([]Bird{NewBird(1, 0, 0, 0)}, me, 5, 0)
		assert.True(t, got.Eq(geometry.Zero), "got %v", got)
	})
}

func TestAlignment(t *testing.T) {
	me := NewBird(0, 0, 1, 0)
	ns := []Bird{NewBird(5, 0, 0, 2), NewBird(0, 5, 0, 4)}

	got := Alignment(ns, me, 0.5)
	// mean velocity (0, 3), minus own (1, 0), times 0.5
	assert.True(t, got.Eq(geometry.Vector2D{X: -0.5, Y: 1.5}), "got %v", got)

	assert.True(t, Alignment(nil, me, 1).Eq(geometry.Zero))
}

func TestCohesion(t *testing.T) {
	me := NewBird(0, 0, 1, 0)
	ns := []Bird{NewBird(4, 0, 0, 0), NewBird(0, 8, 0, 0)}

	got := Cohesion(ns, me, 0.25)
	// centroid (2, 4) times 0.25
	assert.True(t, got.Eq(geometry.Vector2D{X: 0.5, Y: 1}), "got %v", got)

	assert.True(t, Cohesion(nil, me, 1).Eq(geometry.Zero))
}

func TestAvoidPredator(t *testing.T) {
	birds := []Bird{
		NewBird(10, 10, 1, 0),
		NewBird(50, 50, 1, 0),
	}

	t.Run("predator ahead and close", func(t *testing.T) {
		predator := NewBird(15, 10, 0, 0)
		got := AvoidPredator(birds, birds[0], 0, predator, 10, math.Pi/2)
		assert.Less(t, got.X, 0.0)
		assert.InDelta(t, 0, got.Y, tol)
		// d/r = 0.5, so 1.5 * gain
		assert.InDelta(t, PredatorFleeGain*1.5, got.Len(), tol)
	})

	t.Run("flee at least the gain inside the radius", func(t *testing.T) {
		predator := NewBird(19.9, 10, 0, 0)
		got := AvoidPredator(birds, birds[0], 0, predator, 10, math.Pi/2)
		assert.GreaterOrEqual(t, got.Len(), PredatorFleeGain)
	})

	t.Run("predator behind is not seen", func(t *testing.T) {
		predator := NewBird(5, 10, 0, 0)
		got := AvoidPredator(birds, birds[0], 0, predator, 10, math.Pi/2)
		assert.True(t, got.Eq(geometry.Zero), "got %v", got)
	})

	t.Run("predator out of range", func(t *testing.T) {
		predator := NewBird(25, 10, 0, 0)
		got := AvoidPredator(birds, birds[0], 0, predator, 10, math.Pi/2)
		assert.True(t, got.Eq(geometry.Zero), "got %v", got)
	})

	t.Run("steered velocity decides the view cone", func(t *testing.T) {
		// stored heading faces away from the predator, steered heading faces it
		predator := NewBird(5, 10, 0, 0)
		steered := birds[0]
		steered.Velocity = geometry.Vector2D{X: -1, Y: 0}
		got := AvoidPredator(birds, steered, 0, predator, 10, math.Pi/2)
		assert.Greater(t, got.X, 0.0)
		assert.InDelta(t, PredatorFleeGain*1.5, got.Len(), tol)
	})

	t.Run("other bird out of range", func(t *testing.T) {
		predator := NewBird(15, 10, 0, 0)
		got := AvoidPredator(birds, birds[1], 1, predator, 10, math.Pi/2)
		assert.True(t, got.Eq(geometry.Zero), "got %v", got)
	})

	t.Run("invalid index", func(t *testing.T) {
		predator := NewBird(15, 10, 0, 0)
		assert.True(t, AvoidPredator(birds, birds[0], 7, predator, 10, math.Pi).Eq(geometry.Zero))
		assert.True(t, AvoidPredator(birds, birds[0], -1, predator, 10, math.Pi).Eq(geometry.Zero))
	})
}

func TestAvoidSpeeding(t *testing.T) {
	tests := []struct {
		name      string
		vel       geometry.Vector2D
		wantSpeed float64
	}{
		{"too fast", geometry.Vector2D{X: 30, Y: 40}, 5},
		{"too slow", geometry.Vector2D{X: 0.3, Y: -0.4}, 2},
		{"in range", geometry.Vector2D{X: 3, Y: 0}, 3},
		{"exactly max", geometry.Vector2D{X: 0, Y: 5}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Bird{Velocity: tt.vel}
			AvoidSpeeding(&b, 5, 2)
			assert.InDelta(t, tt.wantSpeed, b.Speed(), tol)
			assert.True(t, b.Velocity.Normalize().Eq(tt.vel.Normalize()), "direction changed: %v -> %v", tt.vel, b.Velocity)
		})
	}

	t.Run("stopped bird restarts at min speed", func(t *testing.T) {
		b := Bird{}
		AvoidSpeeding(&b, 5, 2)
		assert.True(t, b.Velocity.Eq(geometry.Vector2D{X: 2}), "got %v", b.Velocity)
	})
}

func TestAvoidBoundaries_SoftTurn(t *testing.T) {
	b := NewBird(5, 500, -1, 0)
	AvoidBoundaries(&b, 1000, 1000)
	assert.InDelta(t, -1+TurnFactor, b.Vx(), tol)

	b = NewBird(995, 500, 1, 0)
	AvoidBoundaries(&b, 1000, 1000)
	assert.InDelta(t, 1-TurnFactor, b.Vx(), tol)

	b = NewBird(500, 500, 1, 1)
	AvoidBoundaries(&b, 1000, 1000)
	assert.True(t, b.Velocity.Eq(geometry.Vector2D{X: 1, Y: 1}), "interior bird steered: %v", b.Velocity)
}

func TestAvoidBoundaries_Reflects(t *testing.T) {
	b := NewBird(1, 1, -5, -5)
	AvoidBoundaries(&b, 1000, 1000)
	assert.Greater(t, b.Vx(), 0.0)
	assert.Greater(t, b.Vy(), 0.0)
}

func TestAvoidBoundaries_KeepsBirdsOnCanvas(t *testing.T) {
	canvases := []struct{ w, h float64 }{
		{1000, 700},
		{100, 100},
		{10, 3},
		{1, 1},
		{0.5, 200},
	}
	rng := NewRandomSource(42)

	for _, c := range canvases {
		for range 20 {
			b := NewBird(rng.Uniform(0, c.w), rng.Uniform(0, c.h), rng.Uniform(-15, 15), rng.Uniform(-15, 15))
			for tick := range 500 {
				b.Velocity = b.Velocity.Add(geometry.Vector2D{X: rng.Uniform(-3, 3), Y: rng.Uniform(-3, 3)})
				AvoidSpeeding(&b, PredatorMaxSpeed, PredatorMinSpeed)
				AvoidBoundaries(&b, c.w, c.h)
				b.move(BirdStep)
				require.True(t, b.X() >= 0 && b.X() <= c.w && b.Y() >= 0 && b.Y() <= c.h,
					"canvas %vx%v tick %d: bird left the canvas at %v", c.w, c.h, tick, b.Position)
			}
		}
	}
}
