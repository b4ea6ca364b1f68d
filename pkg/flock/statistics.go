package flock

import (
	"math"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

// Statistic summarises the velocities of the population at one instant.
type Statistic struct {
	MeanVelocity  geometry.Vector2D `json:"meanVelocity"`
	StdevVelocity geometry.Vector2D `json:"stdevVelocity"` // per axis, population stdev (divisor N)
}

// MeanSpeed is the magnitude of the mean velocity.
func (s Statistic) MeanSpeed() float64 { return s.MeanVelocity.Len() }

// Statistics computes a fresh Statistic from the current population.
func (f *Flock) Statistics() Statistic {
	return ComputeStatistic(f.birds)
}

// ComputeStatistic returns the mean velocity and the per-axis standard
// deviation of velocity of birds. An empty slice yields the zero Statistic.
func ComputeStatistic(birds []Bird) Statistic {
	if len(birds) == 0 {
		return Statistic{}
	}
	n := float64(len(birds))
	mean := meanVelocity(birds)

	var sx, sy float64
	for _, b := range birds {
		dx := b.Velocity.X - mean.X
		dy := b.Velocity.Y - mean.Y
		sx += dx * dx
		sy += dy * dy
	}

	return Statistic{
		MeanVelocity:  mean,
		StdevVelocity: geometry.Vector2D{X: math.Sqrt(sx / n), Y: math.Sqrt(sy / n)},
	}
}
