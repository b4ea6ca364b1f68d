// Package flock is the boids engine: a fixed population of birds, and an
// optional predator, steered every tick by separation, alignment, cohesion,
// predator avoidance, speed limits and canvas boundaries.
//
// Neighbour search is a linear scan, O(N) per bird and O(N²) per tick. For the
// tens to low hundreds of birds this engine targets that is cheaper than
// maintaining a spatial index.
package flock

import (
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"
)

const (
	BirdMaxSpeed     = 5.0
	BirdMinSpeed     = 2.0
	PredatorMaxSpeed = 15.0
	PredatorMinSpeed = 2.0

	// position integration factors
	BirdStep     = 0.9
	PredatorStep = 0.8

	// PredatorAlignment is the fixed alignment weight of the predator.
	PredatorAlignment = 0.001

	InitialSpeedRange = 5.0
)

// Flock owns the population and orchestrates a tick.
// It is not safe for concurrent use: one goroutine owns it.
type Flock struct {
	opts     Options
	birds    []Bird
	predator *Bird
	ticks    uint64

	// double buffer, reused across ticks
	prev []Bird
}

// New builds a flock from opts, drawing the initial state from rng.
// Positions are uniform over the canvas, velocities uniform in [-5, 5] per axis.
func New(opts Options, rng RandomSource) (*Flock, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is nil", ErrInvalidOptions)
	}

	f := &Flock{
		opts:  opts,
		birds: make([]Bird, 0, opts.Number),
	}
	for range opts.Number {
		f.birds = append(f.birds, randomBird(rng, opts))
	}
	if opts.WithPredator {
		p := randomBird(rng, opts)
		f.predator = &p
	}
	return f, nil
}

// MustNew is like New but panics on invalid options.
func MustNew(opts Options, rng RandomSource) *Flock {
	f, err := New(opts, rng)
	if err != nil {
		panic(err)
	}
	return f
}

// NewFromBirds builds a flock with an explicit initial state.
// predator is ignored unless opts.WithPredator is set; opts.Number is
// overwritten with len(birds).
func NewFromBirds(opts Options, birds []Bird, predator Bird) (*Flock, error) {
	opts.Number = len(birds)
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	f := &Flock{
		opts:  opts,
		birds: slices.Clone(birds),
	}
	if opts.WithPredator {
		p := predator
		f.predator = &p
	}
	return f, nil
}

func randomBird(rng RandomSource, opts Options) Bird {
	return NewBird(
		rng.Uniform(0, opts.CanvasWidth),
		rng.Uniform(0, opts.CanvasHeight),
		rng.Uniform(-InitialSpeedRange, InitialSpeedRange),
		rng.Uniform(-InitialSpeedRange, InitialSpeedRange),
	)
}

// Options returns the configuration the flock was built with.
func (f *Flock) Options() Options { return f.opts }

// Size is the number of birds, predator excluded.
func (f *Flock) Size() int { return len(f.birds) }

// Ticks is the number of completed Evolve calls.
func (f *Flock) Ticks() uint64 { return f.ticks }

// Birds returns a copy of the population.
func (f *Flock) Birds() []Bird { return slices.Clone(f.birds) }

// Predator returns the predator and whether the flock has one.
func (f *Flock) Predator() (Bird, bool) {
	if f.predator == nil {
		return Bird{}, false
	}
	return *f.predator, true
}

// Neighbors returns the birds seen by ref: strictly closer than the
// perception distance, not at distance zero (so never ref itself), and inside
// ref's view cone.
func (f *Flock) Neighbors(ref Bird) []Bird {
	return neighbors(f.birds, ref, f.opts.Distance, f.opts.ViewAngle)
}

func neighbors(population []Bird, ref Bird, distance, viewAngle float64) []Bird {
	var found []Bird
	limit := distance * distance
	for _, other := range population {
		d := other.Position.DistanceSquaredTo(ref.Position)
		if d <= 0 || d >= limit {
			continue
		}
		if InFieldOfView(ref, other.Position, viewAngle) {
			found = append(found, other)
		}
	}
	return found
}

// Evolve advances the simulation by one tick: the predator first, then every
// bird in population order.
func (f *Flock) Evolve() {
	f.evolvePredator()

	switch f.opts.Mode {
	case UpdateDoubleBuffered:
		f.evolveBuffered()
	default:
		f.evolveInPlace()
	}
	f.ticks++
}

func (f *Flock) evolvePredator() {
	if f.predator == nil {
		return
	}
	p := f.predator

	if ns := f.Neighbors(*p); len(ns) != 0 {
		p.Velocity = p.Velocity.Add(Cohesion(ns, *p, f.opts.Cohesion*2))
		p.Velocity = p.Velocity.Add(Alignment(ns, *p, PredatorAlignment))
	}

	AvoidSpeeding(p, PredatorMaxSpeed, PredatorMinSpeed)
	AvoidBoundaries(p, f.opts.CanvasWidth, f.opts.CanvasHeight)
	p.move(PredatorStep)
}

func (f *Flock) evolveInPlace() {
	for i := range f.birds {
		f.birds[i] = f.steer(f.birds, i)
	}
}

func (f *Flock) evolveBuffered() {
	f.prev = append(f.prev[:0], f.birds...)

	if f.opts.Workers <= 1 {
		for i := range f.birds {
			f.birds[i] = f.steer(f.prev, i)
		}
		return
	}

	// each worker writes a disjoint range of f.birds and only reads f.prev
	chunk := (len(f.birds) + f.opts.Workers - 1) / f.opts.Workers
	var g errgroup.Group
	g.SetLimit(f.opts.Workers)
	for start := 0; start < len(f.birds); start += chunk {
		end := min(start+chunk, len(f.birds))
		g.Go(func() error {
			for i := start; i < end; i++ {
				f.birds[i] = f.steer(f.prev, i)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// steer computes the next state of population[self] from population.
func (f *Flock) steer(population []Bird, self int) Bird {
	b := population[self]

	if ns := neighbors(population, b, f.opts.Distance, f.opts.ViewAngle); len(ns) != 0 {
		b.Velocity = b.Velocity.Add(Separation(ns, b, f.opts.SeparationDistance, f.opts.Separation))
		b.Velocity = b.Velocity.Add(Alignment(ns, b, f.opts.Alignment))
		b.Velocity = b.Velocity.Add(Cohesion(ns, b, f.opts.Cohesion))
	}

	if f.predator != nil {
		b.Velocity = b.Velocity.Add(AvoidPredator(population, b, self, *f.predator, f.opts.SeparationDistance, f.opts.ViewAngle))
	}

	AvoidSpeeding(&b, BirdMaxSpeed, BirdMinSpeed)
	AvoidBoundaries(&b, f.opts.CanvasWidth, f.opts.CanvasHeight)
	b.move(BirdStep)
	return b
}
