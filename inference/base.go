package inference

import (
	"fmt"

	"busters/game"
	"busters/sensor"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// base holds the belief bookkeeping shared by the filter kinds.
type base struct {
	grid      game.Grid
	positions []game.Position
	emission  sensor.Model
	recovery  Recovery
	noReading NoReadingPolicy

	beliefs     *mat.VecDense // Indexed like positions
	initialized bool
	removed     bool
}

func newBase(grid game.Grid, emission sensor.Model, options []Option) base {
	b := base{ // Default values
		grid:      grid,
		positions: grid.LegalPositions(),
		emission:  emission,
		recovery:  ResetUniform,
		noReading: IgnoreNoReading,
	}
	for _, option := range options {
		option(&b)
	}
	if len(b.positions) == 0 {
		panic("cannot track an adversary on a grid without legal positions")
	}
	return b
}

func (b *base) InitializeUniformly() {
	n := len(b.positions)
	uniform := make([]float64, n)
	w := 1 / float64(n)
	for i := range uniform {
		uniform[i] = w
	}
	b.beliefs = mat.NewVecDense(n, uniform)
	b.initialized = true
	b.removed = false
}

func (b *base) BeliefDistribution() Distribution {
	b.mustBeInitialized()
	return newDistribution(b.positions, b.beliefs.RawVector().Data, b.removed)
}

func (b *base) Removed() bool {
	return b.removed
}

// observe weighs every position by combine(prior, likelihood) and renormalizes.
func (b *base) observe(reading sensor.Reading, tracker game.Position, combine func(prior, likelihood float64) float64) error {
	b.mustBeInitialized()
	b.mustBeLegal(tracker)
	if !reading.Valid() {
		panic(fmt.Sprintf("malformed reading %d", reading))
	}
	if b.removed {
		return nil
	}

	if reading == sensor.NoReading {
		switch b.noReading {
		case IgnoreNoReading:
			return nil
		case RemoveOnNoReading:
			b.removed = true
			return nil
		}
	}

	prior := b.beliefs.RawVector().Data
	posterior := make([]float64, len(b.positions))
	for i, p := range b.positions {
		likelihood := b.emission.Likelihood(reading, game.ManhattanDistance(p, tracker))
		posterior[i] = combine(prior[i], likelihood)
	}

	total := floats.Sum(posterior)
	if total == 0 {
		if b.recovery == ResetUniform {
			b.InitializeUniformly()
		}
		return fmt.Errorf("%w: reading %s from %v (recovery %s)", ErrImpossibleObservation, reading, tracker, b.recovery)
	}
	floats.Scale(1/total, posterior)
	b.beliefs = mat.NewVecDense(len(posterior), posterior)
	return nil
}

// normalize rescales v to sum to one, resetting to uniform when no mass is left.
func (b *base) normalize(v *mat.VecDense) {
	data := v.RawVector().Data
	total := floats.Sum(data)
	if !(total > 0) { // Also catches NaN
		b.InitializeUniformly()
		return
	}
	floats.Scale(1/total, data)
	b.beliefs = v
}

func (b *base) mustBeInitialized() {
	if !b.initialized {
		panic(ErrUninitialized)
	}
}

func (b *base) mustBeLegal(p game.Position) {
	if !b.grid.IsLegal(p) {
		panic(fmt.Errorf("%w: %v", ErrInvalidPosition, p))
	}
}
