package inference

import (
	"fmt"

	"busters/game"
	"busters/motion"
	"busters/sensor"

	"gonum.org/v1/gonum/mat"
)

// Exact is the forward filter of a hidden Markov model over legal positions: the time
// update pushes the belief through the transition matrix and the observation update
// multiplies it by the reading's likelihood.
type Exact struct {
	base
	transition motion.Model
	matrix     *mat.Dense // Cached for stationary models
}

func NewExact(grid game.Grid, emission sensor.Model, transition motion.Model, options ...Option) *Exact {
	return &Exact{
		base:       newBase(grid, emission, options),
		transition: transition,
	}
}

func (e *Exact) Observe(reading sensor.Reading, tracker game.Position) error {
	return e.observe(reading, tracker, func(prior, likelihood float64) float64 {
		return prior * likelihood
	})
}

func (e *Exact) ElapseTime(tracker game.Position) {
	e.mustBeInitialized()
	e.mustBeLegal(tracker)
	if e.removed {
		return
	}

	t := e.transitionMatrix(tracker)
	n := len(e.positions)
	if r, c := t.Dims(); r != n || c != n {
		panic(fmt.Sprintf("transition matrix is %dx%d, expected %dx%d", r, c, n, n))
	}

	// b'(j) = sum_i b(i) * T(i, j)
	next := mat.NewVecDense(n, nil)
	next.MulVec(t.T(), e.beliefs)
	e.normalize(next)
}

func (e *Exact) transitionMatrix(tracker game.Position) *mat.Dense {
	if !e.transition.Stationary() {
		return motion.Matrix(e.grid, e.transition, tracker)
	}
	if e.matrix == nil {
		e.matrix = motion.Matrix(e.grid, e.transition, tracker)
	}
	return e.matrix
}
