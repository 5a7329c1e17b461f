package motion

import (
	"fmt"
	"math"

	"busters/game"

	"gonum.org/v1/gonum/mat"
)

// Tolerance on the sum of a transition row.
const Tolerance = 1e-9

// Model is an adversary's movement model. Rows must sum to 1 and only the current cell and
// its legal neighbours may carry probability.
type Model interface {
	// Transitions returns P(next | from) given where the tracker currently stands.
	Transitions(from, tracker game.Position) map[game.Position]float64
	// Stationary reports whether Transitions ignores the tracker position.
	Stationary() bool
}

// Matrix builds the row-stochastic transition matrix of model in the grid's
// LegalPositions order: entry (i, j) is P(positions[j] | positions[i]).
func Matrix(grid game.Grid, model Model, tracker game.Position) *mat.Dense {
	positions := grid.LegalPositions()
	index := make(map[game.Position]int, len(positions))
	for i, p := range positions {
		index[p] = i
	}

	n := len(positions)
	m := mat.NewDense(n, n, nil)
	for i, from := range positions {
		total := 0.0
		for to, p := range model.Transitions(from, tracker) {
			j, ok := index[to]
			if !ok {
				panic(fmt.Sprintf("transition from %v to illegal position %v", from, to))
			}
			m.Set(i, j, m.At(i, j)+p)
			total += p
		}
		if math.Abs(total-1) > Tolerance {
			panic(fmt.Sprintf("transition row for %v sums to %f", from, total))
		}
	}
	return m
}
