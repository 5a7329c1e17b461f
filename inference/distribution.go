package inference

import (
	"encoding/json"

	"busters/game"

	"gonum.org/v1/gonum/floats"
)

// Distribution is an immutable snapshot of a belief over legal positions.
type Distribution struct {
	positions []game.Position
	weights   []float64
	removed   bool
}

func newDistribution(positions []game.Position, weights []float64, removed bool) Distribution {
	w := make([]float64, len(weights))
	copy(w, weights)
	return Distribution{positions: positions, weights: w, removed: removed}
}

func (d Distribution) Len() int { return len(d.weights) }

// Removed reports whether the adversary was removed by a no-reading observation.
func (d Distribution) Removed() bool { return d.removed }

// Get returns the weight of p, zero for positions outside the distribution.
func (d Distribution) Get(p game.Position) float64 {
	for i, q := range d.positions {
		if q == p {
			return d.weights[i]
		}
	}
	return 0
}

func (d Distribution) Positions() []game.Position {
	positions := make([]game.Position, len(d.positions))
	copy(positions, d.positions)
	return positions
}

func (d Distribution) Weights() []float64 {
	weights := make([]float64, len(d.weights))
	copy(weights, d.weights)
	return weights
}

func (d Distribution) Sum() float64 {
	return floats.Sum(d.weights)
}

// MostLikely returns the highest weighted position; ties go to the first in layout order.
func (d Distribution) MostLikely() (game.Position, float64) {
	if len(d.weights) == 0 {
		return game.Position{}, 0
	}
	i := floats.MaxIdx(d.weights)
	return d.positions[i], d.weights[i]
}

// Map returns the positions carrying nonzero weight.
func (d Distribution) Map() map[game.Position]float64 {
	m := make(map[game.Position]float64)
	for i, w := range d.weights {
		if w > 0 {
			m[d.positions[i]] = w
		}
	}
	return m
}

type cell struct {
	X int     `json:"x"`
	Y int     `json:"y"`
	P float64 `json:"p"`
}

func (d Distribution) MarshalJSON() ([]byte, error) {
	cells := make([]cell, 0, len(d.weights))
	for i, w := range d.weights {
		if w > 0 {
			cells = append(cells, cell{X: d.positions[i].X, Y: d.positions[i].Y, P: w})
		}
	}
	return json.Marshal(struct {
		Removed bool   `json:"removed"`
		Cells   []cell `json:"cells"`
	}{
		Removed: d.removed,
		Cells:   cells,
	})
}
