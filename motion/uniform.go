package motion

import "busters/game"

// Uniform moves to any legal neighbour (and optionally stays) with equal probability.
type Uniform struct {
	grid game.Grid
	stay bool
}

func NewUniform(grid game.Grid, stay bool) *Uniform {
	return &Uniform{grid: grid, stay: stay}
}

func (u *Uniform) Transitions(from, _ game.Position) map[game.Position]float64 {
	options := u.grid.LegalMoves(from)
	if u.stay || len(options) == 0 { // Boxed in adversaries stay put
		options = append(options, from)
	}

	dist := make(map[game.Position]float64, len(options))
	p := 1 / float64(len(options))
	for _, next := range options {
		dist[next] += p
	}
	return dist
}

func (u *Uniform) Stationary() bool { return true }
