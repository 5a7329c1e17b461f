package motion

import "busters/game"

// Directed picks, with probability bias, uniformly among the moves that best approach
// (or flee) the tracker, and otherwise uniformly among all moves.
type Directed struct {
	grid   game.Grid
	bias   float64
	toward bool
	stay   bool
}

// NewDirected panics unless bias lies in [0, 1].
func NewDirected(grid game.Grid, bias float64, toward, stay bool) *Directed {
	if bias < 0 || bias > 1 {
		panic("directed movement bias must lie in [0, 1]")
	}
	return &Directed{grid: grid, bias: bias, toward: toward, stay: stay}
}

func (d *Directed) Transitions(from, tracker game.Position) map[game.Position]float64 {
	options := d.grid.LegalMoves(from)
	if d.stay || len(options) == 0 {
		options = append(options, from)
	}

	best := d.best(options, tracker)
	dist := make(map[game.Position]float64, len(options))
	for _, next := range best {
		dist[next] += d.bias / float64(len(best))
	}
	for _, next := range options {
		dist[next] += (1 - d.bias) / float64(len(options))
	}
	return dist
}

func (d *Directed) best(options []game.Position, tracker game.Position) []game.Position {
	var best []game.Position
	bestDistance := 0
	for _, next := range options {
		distance := game.ManhattanDistance(next, tracker)
		better := distance < bestDistance
		if !d.toward {
			better = distance > bestDistance
		}
		if best == nil || better {
			best = []game.Position{next}
			bestDistance = distance
		} else if distance == bestDistance {
			best = append(best, next)
		}
	}
	return best
}

func (d *Directed) Stationary() bool { return false }
