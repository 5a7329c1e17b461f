package engine

import (
	"busters/game"
	"busters/inference"

	"golang.org/x/exp/rand"
)

// Policy chooses the tracker's next action from the legal ones.
type Policy interface {
	Act(tracker game.Position, legal []game.Direction, beliefs []inference.Distribution) game.Direction
}

type stayPolicy struct{}

// NewStayPolicy keeps the tracker in place.
func NewStayPolicy() Policy {
	return stayPolicy{}
}

func (stayPolicy) Act(game.Position, []game.Direction, []inference.Distribution) game.Direction {
	return game.Stop
}

type randomPolicy struct {
	rng *rand.Rand
}

// NewRandomPolicy picks a random legal move, stopping only when boxed in.
func NewRandomPolicy(seed uint64) Policy {
	return &randomPolicy{rng: rand.New(rand.NewSource(seed))}
}

func (p *randomPolicy) Act(_ game.Position, legal []game.Direction, _ []inference.Distribution) game.Direction {
	moves := make([]game.Direction, 0, len(legal))
	for _, d := range legal {
		if d != game.Stop {
			moves = append(moves, d)
		}
	}
	if len(moves) == 0 {
		return game.Stop
	}
	return moves[p.rng.Intn(len(moves))]
}
