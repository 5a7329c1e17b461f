package inference

import (
	"busters/game"
	"busters/sensor"
)

// Keyboard spreads belief evenly over every position consistent with the latest
// reading, ignoring the prior and the adversary's movement.
type Keyboard struct {
	base
}

func NewKeyboard(grid game.Grid, emission sensor.Model, options ...Option) *Keyboard {
	return &Keyboard{base: newBase(grid, emission, options)}
}

func (k *Keyboard) Observe(reading sensor.Reading, tracker game.Position) error {
	return k.observe(reading, tracker, func(_, likelihood float64) float64 {
		if likelihood > 0 {
			return 1
		}
		return 0
	})
}

func (k *Keyboard) ElapseTime(tracker game.Position) {
	k.mustBeInitialized()
	k.mustBeLegal(tracker)
}
