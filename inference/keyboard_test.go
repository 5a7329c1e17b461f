package inference

import (
	"testing"

	"busters/game"
	"busters/sensor"

	"github.com/stretchr/testify/require"
)

func TestKeyboard(t *testing.T) {
	grid := game.OpenLayout(3, 3)

	t.Run("spreads belief evenly over consistent positions", func(t *testing.T) {
		f := NewKeyboard(grid, sensor.NewNoisy(sensor.WithSpread(1), sensor.WithKernel(sensor.Triangular)))
		f.InitializeUniformly()

		require.NoError(t, f.Observe(0, center))

		// Center and the four edges can all report 0
		d := f.BeliefDistribution()
		require.Len(t, d.Map(), 5)
		for _, w := range d.Map() {
			require.InDelta(t, 0.2, w, tolerance)
		}
	})

	t.Run("ignores the prior", func(t *testing.T) {
		f := NewKeyboard(grid, sensor.Exact())
		f.InitializeUniformly()
		require.NoError(t, f.Observe(2, center))

		require.NoError(t, f.Observe(1, center))

		require.Len(t, f.BeliefDistribution().Map(), 4)
	})

	t.Run("elapsing time changes nothing", func(t *testing.T) {
		f := NewKeyboard(grid, sensor.Exact())
		f.InitializeUniformly()
		require.NoError(t, f.Observe(2, center))
		before := f.BeliefDistribution().Weights()

		f.ElapseTime(center)

		require.Equal(t, before, f.BeliefDistribution().Weights())
	})

	t.Run("impossible reading resets to uniform", func(t *testing.T) {
		f := NewKeyboard(grid, sensor.Exact())
		f.InitializeUniformly()

		err := f.Observe(9, center)

		require.ErrorIs(t, err, ErrImpossibleObservation)
		requireNormalized(t, f.BeliefDistribution())
		require.Len(t, f.BeliefDistribution().Map(), 9)
	})
}
