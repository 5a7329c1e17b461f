package tracker

import (
	"fmt"
	"testing"

	"busters/experiments/metrics"
	"busters/game"
	"busters/inference"
	"busters/motion"
	"busters/sensor"

	"github.com/stretchr/testify/require"
)

const tolerance = 1e-6

var center = game.Position{X: 1, Y: 1}

func exactFactory(grid game.Grid, emission sensor.Model, options ...inference.Option) Factory {
	return func(id string) inference.Filter {
		return inference.NewExact(grid, emission, motion.NewUniform(grid, true), options...)
	}
}

func newOpenManager(t *testing.T, ids []string, options ...Option) *Manager {
	t.Helper()
	grid := game.OpenLayout(3, 3)
	m := NewManager(grid, exactFactory(grid, sensor.Exact()), options...)
	require.NoError(t, m.Register(ids))
	return m
}

func TestManagerRegister(t *testing.T) {
	t.Run("initializes every adversary uniformly", func(t *testing.T) {
		m := newOpenManager(t, []string{"blinky", "pinky"})

		beliefs := m.Beliefs()
		require.Len(t, beliefs, 2)
		for _, b := range beliefs {
			for _, w := range b.Weights() {
				require.Equal(t, 1.0/9, w)
			}
		}
		require.Equal(t, []string{"blinky", "pinky"}, m.IDs())
		require.Equal(t, []bool{true, true}, m.Living())
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		grid := game.OpenLayout(3, 3)
		m := NewManager(grid, exactFactory(grid, sensor.Exact()))

		err := m.Register([]string{"blinky", "blinky"})
		require.ErrorIs(t, err, ErrInvalidAdversary)
	})

	t.Run("rejects empty ids", func(t *testing.T) {
		grid := game.OpenLayout(3, 3)
		m := NewManager(grid, exactFactory(grid, sensor.Exact()))

		err := m.Register([]string{""})
		require.ErrorIs(t, err, ErrInvalidAdversary)
	})
}

func TestManagerScenario(t *testing.T) {
	for _, skip := range []bool{true, false} {
		t.Run(fmt.Sprintf("readings 2, 1, 0 concentrate on the tracker (skip first elapse %t)", skip), func(t *testing.T) {
			m := newOpenManager(t, []string{"blinky"}, WithSkipFirstElapse(skip))

			for _, reading := range []sensor.Reading{2, 1, 0} {
				beliefs, err := m.Update(Turn{Tracker: center, Readings: []sensor.Reading{reading}})
				require.NoError(t, err)
				require.InDelta(t, 1.0, beliefs[0].Sum(), tolerance)
				for p := range beliefs[0].Map() {
					require.Equal(t, int(reading), game.ManhattanDistance(p, center))
				}
			}

			require.InDelta(t, 1.0, m.Beliefs()[0].Get(center), tolerance)
			require.Equal(t, 3, m.Turns())
		})
	}
}

func TestManagerUpdate(t *testing.T) {
	t.Run("impossible observation does not stop the sweep", func(t *testing.T) {
		collector := metrics.NewCollector()
		m := newOpenManager(t, []string{"blinky", "pinky"}, WithMetrics(collector))

		beliefs, err := m.Update(Turn{Tracker: center, Readings: []sensor.Reading{5, 1}})

		require.NoError(t, err)
		require.Len(t, beliefs[0].Map(), 9, "Impossible reading resets to uniform")
		require.Len(t, beliefs[1].Map(), 4, "Other adversaries keep updating")
		require.Equal(t, 1, m.LastMetric().Impossible)
		require.Equal(t, 2, m.LastMetric().Observations)
		require.Equal(t, 2, m.LastMetric().Tracked)
	})

	t.Run("disabled steps leave the belief untouched", func(t *testing.T) {
		m := newOpenManager(t, []string{"blinky"}, WithObserve(false), WithElapse(false))

		beliefs, err := m.Update(Turn{Tracker: center, Readings: []sensor.Reading{0}})

		require.NoError(t, err)
		require.Len(t, beliefs[0].Map(), 9)
	})

	t.Run("observe then elapse", func(t *testing.T) {
		m := newOpenManager(t, []string{"blinky"}, WithOrder(ObserveThenElapse))

		beliefs, err := m.Update(Turn{Tracker: center, Readings: []sensor.Reading{0}})

		require.NoError(t, err)
		require.InDelta(t, 0.2, beliefs[0].Get(center), tolerance)
		require.InDelta(t, 0.2, beliefs[0].Get(game.Position{X: 0, Y: 1}), tolerance)
	})

	t.Run("parallel and sequential sweeps agree", func(t *testing.T) {
		ids := []string{"a", "b", "c", "d", "e"}
		sequential := newOpenManager(t, ids)
		parallel := newOpenManager(t, ids, WithGoroutines(4))

		turns := [][]sensor.Reading{{2, 1, 0, 2, 1}, {1, 1, 1, 2, 2}, {0, 2, 1, 1, 0}}
		for _, readings := range turns {
			want, err := sequential.Update(Turn{Tracker: center, Readings: readings})
			require.NoError(t, err)
			got, err := parallel.Update(Turn{Tracker: center, Readings: readings})
			require.NoError(t, err)

			for i := range want {
				require.Equal(t, want[i].Weights(), got[i].Weights())
			}
		}
	})
}

func TestManagerCapture(t *testing.T) {
	t.Run("captured adversary is frozen", func(t *testing.T) {
		m := newOpenManager(t, []string{"blinky", "pinky"}, WithMetrics(metrics.NewCollector()))
		_, err := m.Update(Turn{Tracker: center, Readings: []sensor.Reading{2, 2}})
		require.NoError(t, err)
		frozen := m.Beliefs()[0].Weights()

		beliefs, err := m.Update(Turn{
			Tracker:  center,
			Readings: []sensor.Reading{sensor.NoReading, 1},
			Living:   []bool{false, true},
		})
		require.NoError(t, err)
		beliefs, err = m.Update(Turn{Tracker: center, Readings: []sensor.Reading{0, 0}})
		require.NoError(t, err)

		require.Equal(t, frozen, beliefs[0].Weights(), "Captured belief stays queryable and frozen")
		require.InDelta(t, 1.0, beliefs[1].Get(center), tolerance)
		require.Equal(t, []bool{false, true}, m.Living())
		require.Equal(t, 1, m.LastMetric().Tracked)
	})

	t.Run("capture by id", func(t *testing.T) {
		m := newOpenManager(t, []string{"blinky"})
		require.NoError(t, m.Capture("blinky"))

		beliefs, err := m.Update(Turn{Tracker: center, Readings: []sensor.Reading{0}})

		require.NoError(t, err)
		require.Len(t, beliefs[0].Map(), 9)
		belief, err := m.Belief("blinky")
		require.NoError(t, err)
		require.Equal(t, beliefs[0].Weights(), belief.Weights())
	})

	t.Run("unknown adversary", func(t *testing.T) {
		m := newOpenManager(t, []string{"blinky"})

		require.ErrorIs(t, m.Capture("clyde"), ErrUnknownAdversary)
		_, err := m.Belief("clyde")
		require.ErrorIs(t, err, ErrUnknownAdversary)
	})

	t.Run("no reading removes the adversary under the remove policy", func(t *testing.T) {
		grid := game.OpenLayout(3, 3)
		m := NewManager(grid, exactFactory(grid, sensor.Exact(), inference.WithNoReadingPolicy(inference.RemoveOnNoReading)))
		require.NoError(t, m.Register([]string{"blinky"}))

		beliefs, err := m.Update(Turn{Tracker: center, Readings: []sensor.Reading{sensor.NoReading}})

		require.NoError(t, err)
		require.True(t, beliefs[0].Removed())
		require.Equal(t, []bool{false}, m.Living())
	})
}

func TestManagerValidation(t *testing.T) {
	cases := map[string]Turn{
		"tracker outside the grid": {Tracker: game.Position{X: 3, Y: 0}, Readings: []sensor.Reading{1}},
		"missing readings":         {Tracker: center, Readings: nil},
		"malformed reading":        {Tracker: center, Readings: []sensor.Reading{-2}},
		"misaligned living flags":  {Tracker: center, Readings: []sensor.Reading{1}, Living: []bool{true, true}},
	}
	for name, turn := range cases {
		t.Run(name, func(t *testing.T) {
			m := newOpenManager(t, []string{"blinky"})

			_, err := m.Update(turn)

			require.ErrorIs(t, err, ErrMalformedTurn)
			require.Zero(t, m.Turns(), "Invalid turns should not reach the filters")
		})
	}

	t.Run("tracker error wraps invalid position", func(t *testing.T) {
		m := newOpenManager(t, []string{"blinky"})

		_, err := m.Update(Turn{Tracker: game.Position{X: -1, Y: 0}, Readings: []sensor.Reading{1}})

		require.ErrorIs(t, err, inference.ErrInvalidPosition)
	})
}

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder("observe-elapse")
	require.NoError(t, err)
	require.Equal(t, ObserveThenElapse, o)

	_, err = ParseOrder("sideways")
	require.Error(t, err)
}
