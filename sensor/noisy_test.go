package sensor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sum(dist map[Reading]float64) float64 {
	total := 0.0
	for _, p := range dist {
		total += p
	}
	return total
}

func TestNoisyDistribution(t *testing.T) {
	t.Run("exact sensor reports the true distance", func(t *testing.T) {
		n := Exact()

		require.Equal(t, map[Reading]float64{3: 1}, n.Distribution(3))
		require.Equal(t, 1.0, n.Likelihood(3, 3))
		require.Equal(t, 0.0, n.Likelihood(2, 3))
	})

	t.Run("uniform kernel spreads mass evenly", func(t *testing.T) {
		n := NewNoisy(WithSpread(1))
		dist := n.Distribution(5)

		require.Len(t, dist, 3)
		for _, r := range []Reading{4, 5, 6} {
			require.InDelta(t, 1.0/3, dist[r], 1e-12)
		}
	})

	t.Run("readings are clamped at zero", func(t *testing.T) {
		n := NewNoisy(WithSpread(2))
		dist := n.Distribution(1)

		require.InDelta(t, 2.0/5, dist[0], 1e-12, "Errors -2 and -1 both report 0")
		require.InDelta(t, 1.0/5, dist[3], 1e-12)
		require.InDelta(t, dist[0], n.Likelihood(0, 1), 1e-12)
	})

	t.Run("triangular kernel favours the true distance", func(t *testing.T) {
		n := NewNoisy(WithSpread(2), WithKernel(Triangular))
		dist := n.Distribution(10)

		require.InDelta(t, 3.0/9, dist[10], 1e-12)
		require.InDelta(t, 2.0/9, dist[9], 1e-12)
		require.InDelta(t, 1.0/9, dist[12], 1e-12)
	})

	t.Run("rows sum to one", func(t *testing.T) {
		for _, kernel := range []Kernel{Uniform, Triangular} {
			n := NewNoisy(WithKernel(kernel))
			for d := 0; d < 30; d++ {
				require.InDelta(t, 1.0, sum(n.Distribution(d)), 1e-9, "kernel %s distance %d", kernel, d)
			}
		}
	})

	t.Run("out of range adversaries report no reading", func(t *testing.T) {
		n := NewNoisy(WithSpread(1), WithMaxRange(4))

		require.Equal(t, map[Reading]float64{NoReading: 1}, n.Distribution(5))
		require.Equal(t, 1.0, n.Likelihood(NoReading, 5))
		require.Equal(t, 0.0, n.Likelihood(5, 5))
		require.Equal(t, 0.0, n.Likelihood(NoReading, 4))
	})

	t.Run("panics on negative distance", func(t *testing.T) {
		require.Panics(t, func() { Exact().Distribution(-1) })
	})
}

func TestReading(t *testing.T) {
	require.True(t, NoReading.Valid())
	require.True(t, Reading(0).Valid())
	require.False(t, Reading(-2).Valid())
	require.Equal(t, "none", NoReading.String())
	require.Equal(t, "4", Reading(4).String())
}

func TestParseKernel(t *testing.T) {
	k, err := ParseKernel("triangular")
	require.NoError(t, err)
	require.Equal(t, Triangular, k)

	k, err = ParseKernel("")
	require.NoError(t, err)
	require.Equal(t, Uniform, k)

	_, err = ParseKernel("gaussian")
	require.Error(t, err)
}
