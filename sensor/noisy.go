package sensor

import "fmt"

type Kernel int

const (
	// Uniform gives every error in the window the same weight.
	Uniform Kernel = iota
	// Triangular weights errors by closeness to the true distance.
	Triangular
)

func (k Kernel) String() string {
	switch k {
	case Triangular:
		return "triangular"
	default:
		return "uniform"
	}
}

func ParseKernel(s string) (Kernel, error) {
	switch s {
	case "", "uniform":
		return Uniform, nil
	case "triangular":
		return Triangular, nil
	}
	return Uniform, fmt.Errorf("unknown sensor kernel %q", s)
}

type Option func(n *Noisy)

// WithSpread sets the largest error, in cells, a reading can carry.
func WithSpread(spread int) Option {
	return func(n *Noisy) {
		if spread >= 0 {
			n.spread = spread
		}
	}
}

func WithKernel(kernel Kernel) Option {
	return func(n *Noisy) {
		n.kernel = kernel
	}
}

// WithMaxRange makes adversaries farther than r report NoReading. Zero means unlimited range.
func WithMaxRange(r int) Option {
	return func(n *Noisy) {
		if r >= 0 {
			n.maxRange = r
		}
	}
}

// Noisy reports max(0, d+e) for a true distance d, where e is drawn from a fixed
// window [-spread, spread] with kernel weights.
type Noisy struct {
	spread   int
	kernel   Kernel
	maxRange int
	weights  []float64 // Indexed by e+spread
}

func NewNoisy(options ...Option) *Noisy {
	n := &Noisy{ // Default values
		spread: DefaultSpread,
		kernel: Uniform,
	}
	for _, option := range options {
		option(n)
	}
	n.weights = kernelWeights(n.kernel, n.spread)
	return n
}

// Exact reports the true distance without noise.
func Exact(options ...Option) *Noisy {
	return NewNoisy(append([]Option{WithSpread(0)}, options...)...)
}

// DefaultSpread mirrors the classic 15-value sonar noise window.
const DefaultSpread = 7

func kernelWeights(kernel Kernel, spread int) []float64 {
	weights := make([]float64, 2*spread+1)
	switch kernel {
	case Triangular:
		// (s+1-|e|) sums to (s+1)^2 over the window
		total := float64((spread + 1) * (spread + 1))
		for i := range weights {
			e := i - spread
			if e < 0 {
				e = -e
			}
			weights[i] = float64(spread+1-e) / total
		}
	default:
		for i := range weights {
			weights[i] = 1 / float64(len(weights))
		}
	}
	return weights
}

func (n *Noisy) Spread() int        { return n.spread }
func (n *Noisy) Kernel() Kernel     { return n.kernel }
func (n *Noisy) MaxRange() int      { return n.maxRange }
func (n *Noisy) inRange(d int) bool { return n.maxRange == 0 || d <= n.maxRange }

func (n *Noisy) Distribution(trueDistance int) map[Reading]float64 {
	if trueDistance < 0 {
		panic(fmt.Sprintf("negative true distance %d", trueDistance))
	}
	if !n.inRange(trueDistance) {
		return map[Reading]float64{NoReading: 1}
	}

	dist := make(map[Reading]float64, len(n.weights))
	for i, w := range n.weights {
		dist[report(trueDistance, i-n.spread)] += w
	}
	return dist
}

func (n *Noisy) Likelihood(reading Reading, trueDistance int) float64 {
	if trueDistance < 0 {
		panic(fmt.Sprintf("negative true distance %d", trueDistance))
	}
	if !n.inRange(trueDistance) {
		if reading == NoReading {
			return 1
		}
		return 0
	}
	if reading == NoReading {
		return 0
	}

	p := 0.0
	for i, w := range n.weights {
		if report(trueDistance, i-n.spread) == reading {
			p += w
		}
	}
	return p
}

func report(trueDistance, e int) Reading {
	return Reading(max(0, trueDistance+e))
}
