package sensor

import "strconv"

// Reading is a noisy Manhattan distance reported for one adversary in one turn.
type Reading int

// NoReading is reported when the adversary is out of sensor range or captured.
const NoReading Reading = -1

// Valid reports whether r is a distance or the NoReading sentinel.
func (r Reading) Valid() bool {
	return r >= NoReading
}

func (r Reading) String() string {
	if r == NoReading {
		return "none"
	}
	return strconv.Itoa(int(r))
}

// Model is the emission model shared (read-only) by every filter.
type Model interface {
	// Distribution returns P(reading | trueDistance) for every reading with nonzero probability.
	Distribution(trueDistance int) map[Reading]float64
	// Likelihood returns P(reading | trueDistance).
	Likelihood(reading Reading, trueDistance int) float64
}
