// meta/meta.go
package meta

// MaxTurns bounds the length of a simulated episode.
const MaxTurns = 300

// Episodes is the number of episodes run by default.
const Episodes = 1

// Goroutines is the default number of goroutines updating beliefs.
const Goroutines = 1

// CaptureReward is added to the score for every ghost caught.
const CaptureReward = 200

// TimePenalty is taken from the score on every turn.
const TimePenalty = 1

// Seed drives the simulated ghosts and sensor noise.
const Seed = 1

// OutputDir is where experiment records are stored.
const OutputDir = "experiments"
