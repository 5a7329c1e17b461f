package engine

import (
	"busters/experiments/metrics"
	"busters/inference"
)

type Engine interface {
	// Run plays an episode until every ghost is captured or a max number of turns is reached
	Run() (Result, error)
}

// Result summarizes one simulated episode.
type Result struct {
	metrics.EpisodeMetric
	IDs         []string
	Beliefs     []inference.Distribution // Final beliefs, index-aligned with IDs
	TurnMetrics []metrics.TurnMetric
	Ticks       []metrics.TickRecord
}
