package experiments

import (
	"fmt"

	"busters/config"

	"github.com/rs/zerolog/log"
)

// ThroughputGoroutines are the belief update parallelism levels compared by RunThroughput.
var ThroughputGoroutines = []int{1, 2, 4, 8, 16}

// RunThroughput replays the episodes of cfg at each parallelism level. The seeds are the
// same across levels, so only the turn durations should differ.
func RunThroughput(cfg config.Config, goroutines []int) (string, error) {
	if len(goroutines) == 0 {
		goroutines = ThroughputGoroutines
	}

	log.Info().Msg("starting throughput experiment...")

	var r records
	for _, g := range goroutines {
		cfg.Goroutines = g
		hunt, err := cfg.Build()
		if err != nil {
			return "", err
		}

		log.Info().Msgf("starting %d episodes with %d goroutines...", cfg.Episodes, g)
		for i := 0; i < cfg.Episodes; i++ {
			if err := runEpisode(hunt, i, g, nil, &r); err != nil {
				return "", fmt.Errorf("%d goroutines, episode %d: %w", g, i+1, err)
			}
		}
	}

	log.Info().Msg("completed throughput experiment")
	return store(cfg.Output, "throughput", r)
}
