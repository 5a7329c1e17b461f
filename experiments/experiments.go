package experiments

import (
	"fmt"

	"busters/config"
	"busters/engine"
	"busters/experiments/metrics"
	"busters/inference"
	"busters/server"
	"busters/tracker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Publisher is told about each episode's manager and every completed turn.
type Publisher interface {
	SetSource(source server.Source)
	Publish()
}

type records struct {
	episodes []metrics.EpisodeRecord
	turns    []metrics.TurnRecord
	ticks    []metrics.TickTrace
	beliefs  []metrics.BeliefRecord
}

// RunHunt plays every episode of cfg and stores the records under cfg.Output/name.
// It returns the directory holding the records.
func RunHunt(name string, cfg config.Config, publisher Publisher) (string, error) {
	hunt, err := cfg.Build()
	if err != nil {
		return "", err
	}

	log.Info().Msgf("starting %s experiment on %s with %d ghosts...", name, hunt.LayoutName, len(hunt.Ghosts))

	var r records
	for i := 0; i < cfg.Episodes; i++ {
		log.Info().Msgf("starting episode %d of %d...", i+1, cfg.Episodes)
		if err := runEpisode(hunt, i, cfg.Goroutines, publisher, &r); err != nil {
			return "", fmt.Errorf("episode %d: %w", i+1, err)
		}
	}

	log.Info().Msgf("completed %s experiment", name)
	return store(cfg.Output, name, r)
}

func runEpisode(hunt *config.Hunt, episode, goroutines int, publisher Publisher, r *records) error {
	manager := hunt.NewManager(tracker.WithMetrics(metrics.NewCollector()))

	var options []engine.Option
	if publisher != nil {
		publisher.SetSource(manager)
		options = append(options, engine.WithTurnHook(func(int, []inference.Distribution) {
			publisher.Publish()
		}))
	}

	e, err := hunt.NewEngine(manager, episode, options...)
	if err != nil {
		return err
	}
	result, err := e.Run()
	if err != nil {
		return err
	}

	id := uuid.NewString()
	r.episodes = append(r.episodes, metrics.EpisodeRecord{
		ID:            id,
		Goroutines:    goroutines,
		EpisodeMetric: result.EpisodeMetric,
	})
	for _, tm := range result.TurnMetrics {
		r.turns = append(r.turns, metrics.TurnRecord{Episode: id, TurnMetric: tm})
	}
	for _, tick := range result.Ticks {
		r.ticks = append(r.ticks, metrics.TickTrace{Episode: id, TickRecord: tick})
	}
	for i, belief := range result.Beliefs {
		r.beliefs = append(r.beliefs, metrics.BeliefRecord{Episode: id, Adversary: result.IDs[i], Belief: belief})
	}

	log.Info().Msgf("completed episode %s: captured %d of %d ghosts in %d turns",
		id, result.Captured, result.Ghosts, result.Turns)
	return nil
}

func store(root, name string, r records) (string, error) {
	writer, err := metrics.NewWriter(root, name)
	if err != nil {
		return "", fmt.Errorf("failed to create experiment writer: %w", err)
	}

	if err := writer.WriteEpisodeRecords(r.episodes); err != nil {
		return "", fmt.Errorf("failed to write episode records: %w", err)
	}
	log.Info().Msg("stored episode records")

	if err := writer.WriteTurnRecords(r.turns); err != nil {
		return "", fmt.Errorf("failed to write turn records: %w", err)
	}
	log.Info().Msg("stored turn records")

	if err := writer.WriteTickTraces(r.ticks); err != nil {
		return "", fmt.Errorf("failed to write tick traces: %w", err)
	}
	log.Info().Msg("stored tick traces")

	if err := writer.WriteBeliefRecords(r.beliefs); err != nil {
		return "", fmt.Errorf("failed to write belief records: %w", err)
	}
	log.Info().Msg("stored belief records")

	return writer.Dir(), nil
}
