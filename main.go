package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"busters/config"
	"busters/experiments"
	"busters/server"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "YAML hunt config, defaults are used when empty")
	experiment := flag.String("experiment", "hunt", "Experiment to run: hunt or throughput")
	debug := flag.Bool("debug", false, "Log belief updates")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatal().Err(err).Msgf("failed to load config %s", *configPath)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var publisher experiments.Publisher
	served := make(chan error, 1)
	if cfg.Server.Addr != "" {
		s := server.NewServer(cfg.Server.Addr)
		publisher = s
		go func() {
			served <- s.Serve(ctx)
		}()
	}

	var (
		dir string
		err error
	)
	switch *experiment {
	case "hunt":
		dir, err = experiments.RunHunt("hunt", cfg, publisher)
	case "throughput":
		dir, err = experiments.RunThroughput(cfg, nil)
	default:
		log.Fatal().Msgf("unknown experiment %q", *experiment)
	}
	if err != nil {
		log.Fatal().Err(err).Msgf("%s experiment failed", *experiment)
	}
	log.Info().Msgf("records stored in %s", dir)

	if publisher != nil {
		log.Info().Msg("serving final beliefs, interrupt to stop")
		if err := <-served; err != nil {
			log.Fatal().Err(err).Msg("belief server failed")
		}
	}
}
