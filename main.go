package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"generals/config"
	"generals/experiments"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file (defaults when empty)")
	throughput := flag.String("throughput", "", "comma separated goroutine counts for a throughput run instead of games")
	budget := flag.Duration("budget", 100*time.Millisecond, "training time per goroutine count in a throughput run")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load config")
		}
	}
	zerolog.SetGlobalLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *throughput != "" {
		goroutines, err := parseCounts(*throughput)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid goroutine counts")
		}
		if _, err := experiments.RunThroughput(ctx, cfg, goroutines, *budget, log.Logger); err != nil {
			log.Fatal().Err(err).Msg("throughput experiment failed")
		}
		return
	}

	summary, err := experiments.Run(ctx, cfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("experiment failed")
	}
	log.Info().Int("games", summary.Games).Interface("wins", summary.Wins).Str("dir", summary.Dir).Msg("done")
}

func parseCounts(s string) ([]int, error) {
	var counts []int
	for _, field := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, err
		}
		counts = append(counts, n)
	}
	return counts, nil
}
