package experiments

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"generals/config"
	"generals/game"
	"generals/metrics"
	"generals/searcher"
)

// RunThroughput trains from the same opening for a fixed time with each
// goroutine count and records how many iterations completed.
func RunThroughput(ctx context.Context, cfg config.Config, goroutines []int, budget time.Duration, logger zerolog.Logger) ([]metrics.SearchMetric, error) {
	rng := config.NewRand(cfg.Seed)
	blue, red, err := cfg.Formations(rng)
	if err != nil {
		return nil, err
	}
	board, err := game.NewBoard(blue, red)
	if err != nil {
		return nil, err
	}
	root, err := searcher.NewNode(board)
	if err != nil {
		return nil, err
	}

	logger.Info().Msg("starting throughput experiment...")

	records := make([]metrics.SearchMetric, 0, len(goroutines))
	for _, n := range goroutines {
		solver := searcher.NewSolver(
			searcher.WithGoroutines(n),
			searcher.WithDuration(budget),
			searcher.WithMaxDepth(max(cfg.Solver.MaxDepth, 1)),
			searcher.WithSampling(cfg.Solver.Sampling),
			searcher.WithRand(config.NewRand(cfg.Seed)),
			searcher.WithLogger(logger),
			searcher.WithMetrics(),
		)
		result, err := solver.Train(ctx, root, 0, nil)
		if err != nil {
			return records, errors.Wrapf(err, "%d goroutines", n)
		}
		records = append(records, result.Metric)
		logger.Info().Msgf("completed %d iterations with %d goroutines", result.Iterations, n)
	}

	logger.Info().Msg("completed throughput experiment")

	writer, err := metrics.NewWriter(cfg.Experiment.OutputDir, "throughput")
	if err != nil {
		return records, err
	}
	if err := writer.WriteThroughputRecords(records); err != nil {
		return records, err
	}
	logger.Info().Msg("stored throughput records")
	return records, nil
}
