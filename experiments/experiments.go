package experiments

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"generals/agent"
	"generals/config"
	"generals/engine"
	"generals/game"
	"generals/infostate"
	"generals/metrics"
	"generals/searcher"
)

type Summary struct {
	Games   int
	Wins    map[string]int // by Player.String(), "None" for capped games
	Dir     string
	Records []metrics.GameRecord
}

// Run plays the configured matchup and stores game and move records under
// the configured output directory.
func Run(ctx context.Context, cfg config.Config, logger zerolog.Logger) (Summary, error) {
	if err := cfg.Validate(); err != nil {
		return Summary{}, err
	}
	rng := config.NewRand(cfg.Seed)
	tables := searcher.NewTables()

	summary := Summary{Wins: make(map[string]int)}
	moveRecords := []metrics.MoveRecord{}

	logger.Info().Msgf("starting %s experiment with %s (blue) against %s (red)...", cfg.Experiment.Name, cfg.Experiment.Blue, cfg.Experiment.Red)

	for i := 0; i < cfg.Experiment.Games; i++ {
		logger.Info().Msgf("starting game %d of %d...", i+1, cfg.Experiment.Games)

		result, err := runGame(ctx, cfg, rng, tables, logger)
		if err != nil {
			return summary, errors.Wrapf(err, "game %d", i+1)
		}
		id := i + 1
		summary.Games++
		summary.Wins[result.GameMetric.Winner]++
		summary.Records = append(summary.Records, metrics.GameRecord{
			ID:         id,
			BlueAgent:  cfg.Experiment.Blue,
			RedAgent:   cfg.Experiment.Red,
			GameMetric: result.GameMetric,
		})
		for _, mm := range result.MoveMetrics {
			moveRecords = append(moveRecords, metrics.MoveRecord{
				Game:       id,
				MoveMetric: mm,
			})
		}

		logger.Info().Msgf("completed game %d with winner: %s", i+1, result.GameMetric.Winner)
	}

	logger.Info().Msgf("completed %s experiment", cfg.Experiment.Name)

	writer, err := metrics.NewWriter(cfg.Experiment.OutputDir, cfg.Experiment.Name)
	if err != nil {
		return summary, err
	}
	summary.Dir = writer.Dir()
	if err := writer.WriteGameRecords(summary.Records); err != nil {
		return summary, err
	}
	logger.Info().Msg("stored game records")
	if err := writer.WriteMoveRecords(moveRecords); err != nil {
		return summary, err
	}
	logger.Info().Msg("stored move records")

	if cfg.Experiment.Tables != "" {
		if err := saveTables(cfg.Experiment.Tables, tables); err != nil {
			return summary, err
		}
		logger.Info().Int("infosets", tables.Len()).Msg("stored solver tables")
	}
	if cfg.Experiment.Graph != "" {
		if err := os.WriteFile(cfg.Experiment.Graph, []byte(tables.ToDot()), 0644); err != nil {
			return summary, errors.Wrap(err, "failed to write graph")
		}
		logger.Info().Str("path", cfg.Experiment.Graph).Msg("stored information set graph")
	}
	logger.Debug().Msgf("opening strategies:\n%s", tables.Summary(0))
	return summary, nil
}

// runGame executes a single game between the configured agents.
func runGame(ctx context.Context, cfg config.Config, rng *rand.Rand, tables *searcher.Tables, logger zerolog.Logger) (engine.Result, error) {
	blue, red, err := cfg.Formations(rng)
	if err != nil {
		return engine.Result{}, err
	}
	board, err := game.NewBoard(blue, red)
	if err != nil {
		return engine.Result{}, err
	}
	logger.Debug().Stringer("blue", blue).Stringer("red", red).Msg("formations")
	agents := [2]agent.Agent{
		createAgent(cfg.Experiment.Blue, cfg, rng, tables, logger),
		createAgent(cfg.Experiment.Red, cfg, rng, tables, logger),
	}

	options := []engine.Option{
		engine.WithMaxMoves(cfg.Game.MaxMoves),
		engine.WithLogger(logger),
	}
	if cfg.Estimator.Refresh {
		estimator := infostate.NewEstimator(
			rand.New(rand.NewSource(rng.Uint64())),
			infostate.WithSamples(cfg.Estimator.Samples),
			infostate.WithRetries(cfg.Estimator.Retries),
			infostate.WithLogger(logger),
		)
		options = append(options, engine.WithBeliefRefresh(estimator))
	}
	e, err := engine.NewLocal(board, agents, options...)
	if err != nil {
		return engine.Result{}, err
	}
	return e.Run(ctx)
}

func createAgent(kind string, cfg config.Config, rng *rand.Rand, tables *searcher.Tables, logger zerolog.Logger) agent.Agent {
	seeded := rand.New(rand.NewSource(rng.Uint64()))
	options := []agent.Option{
		agent.WithLogger(logger),
		agent.WithTables(tables),
		agent.WithDepthCap(cfg.Solver.MaxDepth),
		agent.WithSolverOptions(
			searcher.WithSampling(cfg.Solver.Sampling),
			searcher.WithGoroutines(cfg.Solver.Goroutines),
			searcher.WithDuration(cfg.Solver.Duration),
			searcher.WithMetrics(),
		),
	}
	switch kind {
	case config.AgentSampling:
		return agent.NewSamplingAgent(seeded, cfg.Solver.Iterations, options...)
	case config.AgentGreedy:
		return agent.NewGreedyAgent(seeded, cfg.Solver.Iterations, options...)
	}
	return agent.NewRandomAgent(seeded)
}

func saveTables(path string, tables *searcher.Tables) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create tables file")
	}
	defer f.Close()
	return tables.Save(f)
}
