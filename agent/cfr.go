package agent

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"generals/game"
	"generals/searcher"
)

type Option func(a *cfrAgent)

func WithLogger(logger zerolog.Logger) Option {
	return func(a *cfrAgent) {
		a.logger = logger
	}
}

// WithTables keeps what every search learns in tables.
func WithTables(tables *searcher.Tables) Option {
	return func(a *cfrAgent) {
		a.tables = tables
	}
}

// WithDepthCap limits the depth chosen by DepthFor.
func WithDepthCap(depth int) Option {
	return func(a *cfrAgent) {
		if depth > 0 {
			a.depthCap = depth
		}
	}
}

// WithSolverOptions configures the solver built for every move. The depth is
// always chosen by the agent.
func WithSolverOptions(options ...searcher.Option) Option {
	return func(a *cfrAgent) {
		a.solver = append(a.solver, options...)
	}
}

type cfrAgent struct {
	name       string
	iterations int
	rng        *rand.Rand
	solver     []searcher.Option
	tables     *searcher.Tables
	depthCap   int
	logger     zerolog.Logger
	choose     func(a *cfrAgent, moves []game.Move, strategy []float64) game.Move
}

// NewSamplingAgent returns an agent that trains a fresh solver for every move
// and samples from the sanitised average root strategy.
func NewSamplingAgent(rng *rand.Rand, iterations int, options ...Option) Agent {
	return newCFRAgent("cfr-sampling", rng, iterations, (*cfrAgent).sample, options)
}

// NewGreedyAgent is like NewSamplingAgent but always plays the heaviest move.
func NewGreedyAgent(rng *rand.Rand, iterations int, options ...Option) Agent {
	return newCFRAgent("cfr-greedy", rng, iterations, (*cfrAgent).greedy, options)
}

func newCFRAgent(name string, rng *rand.Rand, iterations int, choose func(*cfrAgent, []game.Move, []float64) game.Move, options []Option) *cfrAgent {
	a := &cfrAgent{
		name:       name,
		iterations: iterations,
		rng:        rng,
		logger:     zerolog.Nop(),
		choose:     choose,
	}
	for _, option := range options {
		option(a)
	}
	return a
}

func (a *cfrAgent) Name() string {
	return a.name
}

func (a *cfrAgent) FindMove(ctx context.Context, node searcher.Node) (Decision, error) {
	moves := node.Board.LegalMoves()
	if len(moves) == 0 {
		return Decision{}, errors.Wrapf(searcher.ErrNoLegalMoves, "%v at ply %d", node.Board.ToMove, node.Board.Ply)
	}
	depth := DepthFor(len(moves))
	if a.depthCap > 0 {
		depth = min(depth, a.depthCap)
	}
	options := append([]searcher.Option{
		searcher.WithRand(rand.New(rand.NewSource(a.rng.Uint64()))),
		searcher.WithLogger(a.logger),
	}, a.solver...)
	options = append(options, searcher.WithMaxDepth(depth))
	solver := searcher.NewSolver(options...)

	result, err := solver.Train(ctx, node, a.iterations, a.tables)
	if err != nil {
		return Decision{}, errors.Wrapf(err, "searching ply %d", node.Board.Ply)
	}
	move := a.choose(a, result.Moves, result.Strategy)
	a.logger.Info().
		Str("agent", a.name).
		Str("player", node.Board.ToMove.String()).
		Int("ply", node.Board.Ply).
		Int("depth", depth).
		Int("iterations", result.Iterations).
		Float64("utility", result.Utility).
		Stringer("move", move).
		Msg("chose move")
	return Decision{Move: move, Depth: depth, Metric: result.Metric}, nil
}

func (a *cfrAgent) sample(moves []game.Move, strategy []float64) game.Move {
	kept, probs := Sanitize(strategy, moves)
	sampled := a.rng.Float64()
	cumulative := 0.0
	for i, p := range probs {
		cumulative += p
		if sampled < cumulative {
			return kept[i]
		}
	}
	return kept[len(kept)-1] // Fallback in case of rounding errors
}

func (a *cfrAgent) greedy(moves []game.Move, strategy []float64) game.Move {
	var maxMove game.Move
	maxProb := -1.0
	for i, p := range strategy {
		if p > maxProb {
			maxProb = p
			maxMove = moves[i]
		}
	}
	return maxMove
}
