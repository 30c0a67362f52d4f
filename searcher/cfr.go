package searcher

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"generals/game"
	"generals/metrics"
)

// ErrNoLegalMoves is returned when a non-terminal board leaves the player to
// move without a legal move.
var ErrNoLegalMoves = errors.New("no legal moves")

const DefaultMaxDepth = 2

type Option func(s *Solver)

type Solver struct {
	maxDepth   int
	sampling   bool
	goroutines int
	duration   time.Duration
	rng        *rand.Rand
	evaluate   game.Evaluate
	value      ValueEstimator
	policy     PolicyEstimator
	logger     zerolog.Logger
	metrics    metrics.Collector
	regrets    *regretStore
}

func WithMaxDepth(depth int) Option {
	return func(s *Solver) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// WithSampling toggles external sampling: when on, only one action is
// explored at nodes where the traverser is not the player to move.
func WithSampling(sampling bool) Option {
	return func(s *Solver) {
		s.sampling = sampling
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(s *Solver) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithEvaluationFn replaces the heuristic scoring boards at the depth bound.
func WithEvaluationFn(evaluate game.Evaluate) Option {
	return func(s *Solver) {
		if evaluate != nil {
			s.evaluate = evaluate
		}
	}
}

func WithValueEstimator(value ValueEstimator) Option {
	return func(s *Solver) {
		s.value = value
	}
}

func WithPolicyEstimator(policy PolicyEstimator) Option {
	return func(s *Solver) {
		s.policy = policy
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Solver) {
		s.logger = logger
	}
}

func WithMetrics() Option {
	return func(s *Solver) {
		s.metrics = metrics.NewCollector()
	}
}

func WithGoroutines(goroutines int) Option {
	return func(s *Solver) {
		if goroutines > 0 {
			s.goroutines = goroutines
		}
	}
}

// WithDuration caps the wall time of Train.
func WithDuration(duration time.Duration) Option {
	return func(s *Solver) {
		if duration > 0 {
			s.duration = duration
		}
	}
}

func NewSolver(options ...Option) *Solver {
	s := &Solver{ // Default values
		maxDepth:   DefaultMaxDepth,
		sampling:   true,
		goroutines: 1,
		rng:        rand.New(rand.NewSource(1)),
		evaluate:   game.HeuristicValue,
		logger:     zerolog.Nop(),
		metrics:    metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(s)
	}
	s.regrets = newRegretStore(s.logger)
	return s
}

// Reach holds each player's probability of steering play into a node,
// indexed by Player.Index().
type Reach [2]float64

func (r Reach) with(p game.Player, prob float64) Reach {
	r[p.Index()] *= prob
	return r
}

type walker struct {
	*Solver
	rng       *rand.Rand
	traverser game.Player
	tables    *Tables
}

// CFR runs one depth-limited traversal from node and returns the utility of
// node for its player to move together with the strategy played there. Every
// information set visited has its regrets and strategy sum updated and, when
// tables is not nil, its refreshed strategy and utility recorded.
func (s *Solver) CFR(ctx context.Context, node Node, traverser game.Player, reach Reach, depth int, tables *Tables) (float64, []float64, error) {
	w := walker{Solver: s, rng: s.rng, traverser: traverser, tables: tables}
	return w.cfr(ctx, node, reach, depth)
}

func (w *walker) cfr(ctx context.Context, node Node, reach Reach, depth int) (float64, []float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	actor := node.Board.ToMove
	if reward, ok := node.Board.Reward(); ok {
		w.metrics.AddTerminal()
		return reward * actor.Sign(), nil, nil
	}
	if depth >= w.maxDepth {
		w.metrics.AddCutoff()
		return w.leaf(&node), nil, nil
	}

	moves := node.Board.LegalMoves()
	if len(moves) == 0 {
		return 0, nil, errors.Wrapf(ErrNoLegalMoves, "%v at ply %d", actor, node.Board.Ply)
	}
	w.metrics.AddNode()
	signature := node.Signature()
	strategy := w.strategy(signature, moves)
	own, opponent := reach[actor.Index()], reach[actor.Opponent().Index()]

	if w.sampling && actor != w.traverser {
		i := sample(w.rng, strategy)
		child, _, err := node.Play(moves[i])
		if err != nil {
			return 0, nil, errors.Wrapf(err, "playing %v", moves[i])
		}
		// the sample stands in for the opponent's reach
		u, _, err := w.cfr(ctx, child, reach, depth+1)
		if err != nil {
			return 0, nil, err
		}
		w.regrets.accumulate(signature, moves, strategy, own)
		w.link(signature, moves[i], &child)
		return -u, strategy, nil
	}

	utilities := make([]float64, len(moves))
	utility := 0.0
	for i, m := range moves {
		child, _, err := node.Play(m)
		if err != nil {
			return 0, nil, errors.Wrapf(err, "playing %v", m)
		}
		u, _, err := w.cfr(ctx, child, reach.with(actor, strategy[i]), depth+1)
		if err != nil {
			return 0, nil, err
		}
		utilities[i] = -u
		utility += strategy[i] * utilities[i]
		w.link(signature, m, &child)
	}

	regrets := make([]float64, len(moves))
	for i := range moves {
		regrets[i] = utilities[i] - utility
	}
	refreshed := w.regrets.update(signature, moves, regrets, opponent)
	w.regrets.accumulate(signature, moves, strategy, own)

	utility = 0
	for i := range moves {
		utility += refreshed[i] * utilities[i]
	}
	if w.tables != nil {
		w.tables.record(signature, moves, refreshed, node.Board.Ply, utility)
	}
	w.logger.Debug().Int("depth", depth).Str("player", actor.String()).Int("moves", len(moves)).Float64("utility", utility).Msg("backed up node")
	return utility, strategy, nil
}

// leaf scores a non-terminal node at the depth bound for its player to move.
// A value estimator takes precedence over the board evaluation.
func (w *walker) leaf(node *Node) float64 {
	if w.value != nil {
		return w.value.Evaluate(node.Signature())
	}
	return w.evaluate(node.Board) * node.Board.ToMove.Sign()
}

// strategy is the regret-matched strategy of a visited information set, the
// policy estimator's normalised proposal for a new one, or uniform.
func (w *walker) strategy(signature string, moves []game.Move) []float64 {
	if strategy, ok := w.regrets.current(signature, moves); ok {
		return strategy
	}
	if w.policy == nil {
		return uniform(len(moves))
	}
	weights := make([]float64, len(moves))
	for i, m := range moves {
		weights[i] = w.policy.Policy(signature, m)
	}
	return normalize(weights)
}

func (w *walker) link(parent string, m game.Move, child *Node) {
	if w.tables == nil || child.Board.IsTerminal() {
		return
	}
	w.tables.link(parent, m, child.Signature())
}

// AverageStrategy returns the reach-weighted average of every strategy played
// at signature. It is the quantity that converges towards equilibrium.
func (s *Solver) AverageStrategy(signature string) ([]game.Move, []float64, bool) {
	return s.regrets.average(signature)
}

// InfoSets reports how many information sets carry regrets.
func (s *Solver) InfoSets() int {
	return s.regrets.len()
}

func sample(rng *rand.Rand, strategy []float64) int {
	sampled := rng.Float64()
	cumulative := 0.0
	last := 0
	for i, p := range strategy {
		if p <= 0 {
			continue
		}
		cumulative += p
		last = i
		if sampled < cumulative {
			return i
		}
	}
	return last // Fallback in case of rounding errors
}
