package engine

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"generals/agent"
	"generals/game"
	"generals/infostate"
	"generals/metrics"
	"generals/searcher"
)

var _ Engine = (*Local)(nil)

type Option func(e *Local)

func WithMaxMoves(moves int) Option {
	return func(e *Local) {
		if moves > 0 {
			e.maxMoves = moves
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Local) {
		e.logger = logger
	}
}

// WithBeliefRefresh re-estimates both players' identity distributions after
// every clash.
func WithBeliefRefresh(estimator *infostate.Estimator) Option {
	return func(e *Local) {
		e.estimator = estimator
	}
}

// Local referees a game between two in-process agents. It owns the true board
// and keeps each player's infostate in step with the moves and outcomes.
type Local struct {
	node      searcher.Node
	agents    [2]agent.Agent // indexed by Player.Index()
	maxMoves  int
	logger    zerolog.Logger
	estimator *infostate.Estimator
	beliefs   [2]infostate.Distribution
}

func NewLocal(board game.Board, agents [2]agent.Agent, options ...Option) (*Local, error) {
	for i, a := range agents {
		if a == nil {
			return nil, errors.Errorf("missing agent %d", i)
		}
	}
	node, err := searcher.NewNode(board)
	if err != nil {
		return nil, errors.Wrap(err, "failed to set up infostates")
	}
	e := &Local{
		node:     node,
		agents:   agents,
		maxMoves: MaxMoves,
		logger:   zerolog.Nop(),
	}
	for _, option := range options {
		option(e)
	}
	return e, nil
}

// Node returns the current board and infostates.
func (e *Local) Node() searcher.Node {
	return e.node
}

// Beliefs returns p's latest identity estimate of the opposing pieces, nil
// before the first refresh.
func (e *Local) Beliefs(p game.Player) infostate.Distribution {
	return e.beliefs[p.Index()]
}

func (e *Local) Run(ctx context.Context) (Result, error) {
	result := Result{}
	start := time.Now()
	e.logger.Info().Str("player", e.node.Board.ToMove.String()).Msg("game started")

	for step := 1; !e.node.Board.IsTerminal() && step <= e.maxMoves; step++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		player := e.node.Board.ToMove
		a := e.agents[player.Index()]

		decision, err := a.FindMove(ctx, e.node)
		if err != nil {
			return result, errors.Wrapf(err, "%s (%v) at step %d", a.Name(), player, step)
		}
		next, outcome, err := e.node.Play(decision.Move)
		if err != nil {
			return result, errors.Wrapf(err, "%s (%v) played %v", a.Name(), player, decision.Move)
		}
		e.node = next

		result.Moves = append(result.Moves, decision.Move)
		result.MoveMetrics = append(result.MoveMetrics, metrics.MoveMetric{
			Step:         step,
			Player:       player.String(),
			Move:         decision.Move.String(),
			Depth:        decision.Depth,
			SearchMetric: decision.Metric,
		})
		e.logger.Debug().Int("step", step).Str("player", player.String()).Stringer("move", decision.Move).Stringer("outcome", outcome).Msg("move played")

		if outcome == game.Occupy {
			continue
		}
		result.GameMetric.Captures++
		if e.estimator != nil && !e.node.Board.IsTerminal() {
			if err := e.refresh(); err != nil {
				return result, errors.Wrapf(err, "refreshing beliefs at step %d", step)
			}
		}
	}

	end := time.Now()
	result.Winner = e.node.Board.Winner()
	result.Board = e.node.Board
	result.GameMetric.Winner = result.Winner.String()
	result.GameMetric.StartTime = start
	result.GameMetric.EndTime = end
	result.GameMetric.Duration = end.Sub(start)
	result.GameMetric.TotalMoves = len(result.Moves)

	if result.Winner == game.None {
		e.logger.Info().Int("moves", len(result.Moves)).Msg("stopped without a winner")
	} else {
		e.logger.Info().Str("winner", result.GameMetric.Winner).Int("moves", len(result.Moves)).Msg("game over")
	}
	return result, nil
}

func (e *Local) refresh() error {
	for i := range e.node.Infostates {
		dist, err := e.estimator.Estimate(&e.node.Infostates[i])
		if errors.Is(err, infostate.ErrInconsistentEvidence) {
			// keep the previous estimate, sampling is too sparse for this evidence
			e.logger.Warn().Err(err).Str("player", e.node.Infostates[i].Owner.String()).Msg("beliefs not refreshed")
			continue
		}
		if err != nil {
			return err
		}
		e.beliefs[i] = dist
	}
	return nil
}
