package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"generals/agent"
	"generals/game"
	"generals/infostate"
)

func newBoard(t *testing.T, rng *rand.Rand) game.Board {
	b, err := game.NewBoard(game.RandomFormation(rng), game.RandomFormation(rng))
	require.NoError(t, err)
	return b
}

func TestLocal(t *testing.T) {
	ctx := context.Background()

	t.Run("playing random agents to the end", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		agents := [2]agent.Agent{agent.NewRandomAgent(rng), agent.NewRandomAgent(rng)}
		e, err := NewLocal(newBoard(t, rng), agents, WithMaxMoves(5000))
		require.NoError(t, err)

		result, err := e.Run(ctx)

		require.NoError(t, err)
		require.Equal(t, len(result.Moves), result.GameMetric.TotalMoves)
		require.Len(t, result.MoveMetrics, len(result.Moves))
		if result.Board.IsTerminal() {
			require.NotEqual(t, game.None, result.Winner)
			reward, ok := result.Board.Reward()
			require.True(t, ok)
			require.Equal(t, result.Winner.Sign(), reward)
		}
		require.Equal(t, result.Board, e.Node().Board)
	})

	t.Run("keeping both views in step with the board", func(t *testing.T) {
		rng := rand.New(rand.NewSource(2))
		agents := [2]agent.Agent{agent.NewRandomAgent(rng), agent.NewRandomAgent(rng)}
		e, err := NewLocal(newBoard(t, rng), agents, WithMaxMoves(60))
		require.NoError(t, err)

		_, err = e.Run(ctx)
		require.NoError(t, err)

		n := e.Node()
		for _, s := range n.Infostates {
			require.Equal(t, n.Board.ToMove, s.ToMove)
			view := s.View()
			for row := range view {
				for col := range view[row] {
					truth := n.Board.Grid[row][col]
					seen := view[row][col]
					if truth.Owner() == s.Owner {
						require.Equal(t, truth, seen)
					} else {
						require.Equal(t, truth == game.Blank, seen == game.Blank)
					}
				}
			}
		}
	})

	t.Run("stopping at the move cap", func(t *testing.T) {
		rng := rand.New(rand.NewSource(3))
		agents := [2]agent.Agent{agent.NewRandomAgent(rng), agent.NewRandomAgent(rng)}
		e, err := NewLocal(newBoard(t, rng), agents, WithMaxMoves(4))
		require.NoError(t, err)

		result, err := e.Run(ctx)

		require.NoError(t, err)
		require.Len(t, result.Moves, 4)
		require.Equal(t, game.None, result.Winner)
		require.Equal(t, "None", result.GameMetric.Winner)
	})

	t.Run("refreshing beliefs after clashes", func(t *testing.T) {
		rng := rand.New(rand.NewSource(4))
		agents := [2]agent.Agent{agent.NewRandomAgent(rng), agent.NewRandomAgent(rng)}
		estimator := infostate.NewEstimator(rand.New(rand.NewSource(5)), infostate.WithSamples(200))
		e, err := NewLocal(newBoard(t, rng), agents, WithMaxMoves(400), WithBeliefRefresh(estimator))
		require.NoError(t, err)

		result, err := e.Run(ctx)

		require.NoError(t, err)
		if result.GameMetric.Captures == 0 || result.Board.IsTerminal() && result.GameMetric.Captures == 1 {
			t.Skip("no clash before the end of the game")
		}
		for _, p := range []game.Player{game.Blue, game.Red} {
			dist := e.Beliefs(p)
			require.Len(t, dist, game.ArmySize)
			for _, slot := range dist {
				sum := 0.0
				for _, q := range slot {
					sum += q
				}
				require.InDelta(t, 1.0, sum, 1e-9)
			}
		}
	})

	t.Run("pitting a solver against a random baseline", func(t *testing.T) {
		rng := rand.New(rand.NewSource(6))
		agents := [2]agent.Agent{agent.NewSamplingAgent(rng, 2), agent.NewRandomAgent(rng)}
		e, err := NewLocal(newBoard(t, rng), agents, WithMaxMoves(6))
		require.NoError(t, err)

		result, err := e.Run(ctx)

		require.NoError(t, err)
		require.Len(t, result.MoveMetrics, 6)
		require.Positive(t, result.MoveMetrics[0].Depth)
		require.Zero(t, result.MoveMetrics[1].Depth)
	})

	t.Run("rejecting missing agents", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		_, err := NewLocal(newBoard(t, rng), [2]agent.Agent{agent.NewRandomAgent(rng), nil})
		require.Error(t, err)
	})
}
