package agent

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"

	"generals/searcher"
)

type randomAgent struct {
	rng *rand.Rand
}

// NewRandomAgent returns a baseline that plays uniformly random legal moves.
func NewRandomAgent(rng *rand.Rand) Agent {
	return randomAgent{rng: rng}
}

func (a randomAgent) Name() string {
	return "random"
}

func (a randomAgent) FindMove(_ context.Context, node searcher.Node) (Decision, error) {
	moves := node.Board.LegalMoves()
	if len(moves) == 0 {
		return Decision{}, errors.Wrapf(searcher.ErrNoLegalMoves, "%v at ply %d", node.Board.ToMove, node.Board.Ply)
	}
	return Decision{Move: moves[a.rng.Intn(len(moves))]}, nil
}
