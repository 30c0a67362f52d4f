package engine

import (
	"context"

	"generals/game"
	"generals/metrics"
)

const MaxMoves = 1000

type Result struct {
	Winner      game.Player // None if the move cap was reached
	Board       game.Board
	Moves       []game.Move
	GameMetric  metrics.GameMetric
	MoveMetrics []metrics.MoveMetric
}

type Engine interface {
	// Run plays a game till there's a winner or a max number of moves is reached
	Run(ctx context.Context) (Result, error)
}
