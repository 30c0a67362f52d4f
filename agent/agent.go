package agent

import (
	"context"

	"generals/game"
	"generals/metrics"
	"generals/searcher"
)

// Decision is a chosen move together with how it was found.
type Decision struct {
	Move   game.Move
	Depth  int
	Metric metrics.SearchMetric
}

type Agent interface {
	// FindMove picks a move for the player to move at node.
	FindMove(ctx context.Context, node searcher.Node) (Decision, error)
	Name() string
}
