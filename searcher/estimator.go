package searcher

import "generals/game"

// ValueEstimator scores an information set from the perspective of the
// player it belongs to. It replaces the heuristic at the depth bound.
type ValueEstimator interface {
	Evaluate(signature string) float64
}

// PolicyEstimator proposes a non-negative weight for a move in an
// information set that has no strategy yet.
type PolicyEstimator interface {
	Policy(signature string, move game.Move) float64
}

type ValueFunc func(signature string) float64

func (f ValueFunc) Evaluate(signature string) float64 { return f(signature) }

type PolicyFunc func(signature string, move game.Move) float64

func (f PolicyFunc) Policy(signature string, move game.Move) float64 { return f(signature, move) }
