package agent

import (
	"golang.org/x/exp/slices"

	"generals/game"
)

// TopMoves is how many of the strongest moves survive sanitisation.
const TopMoves = 3

// DepthFor bounds the search depth by the branching factor so that the
// number of explored nodes stays roughly constant over a game.
func DepthFor(branching int) int {
	switch {
	case branching <= 10:
		return 3
	case branching <= 40:
		return 2
	}
	return 1
}

// Sanitize turns a solver distribution into a playable one: negative weights
// are clipped, only the TopMoves heaviest moves are kept (earlier moves win
// ties) and the result is renormalised. If nothing positive is left the kept
// moves are played uniformly.
func Sanitize(dist []float64, moves []game.Move) ([]game.Move, []float64) {
	order := make([]int, len(moves))
	for i := range order {
		order[i] = i
	}
	weight := func(i int) float64 {
		if i < len(dist) && dist[i] > 0 {
			return dist[i]
		}
		return 0
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch wa, wb := weight(a), weight(b); {
		case wa > wb:
			return -1
		case wa < wb:
			return 1
		}
		return 0
	})
	if len(order) > TopMoves {
		order = order[:TopMoves]
	}

	kept := make([]game.Move, len(order))
	probs := make([]float64, len(order))
	total := 0.0
	for i, j := range order {
		kept[i] = moves[j]
		probs[i] = weight(j)
		total += probs[i]
	}
	for i := range probs {
		if total > 0 {
			probs[i] /= total
		} else {
			probs[i] = 1 / float64(len(probs))
		}
	}
	return kept, probs
}
