package searcher

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"

	"generals/game"
	"generals/metrics"
)

type TrainResult struct {
	Moves      []game.Move
	Strategy   []float64 // mean of the root strategies played each iteration
	Utility    float64   // mean root utility for the player to move at the root
	Iterations int
	Metric     metrics.SearchMetric
}

type accumulator struct {
	sync.Mutex
	strategy   []float64
	utility    float64
	iterations int
}

func (a *accumulator) add(strategy []float64, utility float64) {
	a.Lock()
	defer a.Unlock()

	for i, p := range strategy {
		a.strategy[i] += p
	}
	a.utility += utility
	a.iterations++
}

// Train runs CFR from root for the given number of iterations, alternating the
// traverser between the players. A non-positive count trains until the
// solver's duration or ctx runs out. Iterations are spread over the solver's
// goroutines, which share the regret store and tables.
//
// Running out of time is not an error as long as one iteration completed.
func (s *Solver) Train(ctx context.Context, root Node, iterations int, tables *Tables) (TrainResult, error) {
	if iterations <= 0 && s.duration <= 0 {
		if _, ok := ctx.Deadline(); !ok {
			return TrainResult{}, errors.New("must specify iterations, duration or a deadline")
		}
	}
	moves := root.Board.LegalMoves()
	if root.Board.IsTerminal() || len(moves) == 0 {
		return TrainResult{}, errors.Wrapf(ErrNoLegalMoves, "training from ply %d", root.Board.Ply)
	}
	if s.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.duration)
		defer cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.metrics.Start(s.goroutines, s.maxDepth, s.sampling)
	acc := &accumulator{strategy: make([]float64, len(moves))}

	var tasks chan int
	if iterations > 0 {
		tasks = make(chan int, iterations)
		for i := 0; i < iterations; i++ {
			tasks <- i
		}
		close(tasks)
	}

	// Workers get their own sources since rand.Rand is not safe for concurrent use
	workers := make([]walker, s.goroutines)
	for i := range workers {
		workers[i] = walker{Solver: s, rng: rand.New(rand.NewSource(s.rng.Uint64())), tables: tables}
	}

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for i := range workers {
		wg.Add(1)
		go func(w *walker, id int) {
			defer wg.Done()

			for n := id; ; n += len(workers) {
				if tasks != nil {
					var ok bool
					if n, ok = <-tasks; !ok {
						return
					}
				}
				w.traverser = game.Blue
				if n%2 == 1 {
					w.traverser = game.Red
				}
				utility, strategy, err := w.cfr(ctx, root, Reach{1, 1}, 0)
				if err != nil {
					if ctx.Err() == nil {
						once.Do(func() { firstErr = err })
						cancel()
					}
					return
				}
				acc.add(strategy, utility)
				s.metrics.AddIteration()
			}
		}(&workers[i], i)
	}
	wg.Wait()

	if firstErr != nil {
		return TrainResult{}, errors.Wrap(firstErr, "training")
	}
	if acc.iterations == 0 {
		return TrainResult{}, errors.Wrap(ctx.Err(), "no iteration completed")
	}

	result := TrainResult{
		Moves:      moves,
		Strategy:   make([]float64, len(moves)),
		Utility:    acc.utility / float64(acc.iterations),
		Iterations: acc.iterations,
		Metric:     s.metrics.Complete(),
	}
	for i, p := range acc.strategy {
		result.Strategy[i] = p / float64(acc.iterations)
	}
	s.logger.Debug().
		Int("iterations", result.Iterations).
		Float64("utility", result.Utility).
		Int("infosets", s.InfoSets()).
		Msg("training complete")
	return result, nil
}
