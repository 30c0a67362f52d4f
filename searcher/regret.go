package searcher

import (
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"generals/game"
)

const shards = 64

type regretEntry struct {
	moves    []game.Move
	regrets  []float64 // cumulative counterfactual regret
	strategy []float64 // reach-weighted strategy sum
}

type shard struct {
	sync.Mutex
	entries map[string]*regretEntry
}

// regretStore holds cumulative regrets and strategy sums per information
// set. Entries are spread over independently locked shards so parallel
// traversals only contend when they touch the same signatures.
type regretStore struct {
	shards [shards]shard
	logger zerolog.Logger
}

func newRegretStore(logger zerolog.Logger) *regretStore {
	r := &regretStore{logger: logger}
	for i := range r.shards {
		r.shards[i].entries = make(map[string]*regretEntry)
	}
	return r
}

func (r *regretStore) shard(signature string) *shard {
	h := fnv.New32a()
	h.Write([]byte(signature))
	return &r.shards[h.Sum32()%shards]
}

// entry returns the record for signature, resetting it if the move list it
// was built for differs from moves. Caller holds the shard lock.
func (r *regretStore) entry(s *shard, signature string, moves []game.Move, create bool) *regretEntry {
	e, ok := s.entries[signature]
	if ok && !slices.Equal(e.moves, moves) {
		r.logger.Warn().Str("signature", signature).Int("stored", len(e.moves)).Int("legal", len(moves)).Msg("regret table shape mismatch, resetting entry")
		ok = false
	}
	if !ok {
		if !create {
			return nil
		}
		e = &regretEntry{
			moves:    slices.Clone(moves),
			regrets:  make([]float64, len(moves)),
			strategy: make([]float64, len(moves)),
		}
		s.entries[signature] = e
	}
	return e
}

// current returns the regret-matched strategy for signature, or false if the
// information set has not been visited.
func (r *regretStore) current(signature string, moves []game.Move) ([]float64, bool) {
	s := r.shard(signature)
	s.Lock()
	defer s.Unlock()

	e := r.entry(s, signature, moves, false)
	if e == nil {
		return nil, false
	}
	return regretMatch(e.regrets), true
}

// update adds weighted regrets and returns the refreshed strategy.
func (r *regretStore) update(signature string, moves []game.Move, regrets []float64, weight float64) []float64 {
	s := r.shard(signature)
	s.Lock()
	defer s.Unlock()

	e := r.entry(s, signature, moves, true)
	for i, regret := range regrets {
		e.regrets[i] += weight * regret
	}
	return regretMatch(e.regrets)
}

// accumulate adds a played strategy to the running sum used for averaging.
func (r *regretStore) accumulate(signature string, moves []game.Move, strategy []float64, weight float64) {
	s := r.shard(signature)
	s.Lock()
	defer s.Unlock()

	e := r.entry(s, signature, moves, true)
	for i, p := range strategy {
		e.strategy[i] += weight * p
	}
}

func (r *regretStore) average(signature string) ([]game.Move, []float64, bool) {
	s := r.shard(signature)
	s.Lock()
	defer s.Unlock()

	e, ok := s.entries[signature]
	if !ok {
		return nil, nil, false
	}
	return slices.Clone(e.moves), normalize(e.strategy), true
}

func (r *regretStore) len() int {
	n := 0
	for i := range r.shards {
		r.shards[i].Lock()
		n += len(r.shards[i].entries)
		r.shards[i].Unlock()
	}
	return n
}

// regretMatch plays each action in proportion to its positive regret, or
// uniformly when no regret is positive.
func regretMatch(regrets []float64) []float64 {
	return normalize(regrets)
}

// normalize rescales non-negative weights to sum to one, falling back to the
// uniform distribution when nothing is positive.
func normalize(weights []float64) []float64 {
	out := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		if w > 0 {
			out[i] = w
			total += w
		}
	}
	if total <= 0 {
		return uniform(len(weights))
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

func uniform(n int) []float64 {
	strategy := make([]float64, n)
	for i := range strategy {
		strategy[i] = 1 / float64(n)
	}
	return strategy
}
