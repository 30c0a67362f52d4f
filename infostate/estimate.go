package infostate

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"generals/game"
)

// ErrInconsistentEvidence is returned when no sampled army ever matches the
// recorded evidence within the retry budget.
var ErrInconsistentEvidence = errors.New("no army matches the evidence")

const (
	DefaultSamples = 1000
	DefaultRetries = 10
)

// Distribution holds, per opponent slot, the estimated probability of each
// base rank. Index 0 (Blank) is always zero.
type Distribution [][game.Spy + 1]float64

type EstimatorOption func(*Estimator)

func WithSamples(samples int) EstimatorOption {
	return func(e *Estimator) {
		if samples > 0 {
			e.samples = samples
		}
	}
}

func WithRetries(retries int) EstimatorOption {
	return func(e *Estimator) {
		if retries > 0 {
			e.retries = retries
		}
	}
}

func WithLogger(logger zerolog.Logger) EstimatorOption {
	return func(e *Estimator) {
		e.logger = logger
	}
}

// Estimator approximates P(rank | evidence) for every opponent piece by
// rejection sampling armies.
//
// The estimate is the relative frequency of a rank among the sampled armies
// that satisfy every range. It is not normalised against an independent prior
// over ranks, so it is only as good as the sample is large.
type Estimator struct {
	rng     *rand.Rand
	samples int
	retries int
	logger  zerolog.Logger
}

func NewEstimator(rng *rand.Rand, options ...EstimatorOption) *Estimator {
	e := &Estimator{
		rng:     rng,
		samples: DefaultSamples,
		retries: DefaultRetries,
		logger:  zerolog.Nop(),
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Estimate returns the identity distribution of s's opponent pieces. A batch
// in which nothing matches is redrawn; ErrInconsistentEvidence is returned
// once the retries run out.
func (e *Estimator) Estimate(s *Infostate) (Distribution, error) {
	// captured pieces keep their ranges so identified losses are not
	// handed back to the live pieces
	evidence := s.Evidence()
	for attempt := 0; attempt < e.retries; attempt++ {
		counts, matches := e.batch(evidence)
		if matches == 0 {
			e.logger.Warn().Int("attempt", attempt).Int("samples", e.samples).Msg("no sampled army matched the evidence")
			continue
		}

		dist := make(Distribution, len(evidence))
		for i := range counts {
			for r := game.Flag; r <= game.Spy; r++ {
				dist[i][r] = float64(counts[i][r]) / float64(matches)
			}
		}
		e.logger.Debug().Int("matches", matches).Int("samples", e.samples).Msg("estimated identities")
		return dist, nil
	}
	return nil, errors.Wrapf(ErrInconsistentEvidence, "%d batches of %d samples", e.retries, e.samples)
}

func (e *Estimator) batch(evidence [][2]game.Rank) ([][game.Spy + 1]int, int) {
	counts := make([][game.Spy + 1]int, len(evidence))
	army := game.Army
	matches := 0
	for n := 0; n < e.samples; n++ {
		e.rng.Shuffle(len(army), func(i, j int) { army[i], army[j] = army[j], army[i] })
		if !consistent(army[:len(evidence)], evidence) {
			continue
		}
		matches++
		for i, r := range army[:len(evidence)] {
			counts[i][r]++
		}
	}
	return counts, matches
}

func consistent(ranks []game.Rank, evidence [][2]game.Rank) bool {
	for i, r := range ranks {
		if r < evidence[i][0] || r > evidence[i][1] {
			return false
		}
	}
	return true
}

// Estimate is a convenience wrapper around an Estimator with default settings.
func (s *Infostate) Estimate(rng *rand.Rand) (Distribution, error) {
	return NewEstimator(rng).Estimate(s)
}
