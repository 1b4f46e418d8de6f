package augment

import (
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
)

// SampleParams controls how many eligible positions get augmented.
type SampleParams struct {
	// P is the independent acceptance probability of each candidate.
	P float64
	// Min and Max bound the number of selected positions.
	Min, Max int
}

// Validate checks the bounds are usable.
func (sp SampleParams) Validate() error {
	if sp.P < 0 || sp.P > 1 || math.IsNaN(sp.P) {
		return errors.Wrapf(ErrValidation, "probability %g must be in [0, 1]", sp.P)
	}
	if sp.Min < 0 || sp.Max < 0 {
		return errors.Wrapf(ErrValidation, "min (%d) and max (%d) must be non-negative", sp.Min, sp.Max)
	}
	if sp.Min > sp.Max {
		return errors.Wrapf(ErrValidation, "min (%d) must be <= max (%d)", sp.Min, sp.Max)
	}
	return nil
}

// EligibleFunc tells whether the token at index i may be augmented.
type EligibleFunc func(i int, token string) bool

// Select picks the indices of tokens to augment:
//
//  1. Candidates are the indices accepted by eligible, shuffled.
//  2. Each candidate is accepted with probability sp.P, until sp.Max are accepted.
//  3. If fewer than sp.Min were accepted, the remaining ones are sampled uniformly, without
//     replacement, from the candidates not yet accepted.
//  4. The result is shuffled.
//
// If there are no candidates and sp.Min > 0, it returns an error wrapping ErrInsufficientTokens.
// If there are fewer candidates than sp.Min, all of them are returned.
func Select(tokens []string, sp SampleParams, eligible EligibleFunc, rng *rand.Rand) ([]int, error) {
	if err := sp.Validate(); err != nil {
		return nil, err
	}
	candidates := make([]int, 0, len(tokens))
	for ii, token := range tokens {
		if eligible == nil || eligible(ii, token) {
			candidates = append(candidates, ii)
		}
	}
	if len(candidates) == 0 {
		if sp.Min > 0 {
			return nil, errors.Wrapf(ErrInsufficientTokens, "no eligible token among %d, %d required", len(tokens), sp.Min)
		}
		return nil, nil
	}
	return selectFrom(candidates, sp, rng), nil
}

// selectFrom implements Select over a non-empty candidate list, which it shuffles in place.
func selectFrom(candidates []int, sp SampleParams, rng *rand.Rand) []int {
	shuffle(candidates, rng)
	selected := make([]int, 0, sp.Max)
	var rest []int
	for _, idx := range candidates {
		if len(selected) < sp.Max && rng.Float64() < sp.P {
			selected = append(selected, idx)
			continue
		}
		rest = append(rest, idx)
	}
	if missing := sp.Min - len(selected); missing > 0 {
		// rest is already in random order, so its prefix is a uniform sample.
		selected = append(selected, rest[:min(missing, len(rest))]...)
	}
	shuffle(selected, rng)
	return selected
}

// CharIndices picks the positions of characters to augment in a word of n characters:
// ceil(p*n) positions, clipped to [minChars, maxChars], among the positions accepted by eligible
// (all of them if nil). The positions are returned in random order.
func CharIndices(n int, p float64, minChars, maxChars int, eligible func(i int) bool, rng *rand.Rand) []int {
	candidates := make([]int, 0, n)
	for ii := range n {
		if eligible == nil || eligible(ii) {
			candidates = append(candidates, ii)
		}
	}
	count := int(math.Ceil(p * float64(n)))
	count = max(minChars, min(count, maxChars))
	count = min(count, len(candidates))
	if count <= 0 {
		return nil
	}
	shuffle(candidates, rng)
	return candidates[:count]
}

func shuffle(values []int, rng *rand.Rand) {
	rng.Shuffle(len(values), func(i, j int) { values[i], values[j] = values[j], values[i] })
}

// Choice returns a uniformly chosen element of values. values must not be empty.
func Choice[T any](values []T, rng *rand.Rand) T {
	return values[rng.IntN(len(values))]
}

// WeightedIndex returns an index sampled from the (not necessarily normalized) weights.
func WeightedIndex(weights []float64, rng *rand.Rand) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	x := rng.Float64() * total
	for ii, w := range weights {
		if x < w {
			return ii
		}
		x -= w
	}
	return len(weights) - 1
}
