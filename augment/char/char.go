// Package char implements character level noise: duplicated, deleted, swapped or inserted characters,
// random vowel/consonant substitutions, commonly misspelled vowel clusters, and missing spaces.
package char

import (
	"context"
	"math/rand/v2"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/gomlx/go-vnaug/augment"
	"github.com/gomlx/go-vnaug/tokenizers/words"
)

// Name of the augmentation type.
const Name = "char"

// Actions of the char augmenter.
const (
	ActionDuplicate     = "duplicate"
	ActionRandom        = "random"
	ActionMisspellVowel = "misspell_vowel"
	ActionSubstitute    = "substitute"
	ActionWhitespace    = "whitespace"
	ActionDelete        = "delete"
	ActionSwap          = "swap"
	ActionInsert        = "insert"
)

// Strategy implements augment.Strategy for character noise.
type Strategy struct{}

var _ augment.Strategy = Strategy{}

// New returns the char augmenter.
func New() *augment.TokenAugmenter {
	return augment.NewTokenAugmenter(Name, Strategy{})
}

// Actions implements augment.Strategy.
func (Strategy) Actions() []string {
	return []string{ActionDuplicate, ActionRandom, ActionMisspellVowel, ActionSubstitute, ActionWhitespace,
		ActionDelete, ActionSwap, ActionInsert}
}

// Eligible implements augment.Strategy.
func (Strategy) Eligible(action string, s words.Sentence, i int) bool {
	token := s.Tokens[i]
	switch action {
	case ActionMisspellVowel:
		_, ok := findMisspelling(token)
		return ok
	case ActionWhitespace:
		return canMerge(s, i)
	case ActionDuplicate, ActionSubstitute:
		return words.HasLetter(token)
	default:
		return utf8.RuneCountInString(token) >= RandomMinChars
	}
}

// Transform implements augment.Strategy.
func (Strategy) Transform(_ context.Context, in augment.Input) ([]string, error) {
	s := in.Sentence
	p := in.Params.AugCharP
	if in.Action == ActionWhitespace {
		mergeWhitespace(&s, in.Indices, p, in.Rng)
		return []string{s.String()}, nil
	}
	for _, i := range in.Indices {
		token := s.Tokens[i]
		switch in.Action {
		case ActionDuplicate:
			token = Duplicate(token, p, DuplicateMinChars, DuplicateMaxChars, in.Rng)
		case ActionRandom:
			token = Random(token, p, in.Rng)
		case ActionMisspellVowel:
			token = MisspellVowel(token)
		case ActionSubstitute:
			token = Substitute(token, p, in.Rng)
		case ActionDelete:
			token = Delete(token, p, in.Rng)
		case ActionSwap:
			token = Swap(token, p, in.Rng)
		case ActionInsert:
			token = Insert(token, p, in.Rng)
		}
		s.Tokens[i] = token
	}
	return []string{s.String()}, nil
}

// misspellings are commonly confused vowel clusters, checked in order.
var misspellings = []struct{ from, to string }{
	{"iếu", "ếu"},
	{"iều", "ều"},
	{"oanh", "anh"},
	{"ếu", "iếu"},
	{"ều", "iều"},
	{"anh", "oanh"},
}

func findMisspelling(token string) (int, bool) {
	for ii, m := range misspellings {
		if strings.Contains(token, m.from) {
			return ii, true
		}
	}
	return -1, false
}

// MisspellVowel replaces every occurrence of the first known vowel cluster found in token with its
// commonly confused spelling, e.g. "hiếu" -> "hếu", "thanh" -> "thoanh".
func MisspellVowel(token string) string {
	ii, ok := findMisspelling(token)
	if !ok {
		return token
	}
	return strings.ReplaceAll(token, misspellings[ii].from, misspellings[ii].to)
}

// canMerge reports whether token i can be glued to token i+1: both are words (not placeholders nor
// punctuation) separated only by whitespace.
func canMerge(s words.Sentence, i int) bool {
	if i+1 >= len(s.Tokens) || i+1 >= len(s.Gaps) {
		return false
	}
	gap := s.Gaps[i+1]
	if gap == "" || strings.TrimSpace(gap) != "" {
		return false
	}
	next := s.Tokens[i+1]
	return !augment.ContainsPlaceholder(next) && !words.IsPunctuation(next)
}

// mergeWhitespace removes, with probability p, the whitespace after each selected token. Indices are
// processed right to left, so consecutive merges chain.
func mergeWhitespace(s *words.Sentence, indices []int, p float64, rng *rand.Rand) {
	sorted := slices.Clone(indices)
	slices.Sort(sorted)
	slices.Reverse(sorted)
	for _, i := range sorted {
		if !canMerge(*s, i) || rng.Float64() >= p {
			continue
		}
		merged := s.Tokens[i] + s.Tokens[i+1]
		s.Delete(i + 1)
		s.Tokens[i] = merged
	}
}
