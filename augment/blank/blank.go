// Package blank implements blank noising: selected words are replaced by a "_" token.
package blank

import (
	"context"

	"github.com/gomlx/go-vnaug/augment"
	"github.com/gomlx/go-vnaug/tokenizers/words"
)

// Name of the augmentation type.
const Name = "blank"

// Token replacing the blanked words.
const Token = "_"

// Strategy implements augment.Strategy. The action is ignored.
type Strategy struct{}

var _ augment.Strategy = Strategy{}

// New returns the blank noise augmenter.
func New() *augment.TokenAugmenter {
	return augment.NewTokenAugmenter(Name, Strategy{})
}

// Actions implements augment.Strategy: any action is accepted.
func (Strategy) Actions() []string { return nil }

// Eligible implements augment.Strategy.
func (Strategy) Eligible(string, words.Sentence, int) bool { return true }

// Transform implements augment.Strategy.
func (Strategy) Transform(_ context.Context, in augment.Input) ([]string, error) {
	s := in.Sentence
	for _, i := range in.Indices {
		s.Tokens[i] = Token
	}
	return []string{s.String()}, nil
}
