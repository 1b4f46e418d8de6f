// Package word implements word level noise: duplicated words, inserted irrelevant words, words split
// in two, words replaced by a confusable spelling, and EDA style random deletion and swap.
package word

import (
	"context"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gomlx/go-vnaug/augment"
	"github.com/gomlx/go-vnaug/tokenizers/words"
)

// Name of the augmentation type.
const Name = "word"

// Actions of the word augmenter.
const (
	ActionDuplicate    = "duplicate"
	ActionInsert       = "insert"
	ActionEditDistance = "edit_distance"
	ActionSplit        = "split"
	ActionSwap         = "swap"
	ActionDelete       = "delete"
)

// SplitMinChars is the minimum length of a word to be split.
const SplitMinChars = 4

// Strategy implements augment.Strategy for word noise.
type Strategy struct {
	// Vocabulary of irrelevant words to insert, for ActionInsert.
	Vocabulary []string
	// Confusions maps a word to its confusable spellings, for ActionEditDistance.
	Confusions Confusions
}

var _ augment.Strategy = &Strategy{}

// New returns the word augmenter. vocabulary and confusions may be empty, in which case the
// "insert" and "edit_distance" actions find no eligible token.
func New(vocabulary []string, confusions Confusions) *augment.TokenAugmenter {
	return augment.NewTokenAugmenter(Name, &Strategy{Vocabulary: vocabulary, Confusions: confusions})
}

// Actions implements augment.Strategy.
func (*Strategy) Actions() []string {
	return []string{ActionDuplicate, ActionInsert, ActionEditDistance, ActionSplit, ActionSwap, ActionDelete}
}

// Eligible implements augment.Strategy.
func (st *Strategy) Eligible(action string, s words.Sentence, i int) bool {
	token := s.Tokens[i]
	switch action {
	case ActionInsert:
		return slices.ContainsFunc(st.Vocabulary, func(w string) bool { return w != token })
	case ActionEditDistance:
		return len(st.Confusions.Lookup(token)) > 0
	case ActionSplit:
		return utf8.RuneCountInString(token) >= SplitMinChars
	case ActionSwap:
		return s.Len() > 1
	default:
		return true
	}
}

// Transform implements augment.Strategy.
func (st *Strategy) Transform(_ context.Context, in augment.Input) ([]string, error) {
	s := in.Sentence
	indices := slices.Clone(in.Indices)
	switch in.Action {
	case ActionSwap:
		for _, idx := range indices {
			var partners []int
			for j, token := range s.Tokens {
				if j != idx && !augment.ContainsPlaceholder(token) {
					partners = append(partners, j)
				}
			}
			if len(partners) > 0 {
				s.Swap(idx, augment.Choice(partners, in.Rng))
			}
		}
		return []string{s.String()}, nil
	case ActionEditDistance:
		for _, idx := range indices {
			original := s.Tokens[idx]
			replacement := augment.Choice(st.Confusions.Lookup(original), in.Rng)
			if idx == 0 {
				replacement = alignCapitalization(original, replacement)
			}
			s.Tokens[idx] = replacement
		}
		return []string{s.String()}, nil
	}

	// Remaining actions change the number of tokens: go right to left so pending indices stay valid.
	slices.Sort(indices)
	slices.Reverse(indices)
	for _, idx := range indices {
		token := s.Tokens[idx]
		switch in.Action {
		case ActionDuplicate:
			s.Insert(idx, token, " ")
		case ActionInsert:
			sample := augment.Choice(st.Vocabulary, in.Rng)
			for sample == token {
				sample = augment.Choice(st.Vocabulary, in.Rng)
			}
			s.Insert(idx, sample, " ")
		case ActionSplit:
			chars := []rune(token)
			pos := 1 + in.Rng.IntN(len(chars)-1)
			s.Tokens[idx] = string(chars[pos:])
			s.Insert(idx, string(chars[:pos]), " ")
		case ActionDelete:
			s.Delete(idx)
		}
	}
	return []string{s.String()}, nil
}

// alignCapitalization capitalizes replacement if original is capitalized.
func alignCapitalization(original, replacement string) string {
	first, _ := utf8.DecodeRuneInString(original)
	if !unicode.IsUpper(first) {
		return replacement
	}
	r, size := utf8.DecodeRuneInString(replacement)
	return string(unicode.ToUpper(r)) + replacement[size:]
}

// Confusions maps a word to the spellings it is commonly confused with.
type Confusions map[string][]string

// Lookup returns the confusable spellings of token, trying it as-is and then lower-cased.
func (c Confusions) Lookup(token string) []string {
	if values, ok := c[token]; ok {
		return values
	}
	return c[strings.ToLower(token)]
}
