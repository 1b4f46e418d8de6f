// Package synonym replaces (or inserts) words by synonyms: nearest neighbours in a word embedding
// table that a masked language model also finds plausible in the word's context.
package synonym

import (
	"context"
	"strings"

	"github.com/gomlx/go-vnaug/augment"
	"github.com/gomlx/go-vnaug/tokenizers/api"
	"github.com/gomlx/go-vnaug/tokenizers/sentencepiece"
	"github.com/gomlx/go-vnaug/tokenizers/words"
	"k8s.io/klog/v2"
)

// Name of the augmentation type.
const Name = "synonym"

// Actions of the synonym augmenter.
const (
	ActionSubstitute = "substitute"
	ActionInsert     = "insert"
)

const (
	// MaskToken is the masked language model mask.
	MaskToken = "<mask>"

	// NumNeighbours is the number of embedding neighbours considered before filtering.
	NumNeighbours = 20

	// NumFills is the number of masked language model candidates a synonym must be part of.
	NumFills = 50

	// ContextWindow is the number of tokens given as context to the masked language model. Masks
	// beyond it get a window of ContextRadius tokens on each side instead.
	ContextWindow = 256
	ContextRadius = 100
)

// Embeddings finds the nearest neighbours of a word.
type Embeddings interface {
	// Similar returns up to k words closest to word, best first, excluding word itself.
	// It returns nil if word is unknown.
	Similar(word string, k int) []string
}

// MaskedLM predicts the words filling a MaskToken.
type MaskedLM interface {
	// FillMask returns the topK candidates for the mask in text, best first.
	FillMask(ctx context.Context, text string, topK int) ([]string, error)
}

// Strategy implements augment.Strategy for synonyms.
type Strategy struct {
	Embeddings Embeddings
	LM         MaskedLM

	// StopWords are never replaced. Keys are lower-case.
	StopWords map[string]bool

	// Budget, if set, shrinks the masked language model context to MaxPieces sentence pieces
	// around the mask.
	Budget    api.TokenizerWithSpans
	MaxPieces int
}

var _ augment.Strategy = &Strategy{}

// New returns the synonym augmenter using the given strategy.
func New(st *Strategy) *augment.TokenAugmenter {
	return augment.NewTokenAugmenter(Name, st)
}

// Actions implements augment.Strategy.
func (*Strategy) Actions() []string { return []string{ActionSubstitute, ActionInsert} }

// Eligible implements augment.Strategy: stop words are not replaced.
func (st *Strategy) Eligible(_ string, s words.Sentence, i int) bool {
	return !st.StopWords[strings.ToLower(s.Tokens[i])]
}

// Transform implements augment.Strategy.
//
// Synonyms are searched in the original sentence for every selected token first, and applied
// afterwards: in place for "substitute", at random positions for "insert".
func (st *Strategy) Transform(ctx context.Context, in augment.Input) ([]string, error) {
	s := in.Sentence
	synonyms := make([][]string, len(in.Indices))
	for ii, idx := range in.Indices {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		synonyms[ii] = st.Synonyms(ctx, s.Tokens, idx, in.Params.NumSimilar, in.Params.NumKeep)
	}
	for ii, idx := range in.Indices {
		for _, synonym := range synonyms[ii] {
			if in.Action == ActionSubstitute {
				s.Tokens[idx] = synonym
			} else {
				s.Insert(in.Rng.IntN(s.Len()), synonym, " ")
			}
		}
	}
	return []string{s.String()}, nil
}

// Similar returns the first numSimilar lower-cased embedding neighbours of word.
func (st *Strategy) Similar(word string, numSimilar int) []string {
	if st.Embeddings == nil || numSimilar <= 0 {
		return nil
	}
	var similar []string
	for _, neighbour := range st.Embeddings.Similar(word, NumNeighbours) {
		if len(similar) >= numSimilar {
			break
		}
		neighbour = strings.ToLower(neighbour)
		if neighbour == word {
			continue
		}
		similar = append(similar, neighbour)
	}
	return similar
}

// Synonyms returns up to numKeep neighbours of tokens[idx] that the masked language model also
// predicts at its position. A failing language model yields no synonym.
func (st *Strategy) Synonyms(ctx context.Context, tokens []string, idx, numSimilar, numKeep int) []string {
	similar := st.Similar(tokens[idx], numSimilar)
	if len(similar) == 0 || st.LM == nil || numKeep <= 0 {
		return nil
	}
	masked := MaskContext(tokens, idx)
	if st.Budget != nil {
		masked = sentencepiece.Clip(st.Budget, masked, MaskToken, st.MaxPieces)
	}
	fills, err := st.LM.FillMask(ctx, masked, NumFills)
	if err != nil {
		klog.Warningf("%s: masked language model failed for %q, no synonym: %+v", Name, tokens[idx], err)
		return nil
	}
	predicted := make(map[string]bool, len(fills))
	for _, fill := range fills {
		predicted[strings.ToLower(strings.TrimSpace(fill))] = true
	}
	var kept []string
	for _, synonym := range similar {
		if len(kept) >= numKeep {
			break
		}
		if predicted[synonym] {
			kept = append(kept, synonym)
		}
	}
	return kept
}

// MaskContext replaces tokens[idx] by MaskToken and returns the space joined context window.
func MaskContext(tokens []string, idx int) string {
	start, end := 0, ContextWindow
	if idx > ContextWindow {
		start, end = idx-ContextRadius, idx+ContextRadius
	}
	end = min(end, len(tokens))
	window := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		if i == idx {
			window = append(window, MaskToken)
		} else {
			window = append(window, tokens[i])
		}
	}
	return strings.Join(window, " ")
}
