// Package augment holds the building blocks shared by all Vietnamese text augmenters: exclusion masks,
// eligible-token sampling, per-call parameters, and TokenAugmenter, which runs the common
// mask -> tokenize -> select -> transform -> unmask flow around a Strategy.
//
// Each augmentation type lives in its own sub-package (augment/typo, augment/char, augment/word, ...)
// and exposes either a Strategy, wrapped into a TokenAugmenter, or a complete Augmenter.
package augment

import (
	"context"
	"math/rand/v2"

	"github.com/gomlx/go-vnaug/tokenizers/api"
	"github.com/gomlx/go-vnaug/tokenizers/words"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Augmenter produces perturbed variants of a text.
//
// Augment returns at least one text when err == nil. It returns the original text (single element)
// when no transformation was possible.
type Augmenter interface {
	// Name of the augmentation type, e.g. "typo".
	Name() string

	// Actions accepted in Params.Action, or nil if the action is ignored.
	Actions() []string

	Augment(ctx context.Context, text string, p Params, rng *rand.Rand) ([]string, error)
}

// Input is what a Strategy transforms.
type Input struct {
	Action string
	// Sentence is the masked, un-segmented text split into tokens. It is a private copy, and can be mutated.
	Sentence words.Sentence
	// Indices of the tokens selected for augmentation, in random order.
	Indices []int
	Params  Params
	Rng     *rand.Rand
}

// Strategy is one augmentation type, run by a TokenAugmenter.
type Strategy interface {
	// Actions accepted, or nil if the action is ignored.
	Actions() []string

	// Eligible tells whether token i of s may be selected for the given action. Placeholders
	// and punctuation are already excluded by the caller.
	Eligible(action string, s words.Sentence, i int) bool

	// Transform returns the transformed text(s).
	Transform(ctx context.Context, in Input) ([]string, error)
}

// TokenAugmenter implements Augmenter for a Strategy.
type TokenAugmenter struct {
	name      string
	strategy  Strategy
	segmenter api.Segmenter
}

// Compile time assert that TokenAugmenter implements Augmenter.
var _ Augmenter = &TokenAugmenter{}

// NewTokenAugmenter creates a TokenAugmenter with the given name.
func NewTokenAugmenter(name string, strategy Strategy) *TokenAugmenter {
	return &TokenAugmenter{name: name, strategy: strategy}
}

// WithSegmenter sets the word segmenter used when Params.Segment is set. It returns itself.
func (a *TokenAugmenter) WithSegmenter(segmenter api.Segmenter) *TokenAugmenter {
	a.segmenter = segmenter
	return a
}

// Name implements Augmenter.
func (a *TokenAugmenter) Name() string { return a.name }

// Actions implements Augmenter.
func (a *TokenAugmenter) Actions() []string { return a.strategy.Actions() }

// Strategy returns the underlying strategy.
func (a *TokenAugmenter) Strategy() Strategy { return a.strategy }

// Augment implements Augmenter.
func (a *TokenAugmenter) Augment(ctx context.Context, text string, p Params, rng *rand.Rand) ([]string, error) {
	if actions := a.strategy.Actions(); actions != nil {
		if err := ValidateAction(a.name, p.Action, actions); err != nil {
			return nil, err
		}
	}
	if err := p.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "%s", a.name)
	}
	if p.Segment && a.segmenter == nil {
		return nil, errors.Wrapf(ErrValidation, "%s: segmentation requested but no segmenter configured", a.name)
	}

	text = words.Normalize(text)
	masked, exclusions := Mask(text, p.Exclude)
	if p.IsSegmented {
		masked = words.Unsegment(masked)
	}
	sentence := words.Split(masked)
	indices, err := Select(sentence.Tokens, p.Sample(), func(i int, token string) bool {
		return !ContainsPlaceholder(token) && !words.IsPunctuation(token) && a.strategy.Eligible(p.Action, sentence, i)
	}, rng)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s(%s)", a.name, p.Action)
	}
	if len(indices) == 0 {
		return []string{text}, nil
	}
	klog.V(2).Infof("%s(%s): augmenting tokens %v of %q", a.name, p.Action, indices, masked)

	outputs, err := a.strategy.Transform(ctx, Input{
		Action:   p.Action,
		Sentence: sentence.Clone(),
		Indices:  indices,
		Params:   p,
		Rng:      rng,
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "%s(%s)", a.name, p.Action)
	}
	outputs = Postprocess(ctx, a.segmenter, outputs, exclusions, p.Segment)
	if len(outputs) == 0 {
		return []string{text}, nil
	}
	return outputs, nil
}

// Postprocess optionally word-segments the (still masked) outputs, restores the excluded literals and
// removes duplicates. Segmentation failures are logged and leave the text un-segmented.
func Postprocess(ctx context.Context, segmenter api.Segmenter, outputs []string, exclusions ExclusionMap, segment bool) []string {
	results := make([]string, 0, len(outputs))
	for _, out := range outputs {
		if segment && segmenter != nil {
			segmented, err := segmenter.Segment(ctx, out)
			if err != nil {
				klog.Warningf("word segmentation failed, keeping text un-segmented: %+v", err)
			} else {
				out = segmented
			}
		}
		results = append(results, exclusions.Unmask(out))
	}
	return Dedup(results)
}

// Dedup removes empty and repeated texts, keeping the first occurrence order.
func Dedup(texts []string) []string {
	seen := make(map[string]struct{}, len(texts))
	out := texts[:0:0]
	for _, t := range texts {
		if t == "" {
			continue
		}
		if _, found := seen[t]; found {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
