package deptree

import (
	"context"
	"math/rand/v2"

	"github.com/gomlx/go-vnaug/augment"
	"github.com/gomlx/go-vnaug/tokenizers/api"
	"github.com/gomlx/go-vnaug/tokenizers/words"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Name of the augmentation type.
const Name = "dependency_tree"

// Parser annotates a text with its dependency parse.
type Parser interface {
	Annotate(ctx context.Context, text string) ([]Annotation, error)
}

// ParserFunc implements Parser with a function.
type ParserFunc func(ctx context.Context, text string) ([]Annotation, error)

// Annotate implements Parser.
func (fn ParserFunc) Annotate(ctx context.Context, text string) ([]Annotation, error) {
	return fn(ctx, text)
}

// Augmenter drops a random phrase of the sentence dependency tree.
type Augmenter struct {
	parser    Parser
	segmenter api.Segmenter
}

var _ augment.Augmenter = &Augmenter{}

// New creates the dependency tree augmenter using parser.
func New(parser Parser) *Augmenter {
	return &Augmenter{parser: parser}
}

// WithSegmenter sets the word segmenter used when Params.Segment is set. It returns itself.
func (a *Augmenter) WithSegmenter(segmenter api.Segmenter) *Augmenter {
	a.segmenter = segmenter
	return a
}

// Name implements augment.Augmenter.
func (a *Augmenter) Name() string { return Name }

// Actions implements augment.Augmenter: the action is ignored.
func (a *Augmenter) Actions() []string { return nil }

// Augment implements augment.Augmenter.
//
// Texts with exclusions are returned unchanged, since dropping a phrase could drop an excluded literal.
// A parser failure also returns the text unchanged; an invalid parse is an error.
func (a *Augmenter) Augment(ctx context.Context, text string, p augment.Params, rng *rand.Rand) ([]string, error) {
	if len(p.Exclude) > 0 {
		return []string{text}, nil
	}
	if p.Segment && a.segmenter == nil {
		return nil, errors.Wrapf(augment.ErrValidation, "%s: segmentation requested but no segmenter configured", Name)
	}
	input := words.Normalize(text)
	if p.IsSegmented {
		input = words.Unsegment(input)
	}
	annotations, err := a.parser.Annotate(ctx, input)
	if err != nil {
		klog.Warningf("%s: dependency parsing of %q failed, text left unchanged: %+v", Name, input, err)
		return []string{text}, nil
	}
	tree, err := Build(annotations)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s: parse of %q", Name, input)
	}
	if !tree.RandomDropPhrase(rng) {
		return []string{text}, nil
	}
	klog.V(2).Infof("%s: pruned tree %s", Name, tree)
	outputs := augment.Postprocess(ctx, a.segmenter, []string{tree.Text()}, nil, p.Segment)
	if len(outputs) == 0 {
		return []string{text}, nil
	}
	return outputs, nil
}
