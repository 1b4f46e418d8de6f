// Package backtranslation paraphrases a text by translating it to intermediate languages and back.
package backtranslation

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
const Name = "backtranslation"

// DefaultLanguages are the intermediate languages used when Params.Languages is empty.
var DefaultLanguages = []string{"en"}

// Translator translates text between two languages, given by their ISO 639-1 codes.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// TranslatorFunc implements Translator with a function.
type TranslatorFunc func(ctx context.Context, text, source, target string) (string, error)

// Translate implements Translator.
func (fn TranslatorFunc) Translate(ctx context.Context, text, source, target string) (string, error) {
	return fn(ctx, text, source, target)
}

// Augmenter implements augment.Augmenter with back-translation: one output per intermediate language.
type Augmenter struct {
	translator Translator
	segmenter  api.Segmenter
}

var _ augment.Augmenter = &Augmenter{}

// New creates a back-translation augmenter.
func New(translator Translator) *Augmenter {
	return &Augmenter{translator: translator}
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

// Augment implements augment.Augmenter. Texts with exclusions are returned unchanged, since a
// translation can't be trusted to keep them. Languages whose round trip fails are skipped.
func (a *Augmenter) Augment(ctx context.Context, text string, p augment.Params, _ *rand.Rand) ([]string, error) {
	if len(p.Exclude) > 0 {
		return []string{text}, nil
	}
	if p.Segment && a.segmenter == nil {
		return nil, errors.Wrapf(augment.ErrValidation, "%s: segmentation requested but no segmenter configured", Name)
	}
	source := p.SrcLanguage
	if source == "" {
		source = augment.DefaultSrcLanguage
	}
	languages := p.Languages
	if len(languages) == 0 {
		languages = DefaultLanguages
	}

	input := words.Normalize(text)
	if p.IsSegmented {
		input = words.Unsegment(input)
	}
	var outputs []string
	for _, lang := range languages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if lang == source {
			continue
		}
		back, err := a.roundTrip(ctx, input, source, lang)
		if err != nil {
			klog.Warningf("%s: skipping language %q: %+v", Name, lang, err)
			continue
		}
		outputs = append(outputs, words.Normalize(back))
	}
	outputs = augment.Postprocess(ctx, a.segmenter, outputs, nil, p.Segment)
	if len(outputs) == 0 {
		return []string{text}, nil
	}
	return outputs, nil
}

func (a *Augmenter) roundTrip(ctx context.Context, text, source, lang string) (string, error) {
	translated, err := a.translator.Translate(ctx, text, source, lang)
	if err != nil {
		return "", errors.WithMessagef(err, "translating %s->%s", source, lang)
	}
	back, err := a.translator.Translate(ctx, translated, lang, source)
	if err != nil {
		return "", errors.WithMessagef(err, "translating %s->%s", lang, source)
	}
	return back, nil
}
