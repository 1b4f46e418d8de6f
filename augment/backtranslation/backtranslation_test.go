package backtranslation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/gomlx/go-vnaug/augment"
	"github.com/gomlx/go-vnaug/tokenizers/api"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTranslator tags the text with the target language, and fails for "xx".
func fakeTranslator() (Translator, *[]string) {
	var calls []string
	return TranslatorFunc(func(_ context.Context, text, source, target string) (string, error) {
		calls = append(calls, source+"->"+target)
		if target == "xx" {
			return "", errors.New("unsupported language")
		}
		if target == "vi" {
			return fmt.Sprintf("%s (qua %s)", text, source), nil
		}
		return "[" + target + "]", nil
	}), &calls
}

func TestBackTranslation(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(1, 2))
	translator, calls := fakeTranslator()
	aug := New(translator)

	p := augment.DefaultParams()
	p.Languages = []string{"en", "xx", "fr", "vi"}
	out, err := aug.Augment(ctx, "xin chào", p, rng)
	require.NoError(t, err)
	assert.Equal(t, []string{"[en] (qua en)", "[fr] (qua fr)"}, out)
	assert.Equal(t, []string{"vi->en", "en->vi", "vi->xx", "vi->fr", "fr->vi"}, *calls)

	// Every language fails: the original text.
	p.Languages = []string{"xx"}
	out, err = aug.Augment(ctx, "xin chào", p, rng)
	require.NoError(t, err)
	assert.Equal(t, []string{"xin chào"}, out)

	// Exclusions: unchanged.
	p.Languages, p.Exclude = []string{"en"}, []string{"chào"}
	out, err = aug.Augment(ctx, "xin chào", p, rng)
	require.NoError(t, err)
	assert.Equal(t, []string{"xin chào"}, out)
}

func TestSegment(t *testing.T) {
	translator, _ := fakeTranslator()
	p := augment.DefaultParams()
	p.Segment = true
	_, err := New(translator).Augment(context.Background(), "xin chào", p, nil)
	require.ErrorIs(t, err, augment.ErrValidation)

	aug := New(translator).WithSegmenter(api.SegmenterFunc(func(_ context.Context, text string) (string, error) {
		return "<" + text + ">", nil
	}))
	out, err := aug.Augment(context.Background(), "xin chào", p, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"<[en] (qua en)>"}, out)
}
