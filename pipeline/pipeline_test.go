package pipeline

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/gomlx/go-vnaug/augment"
	"github.com/gomlx/go-vnaug/augment/blank"
	"github.com/gomlx/go-vnaug/augment/word"
	"github.com/gomlx/go-vnaug/tokenizers/api"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

// failing always returns an error.
type failing struct{}

func (failing) Name() string      { return "failing" }
func (failing) Actions() []string { return nil }
func (failing) Augment(context.Context, string, augment.Params, *rand.Rand) ([]string, error) {
	return nil, errors.New("service down")
}

// panicking panics.
type panicking struct{ failing }

func (panicking) Augment(context.Context, string, augment.Params, *rand.Rand) ([]string, error) {
	panic("boom")
}

type mapRegistry map[string]augment.Augmenter

func (m mapRegistry) Augmenter(typeName string) (augment.Augmenter, bool) {
	a, ok := m[typeName]
	return a, ok
}

func newOrchestrator(segmenter api.Segmenter) *Orchestrator {
	return New(mapRegistry{
		blank.Name: blank.New(),
		word.Name:  word.New(nil, nil),
		"failing":  failing{},
		"panic":    panicking{},
	}, segmenter)
}

func newRand(seed uint64) *rand.Rand { return rand.New(rand.NewPCG(seed, 3)) }

func TestSampleStages(t *testing.T) {
	stages := []Stage{NewStage("a", ""), NewStage("b", ""), NewStage("c", ""), NewStage("d", "")}
	for seed := range uint64(100) {
		sampled := SampleStages(stages, false, newRand(seed))
		assert.GreaterOrEqual(t, len(sampled), 1)
		assert.LessOrEqual(t, len(sampled), len(stages)-1)
		seen := make(map[string]bool)
		for _, s := range sampled {
			assert.False(t, seen[s.Type], "stage %q sampled twice", s.Type)
			seen[s.Type] = true
		}
		assert.Len(t, SampleStages(stages, true, newRand(seed)), len(stages))
	}
	assert.Len(t, SampleStages(stages[:1], false, newRand(1)), 1)
	assert.Empty(t, SampleStages(nil, false, newRand(1)))
}

func TestRun(t *testing.T) {
	o := newOrchestrator(nil)
	stages := []Stage{NewStage(blank.Name, ""), NewStage(word.Name, word.ActionDuplicate)}
	opts := Options{NumSentences: 5, Exclude: []string{"Hà Nội"}, FullPipeline: true}
	res, err := o.Run(context.Background(), "Tôi yêu Hà Nội", stages, opts, newRand(1))
	require.NoError(t, err)
	require.False(t, res.Degraded)
	require.NotEmpty(t, res.Outputs)
	seen := make(map[string]bool)
	for _, out := range res.Outputs {
		assert.Contains(t, out.Text, "Hà Nội")
		assert.False(t, seen[out.Text], "duplicate output %q", out.Text)
		seen[out.Text] = true
		assert.NotEmpty(t, out.Labels)
	}
	// Every sentence runs both stages: the second output of a sentence carries both labels.
	var both bool
	for _, out := range res.Outputs {
		if len(out.Labels) == 2 {
			both = true
		}
	}
	assert.True(t, both)
	assert.Len(t, res.Stages, 10)
}

func TestRunDecomposedExclusions(t *testing.T) {
	o := newOrchestrator(nil)
	stage := NewStage(blank.Name, "")
	stage.PAug, stage.MinAug, stage.MaxAug = 1, 1, 10
	opts := Options{NumSentences: 1, Exclude: []string{norm.NFD.String("Hà Nội")}}
	res, err := o.Run(context.Background(), norm.NFD.String("Tôi yêu Hà Nội"), []Stage{stage}, opts, newRand(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"_ _ Hà Nội"}, res.Texts())
}

func TestDegradation(t *testing.T) {
	o := newOrchestrator(nil)
	stages := []Stage{NewStage("failing", ""), NewStage("panic", "")}
	res, err := o.Run(context.Background(), "xin chào", stages, Options{NumSentences: 3, FullPipeline: true}, newRand(1))
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, []string{"xin chào"}, res.Texts())
	assert.Len(t, res.Failures(), 6)
	for _, f := range res.Failures() {
		assert.Contains(t, f.String(), "failed")
	}

	// Failed stages are skipped, the others still produce results.
	stages = append(stages, NewStage(blank.Name, ""))
	res, err = o.Run(context.Background(), "xin chào", stages, Options{NumSentences: 3, FullPipeline: true}, newRand(1))
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	for _, text := range res.Texts() {
		assert.Contains(t, text, "_")
	}
}

func TestValidate(t *testing.T) {
	o := newOrchestrator(nil)
	_, err := o.Run(context.Background(), "x", []Stage{NewStage("unknown", "")}, Options{}, newRand(1))
	require.ErrorIs(t, err, augment.ErrValidation)
	_, err = o.Run(context.Background(), "x", []Stage{NewStage(word.Name, "shuffle")}, Options{}, newRand(1))
	require.ErrorIs(t, err, augment.ErrValidation)
	_, err = o.Run(context.Background(), "x", nil, Options{Segment: true}, newRand(1))
	require.ErrorIs(t, err, augment.ErrValidation)

	// Empty pipeline: the original text.
	res, err := o.Run(context.Background(), "x", nil, Options{}, newRand(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, res.Texts())
}

func TestSegment(t *testing.T) {
	segmenter := api.SegmenterFunc(func(_ context.Context, text string) (string, error) {
		return strings.ReplaceAll(text, "yêu ", "yêu_"), nil
	})
	o := newOrchestrator(segmenter)
	stages := []Stage{NewStage(word.Name, word.ActionDuplicate)}
	stages[0].PAug, stages[0].MinAug, stages[0].MaxAug = 1, 1, 10
	res, err := o.Run(context.Background(), "yêu Nam", stages, Options{Segment: true, Exclude: []string{"Nam"}}, newRand(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"yêu_yêu_Nam"}, res.Texts())
	assert.Equal(t, []string{"word:duplicate"}, res.Outputs[0].Labels)
}

func TestStageDecoding(t *testing.T) {
	var stages []Stage
	require.NoError(t, json.Unmarshal([]byte(`[{"type":"typo","action":"telex","p_aug":0.9},{"type":"blank"}]`), &stages))
	require.Len(t, stages, 2)
	assert.Equal(t, "typo:telex", stages[0].Label())
	assert.Equal(t, 0.9, stages[0].PAug)
	assert.Equal(t, augment.DefaultMaxAug, stages[0].MaxAug)
	assert.Equal(t, "blank", stages[1].Label())
	assert.Equal(t, augment.DefaultAugCharP, stages[1].AugCharP)

	f, err := ParseFile([]byte(`
n_sent: 3
exclude: [Hà Nội]
pipeline:
  - type: word
    action: swap
    min_aug: 2
  - type: blank
`))
	require.NoError(t, err)
	assert.Equal(t, 3, f.Options().NumSentences)
	assert.Equal(t, []string{"Hà Nội"}, f.Options().Exclude)
	require.Len(t, f.Stages, 2)
	assert.Equal(t, "word:swap", f.Stages[0].Label())
	assert.Equal(t, 2, f.Stages[0].MinAug)
	assert.Equal(t, augment.DefaultPAug, f.Stages[0].PAug)
}
