package main

import (
	"bytes"
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gomlx/go-vnaug/augment"
	"github.com/gomlx/go-vnaug/augment/blank"
	"github.com/gomlx/go-vnaug/augment/word"
	"github.com/gomlx/go-vnaug/engine"
	"github.com/gomlx/go-vnaug/internal/export"
	"github.com/gomlx/go-vnaug/models/embeddings"
	"github.com/gomlx/go-vnaug/pipeline"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLines(t *testing.T) {
	lines, err := readLines(strings.NewReader("tôi đi học\n\n  xin chào \n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"tôi đi học", "xin chào"}, lines)
}

func TestRunBatch(t *testing.T) {
	e := engine.Build(engine.Components{})
	p := augment.DefaultParams().WithAction(word.ActionDuplicate)
	p.PAug, p.MaxAug = 1, 10
	gen, err := augmenterGenerator(e, word.Name, p, 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	w := export.NewWriter(&buf)
	numFailed, err := runBatch(context.Background(), []string{"tôi đi", "học"}, gen, w, 4, 1)
	require.NoError(t, err)
	assert.Zero(t, numFailed)
	require.NoError(t, w.Close())

	rows, err := export.ReadAll(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "tôi tôi đi đi", rows[0].Augmented)
	assert.Equal(t, int64(1), rows[1].Line)
	assert.Equal(t, "học học", rows[1].Augmented)
	assert.Equal(t, []string{"word:duplicate"}, rows[1].Labels)
	assert.Equal(t, rows[0].RunID, rows[1].RunID)

	_, err = augmenterGenerator(e, "nope", p, 1)
	require.ErrorIs(t, err, augment.ErrValidation)
	_, err = augmenterGenerator(e, word.Name, p.WithAction("bogus"), 1)
	require.ErrorIs(t, err, augment.ErrValidation)
}

func TestRunBatchFailures(t *testing.T) {
	gen := func(_ context.Context, text string, _ *rand.Rand) ([]pipeline.Output, error) {
		if text == "bad" {
			return nil, errors.New("boom")
		}
		return []pipeline.Output{{Text: text + "!", Labels: []string{"test"}}}, nil
	}
	var buf bytes.Buffer
	w := export.NewWriter(&buf)
	numFailed, err := runBatch(context.Background(), []string{"good", "bad", "fine"}, gen, w, 2, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, numFailed)
	assert.Equal(t, 2, w.Count())
	require.NoError(t, w.Close())
}

func TestPipelineGenerator(t *testing.T) {
	e := engine.Build(engine.Components{})
	def, err := pipeline.ParseFile([]byte(`
n_sent: 2
exclude: ["Hà Nội"]
pipeline:
  - type: blank
    p_aug: 1
    max_aug: 10
`))
	require.NoError(t, err)
	gen, err := pipelineGenerator(e, def)
	require.NoError(t, err)
	outputs, err := gen(context.Background(), "Tôi yêu Hà Nội", rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Equal(t, "_ _ Hà Nội", outputs[0].Text)
	assert.Equal(t, []string{blank.Name}, outputs[0].Labels)

	def.Stages[0].Type = "nope"
	_, err = pipelineGenerator(e, def)
	require.ErrorIs(t, err, augment.ErrValidation)
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	vecPath := filepath.Join(dir, "tiny.vec")
	require.NoError(t, os.WriteFile(vecPath, []byte("2 2\nđẹp 1 0\nxinh 1 0.1\n"), 0644))
	stPath := filepath.Join(dir, "tiny.safetensors")

	root := newRootCmd()
	root.SetArgs([]string{"convert-embeddings", vecPath, stPath})
	require.NoError(t, root.Execute())
	table, err := embeddings.LoadSafetensors(stPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"xinh"}, table.Similar("đẹp", 1))
	require.NoError(t, table.Close())

	root = newRootCmd()
	root.SetArgs([]string{"augment", "blank"})
	require.Error(t, root.Execute(), "missing TEXT argument")
}
