package deptree

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/gomlx/go-vnaug/augment"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sample parses "Tôi đi học ở trường đại_học Bách_Khoa": "đi" is the root, "học" and "ở" are
// phrases with children.
var sample = []Annotation{
	{Form: "Tôi", Index: 1, Head: 2, DepLabel: "sub"},
	{Form: "đi", Index: 2, Head: 0, DepLabel: "root"},
	{Form: "học", Index: 3, Head: 2, DepLabel: "vmod"},
	{Form: "ở", Index: 4, Head: 3, DepLabel: "loc"},
	{Form: "trường", Index: 5, Head: 4, DepLabel: "pob"},
	{Form: "đại_học", Index: 6, Head: 5, DepLabel: "nmod"},
	{Form: "Bách_Khoa", Index: 7, Head: 6, DepLabel: "nmod"},
}

func TestBuild(t *testing.T) {
	tree, err := Build(sample)
	require.NoError(t, err)
	assert.Equal(t, 7, tree.Len())
	assert.Equal(t, "đi", tree.Root().Text)
	var children []int
	for _, c := range tree.Children(2) {
		children = append(children, c.Index)
	}
	assert.Equal(t, []int{1, 3}, children)
	assert.Equal(t, "Tôi đi học ở trường đại học Bách Khoa", tree.Text())

	invalid := map[string][]Annotation{
		"NoRoot":      {{Form: "a", Index: 1, Head: 2}, {Form: "b", Index: 2, Head: 1}},
		"TwoRoots":    {{Form: "a", Index: 1, Head: 0}, {Form: "b", Index: 2, Head: 0}},
		"UnknownHead": {{Form: "a", Index: 1, Head: 0}, {Form: "b", Index: 2, Head: 9}},
		"Cycle":       {{Form: "a", Index: 1, Head: 0}, {Form: "b", Index: 2, Head: 3}, {Form: "c", Index: 3, Head: 2}},
		"Repeated":    {{Form: "a", Index: 1, Head: 0}, {Form: "b", Index: 1, Head: 1}},
		"SelfHead":    {{Form: "a", Index: 1, Head: 0}, {Form: "b", Index: 2, Head: 2}},
	}
	for name, annotations := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := Build(annotations)
			require.ErrorIs(t, err, ErrInvalidTree)
		})
	}
}

func TestRandomDropPhrase(t *testing.T) {
	tree, err := Build(sample)
	require.NoError(t, err)
	// Only "học" (3) is a non-leaf child of the root.
	require.True(t, tree.RandomDropPhrase(rand.New(rand.NewPCG(1, 2))))
	assert.Equal(t, "Tôi đi", tree.Text())
	assert.Nil(t, tree.Node(7))

	// Now the root only has leaf children.
	assert.False(t, tree.RandomDropPhrase(rand.New(rand.NewPCG(1, 2))))
	assert.Equal(t, 2, tree.Len())
}

func TestAugmenter(t *testing.T) {
	ctx := context.Background()
	var got string
	parser := ParserFunc(func(_ context.Context, text string) ([]Annotation, error) {
		got = text
		return sample, nil
	})
	aug := New(parser)
	p := augment.DefaultParams()
	p.IsSegmented = true
	out, err := aug.Augment(ctx, "Tôi đi học ở trường đại_học Bách_Khoa", p, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	assert.Equal(t, []string{"Tôi đi"}, out)
	assert.Equal(t, "Tôi đi học ở trường đại học Bách Khoa", got)

	// Exclusions: unchanged, and the parser is not called.
	got = ""
	p.Exclude = []string{"Tôi"}
	out, err = aug.Augment(ctx, "Tôi đi học", p, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	assert.Equal(t, []string{"Tôi đi học"}, out)
	assert.Empty(t, got)

	// Parser failure degrades to the original text.
	failing := New(ParserFunc(func(context.Context, string) ([]Annotation, error) {
		return nil, errors.New("service down")
	}))
	out, err = failing.Augment(ctx, "Tôi đi học", augment.DefaultParams(), rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	assert.Equal(t, []string{"Tôi đi học"}, out)

	// Invalid parse is an error.
	broken := New(ParserFunc(func(context.Context, string) ([]Annotation, error) {
		return []Annotation{{Form: "a", Index: 1, Head: 2}}, nil
	}))
	_, err = broken.Augment(ctx, "a", augment.DefaultParams(), rand.New(rand.NewPCG(1, 2)))
	require.ErrorIs(t, err, ErrInvalidTree)
}
