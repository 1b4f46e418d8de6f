package blank

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/gomlx/go-vnaug/augment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlank(t *testing.T) {
	aug := New()
	assert.Nil(t, aug.Actions())

	p := augment.DefaultParams().WithAction("whatever")
	p.PAug, p.MinAug, p.MaxAug = 1, 1, 10
	p.Exclude = []string{"Hà Nội"}
	out, err := aug.Augment(context.Background(), "Tôi yêu Hà Nội, rất nhiều!", p, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	assert.Equal(t, []string{"_ _ Hà Nội, _ _!"}, out)

	p.PAug, p.MinAug, p.MaxAug = 0, 2, 2
	for seed := range uint64(10) {
		out, err = aug.Augment(context.Background(), "một hai ba bốn", p, rand.New(rand.NewPCG(seed, 2)))
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(out[0], Token), out[0])
	}

	// Literals glued to, or inside, a word keep the whole word out of the selection.
	p.PAug, p.MinAug, p.MaxAug = 1, 1, 10
	p.Exclude = []string{"an"}
	out, err = aug.Augment(context.Background(), "thanh niên", p, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	assert.Equal(t, []string{"thanh _"}, out)
}
