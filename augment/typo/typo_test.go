package typo

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/gomlx/go-vnaug/augment"
	"github.com/gomlx/go-vnaug/tokenizers/words"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 7))
}

func TestQwertyNeighbours(t *testing.T) {
	assert.ElementsMatch(t, []rune{'w', 'a'}, qwertyNeighbours['q'])
	assert.ElementsMatch(t, []rune{'a', 'd', 'w', 'e', 'z', 'x'}, qwertyNeighbours['s'])
	assert.Len(t, qwertyNeighbours, 26)
}

func TestTypo(t *testing.T) {
	ctx := context.Background()
	aug := New()
	text := "Hôm nay trời đẹp, tôi đi học."

	t.Run("Telex", func(t *testing.T) {
		p := augment.DefaultParams().WithAction(ActionTelex)
		p.Exclude = []string{"tôi"}
		for seed := range uint64(30) {
			out, err := aug.Augment(ctx, text, p, newRand(seed))
			require.NoError(t, err)
			require.Len(t, out, 1)
			assert.NotEqual(t, text, out[0])
			assert.Contains(t, out[0], "tôi")
			assert.True(t, strings.HasSuffix(out[0], "."), out[0])
			// Punctuation and spacing are preserved.
			assert.Equal(t, words.Split(text).Gaps, words.Split(out[0]).Gaps)
		}
	})

	t.Run("VNI", func(t *testing.T) {
		p := augment.DefaultParams().WithAction(ActionVNI)
		p.PAug, p.MinAug, p.MaxAug = 1, 1, 1
		out, err := aug.Augment(ctx, "đi", p, newRand(1))
		require.NoError(t, err)
		assert.Contains(t, []string{"9di", "d9i", "di9"}, out[0])
	})

	t.Run("Keyboard", func(t *testing.T) {
		p := augment.DefaultParams().WithAction(ActionKeyboard)
		for seed := range uint64(30) {
			out, err := aug.Augment(ctx, "xin chao ban", p, newRand(seed))
			require.NoError(t, err)
			assert.NotEqual(t, "xin chao ban", out[0])
			assert.Len(t, strings.Fields(out[0]), 3)
		}
	})

	t.Run("NoAccents", func(t *testing.T) {
		p := augment.DefaultParams().WithAction(ActionTelex)
		_, err := aug.Augment(ctx, "xin chao", p, newRand(1))
		assert.True(t, errors.Is(err, augment.ErrInsufficientTokens))
	})

	t.Run("UnknownAction", func(t *testing.T) {
		_, err := aug.Augment(ctx, text, augment.DefaultParams().WithAction("qwerty"), newRand(1))
		assert.True(t, errors.Is(err, augment.ErrValidation))
	})
}
