package word

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/gomlx/go-vnaug/augment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 7))
}

func params(action string, pAug float64, minAug, maxAug int) augment.Params {
	p := augment.DefaultParams().WithAction(action)
	p.PAug, p.MinAug, p.MaxAug = pAug, minAug, maxAug
	return p
}

func TestDuplicate(t *testing.T) {
	out, err := New(nil, nil).Augment(context.Background(), "tôi yêu em.", params(ActionDuplicate, 1, 1, 10), newRand(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"tôi tôi yêu yêu em em."}, out)
}

func TestInsert(t *testing.T) {
	aug := New([]string{"xin", "chào"}, nil)
	for seed := range uint64(10) {
		out, err := aug.Augment(context.Background(), "chào", params(ActionInsert, 1, 1, 1), newRand(seed))
		require.NoError(t, err)
		assert.Equal(t, []string{"xin chào"}, out)
	}

	// No vocabulary: nothing can be inserted.
	_, err := New(nil, nil).Augment(context.Background(), "chào", params(ActionInsert, 1, 1, 1), newRand(1))
	require.ErrorIs(t, err, augment.ErrInsufficientTokens)
}

func TestInsertVocabularyOfCopies(t *testing.T) {
	aug := New([]string{"a", "a"}, nil)
	_, err := aug.Augment(context.Background(), "a", params(ActionInsert, 1, 1, 1), newRand(1))
	require.ErrorIs(t, err, augment.ErrInsufficientTokens)

	out, err := aug.Augment(context.Background(), "a b", params(ActionInsert, 1, 1, 2), newRand(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"a a b"}, out)
}

func TestEditDistance(t *testing.T) {
	aug := New(nil, Confusions{"tôi": {"tui"}, "đi": {"di"}})
	out, err := aug.Augment(context.Background(), "Tôi đi học", params(ActionEditDistance, 1, 1, 10), newRand(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"Tui di học"}, out)
}

func TestSplit(t *testing.T) {
	aug := New(nil, nil)
	for seed := range uint64(20) {
		out, err := aug.Augment(context.Background(), "Việt Nam!", params(ActionSplit, 1, 1, 10), newRand(seed))
		require.NoError(t, err)
		require.Len(t, out, 1)
		fields := strings.Fields(out[0])
		assert.Len(t, fields, 3, out[0])
		assert.Equal(t, "Nam!", fields[2])
		assert.Equal(t, "Việt", fields[0]+fields[1])
	}
}

func TestSwap(t *testing.T) {
	aug := New(nil, nil)
	for seed := range uint64(20) {
		out, err := aug.Augment(context.Background(), "một hai ba", params(ActionSwap, 0, 1, 1), newRand(seed))
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.NotEqual(t, "một hai ba", out[0])
		assert.ElementsMatch(t, []string{"một", "hai", "ba"}, strings.Fields(out[0]))
	}

	// Excluded words are never swapped.
	p := params(ActionSwap, 1, 1, 10)
	p.Exclude = []string{"hai"}
	out, err := aug.Augment(context.Background(), "một hai", p, newRand(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"một hai"}, out)

	// Nor are words holding an excluded literal.
	p.Exclude = []string{"ba"}
	out, err = aug.Augment(context.Background(), "một haiba", p, newRand(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"một haiba"}, out)
}

func TestDelete(t *testing.T) {
	aug := New(nil, nil)
	for seed := range uint64(20) {
		out, err := aug.Augment(context.Background(), "một hai ba, bốn", params(ActionDelete, 0, 1, 1), newRand(seed))
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Len(t, strings.Fields(out[0]), 3, out[0])
	}
}

func TestReadResources(t *testing.T) {
	vocab, err := ReadVocabulary(strings.NewReader("xin chào\nxin  bạn\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"xin", "chào", "bạn"}, vocab)

	c, err := ReadConfusions(strings.NewReader("tôi tui tôii\nđi di\ntôi tui tôj\nlẻ\n"))
	require.NoError(t, err)
	assert.Equal(t, Confusions{"tôi": {"tui", "tôii", "tôj"}, "đi": {"di"}}, c)
	assert.Equal(t, []string{"di"}, c.Lookup("Đi"))
	assert.Empty(t, c.Lookup("xa"))
}
