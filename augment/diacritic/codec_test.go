package diacritic

import (
	"math/rand/v2"
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 42))
}

func TestTables(t *testing.T) {
	for _, c := range []*Codec{Telex, VNI} {
		// 67 characters plus the "ươ" family.
		assert.Equal(t, 67+len(Digraphs), c.Len(), c.Name())
	}

	cases := []struct {
		codec *Codec
		char  string
		want  Entry
	}{
		{Telex, "á", Entry{"a", []string{"s"}}},
		{Telex, "ấ", Entry{"a", []string{"a", "s"}}},
		{Telex, "ặ", Entry{"a", []string{"w", "j"}}},
		{Telex, "ư", Entry{"u", []string{"w"}}},
		{Telex, "đ", Entry{"d", []string{"d"}}},
		{Telex, "ươ", Entry{"uo", []string{"w"}}},
		{Telex, "ưỡ", Entry{"uo", []string{"w", "x"}}},
		{VNI, "ỳ", Entry{"y", []string{"2"}}},
		{VNI, "â", Entry{"a", []string{"6"}}},
		{VNI, "ô", Entry{"o", []string{"6"}}},
		{VNI, "ợ", Entry{"o", []string{"7", "5"}}},
		{VNI, "đ", Entry{"d", []string{"9"}}},
		{VNI, "ượ", Entry{"uo", []string{"7", "5"}}},
	}
	for _, tc := range cases {
		got, ok := tc.codec.Decompose(tc.char)
		require.True(t, ok, "%s %q", tc.codec.Name(), tc.char)
		assert.Equal(t, tc.want, got, "%s %q", tc.codec.Name(), tc.char)
	}

	_, ok := Telex.Decompose("a")
	assert.False(t, ok)
}

func TestCompose(t *testing.T) {
	got, ok := Telex.Compose("a", "a", "s")
	require.True(t, ok)
	assert.Equal(t, "ấ", got)

	got, ok = Telex.Compose("A", "w")
	require.True(t, ok)
	assert.Equal(t, "Ă", got)

	got, ok = VNI.Compose("uo", "7", "2")
	require.True(t, ok)
	assert.Equal(t, "ườ", got)

	_, ok = Telex.Compose("b", "s")
	assert.False(t, ok)

	// Compose inverts Decompose for every entry.
	for _, c := range []*Codec{Telex, VNI} {
		for key, e := range c.entries {
			got, ok := c.Compose(e.Base, e.Mods...)
			require.True(t, ok)
			assert.Equal(t, key, got)
		}
	}
}

func TestPositionWeights(t *testing.T) {
	assert.Equal(t, []float64{1}, PositionWeights(1))
	assert.Equal(t, []float64{0.1, 0.9}, PositionWeights(2))
	w := PositionWeights(5)
	assert.InDelta(t, 0.4, w[1], 1e-9)
	assert.InDelta(t, 0.4, w[4], 1e-9)
	assert.InDelta(t, 0.2/3, w[0], 1e-9)
	for n := 1; n < 12; n++ {
		var sum float64
		for _, x := range PositionWeights(n) {
			sum += x
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "n=%d", n)
	}
}

func TestWordError(t *testing.T) {
	t.Run("Unchanged", func(t *testing.T) {
		assert.Equal(t, "xin", Telex.WordError("xin", newRand(1)))
		assert.Equal(t, "123", VNI.WordError("123", newRand(1)))
	})

	t.Run("SingleModifier", func(t *testing.T) {
		seen := map[string]bool{}
		for seed := range uint64(100) {
			got := Telex.WordError("á", newRand(seed))
			require.Contains(t, []string{"sa", "as"}, got)
			seen[got] = true
		}
		assert.Len(t, seen, 2)
	})

	t.Run("TwoModifiers", func(t *testing.T) {
		var twice, once int
		for seed := range uint64(200) {
			got := Telex.WordError("ấy", newRand(seed))
			switch utf8.RuneCountInString(got) {
			case 4:
				twice++
				assert.Equal(t, 2, strings.Count(got, "a"), got)
				assert.Contains(t, got, "s")
			case 3:
				once++
				assert.Contains(t, got, "â")
				assert.Contains(t, got, "s")
			default:
				t.Fatalf("unexpected %q", got)
			}
			assert.Contains(t, got, "y")
		}
		assert.Greater(t, twice, 50)
		assert.Greater(t, once, 50)
	})

	t.Run("UpperCase", func(t *testing.T) {
		for seed := range uint64(50) {
			got := VNI.WordError("ẤY", newRand(seed))
			for _, r := range got {
				assert.False(t, unicode.IsLower(r), got)
			}
			assert.True(t, strings.Contains(got, "1"), got)
		}
	})

	t.Run("Digraph", func(t *testing.T) {
		for seed := range uint64(100) {
			got := Telex.WordError("trường", newRand(seed))
			assert.NotContains(t, got, "ờ")
			assert.Contains(t, got, "f")
			assert.True(t, strings.HasPrefix(got, "tru") || strings.HasPrefix(got, "trư"), got)
			n := utf8.RuneCountInString(got)
			assert.True(t, n == 7 || n == 8, got)
		}
	})

	t.Run("FirstCharacterOnly", func(t *testing.T) {
		for seed := range uint64(50) {
			got := Telex.WordError("đẹp", newRand(seed))
			assert.Contains(t, got, "ẹ")
			assert.Contains(t, got, "d")
			assert.NotContains(t, got, "đ")
		}
	})
}

func TestAnalyze(t *testing.T) {
	l, ok := Analyze('Ở')
	require.True(t, ok)
	assert.Equal(t, Letter{Shape: 'ơ', Tone: ToneHook}, l)
	r, ok := Form('ơ', ToneDot)
	require.True(t, ok)
	assert.Equal(t, 'ợ', r)
	assert.Equal(t, 'o', Plain('ơ'))
	assert.True(t, IsMarked('ê'))
	assert.False(t, IsMarked('e'))
	assert.False(t, IsMarked('b'))
}
