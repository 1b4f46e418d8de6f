package char

import (
	"math/rand/v2"
	"slices"
	"strings"
	"unicode"

	"github.com/gomlx/go-vnaug/augment"
	"github.com/gomlx/go-vnaug/augment/diacritic"
)

// Character sampling bounds.
const (
	DuplicateMinChars = 0
	DuplicateMaxChars = 100

	RandomMinChars = 2
	RandomCharMin  = 1
	RandomCharMax  = 10
)

// randomOps are the operations picked by Random, with their probabilities.
var randomOps = []struct {
	weight float64
	op     func(token string, p float64, rng *rand.Rand) string
}{
	{0.4, func(token string, p float64, rng *rand.Rand) string {
		return Duplicate(token, p, RandomCharMin, RandomCharMax, rng)
	}},
	{0.3, Delete},
	{0.2, Swap},
	{0.1, Insert},
}

// Random applies a Telex typo to token, then one of Duplicate (40%), Delete (30%), Swap (20%)
// or Insert (10%).
func Random(token string, p float64, rng *rand.Rand) string {
	token = diacritic.Telex.WordError(token, rng)
	weights := make([]float64, len(randomOps))
	for ii, op := range randomOps {
		weights[ii] = op.weight
	}
	return randomOps[augment.WeightedIndex(weights, rng)].op(token, p, rng)
}

// Duplicate repeats ceil(p*len) characters of token (clipped to [minChars, maxChars]) next to themselves.
func Duplicate(token string, p float64, minChars, maxChars int, rng *rand.Rand) string {
	chars := []rune(token)
	indices := augment.CharIndices(len(chars), p, minChars, maxChars, nil, rng)
	slices.Sort(indices)
	slices.Reverse(indices)
	for _, i := range indices {
		chars = slices.Insert(chars, i, chars[i])
	}
	return string(chars)
}

// Delete removes ceil(p*len) characters of token, keeping at least one.
func Delete(token string, p float64, rng *rand.Rand) string {
	chars := []rune(token)
	if len(chars) < RandomMinChars {
		return token
	}
	indices := augment.CharIndices(len(chars), p, RandomCharMin, min(RandomCharMax, len(chars)-1), nil, rng)
	slices.Sort(indices)
	slices.Reverse(indices)
	for _, i := range indices {
		chars = slices.Delete(chars, i, i+1)
	}
	return string(chars)
}

// Swap exchanges ceil(p*len) characters of token with one of their neighbours.
func Swap(token string, p float64, rng *rand.Rand) string {
	chars := []rune(token)
	if len(chars) < RandomMinChars {
		return token
	}
	for _, i := range augment.CharIndices(len(chars), p, RandomCharMin, RandomCharMax, nil, rng) {
		j := i + 1
		if j == len(chars) || (i > 0 && rng.IntN(2) == 0) {
			j = i - 1
		}
		chars[i], chars[j] = chars[j], chars[i]
	}
	return string(chars)
}

// insertAlphabet are the characters Insert draws from.
const insertAlphabet = "abcdefghijklmnopqrstuvwxyz"

// Insert adds ceil(p*len) random lower-case ASCII letters into token.
func Insert(token string, p float64, rng *rand.Rand) string {
	chars := []rune(token)
	indices := augment.CharIndices(len(chars), p, RandomCharMin, RandomCharMax, nil, rng)
	slices.Sort(indices)
	slices.Reverse(indices)
	for _, i := range indices {
		chars = slices.Insert(chars, i, rune(insertAlphabet[rng.IntN(len(insertAlphabet))]))
	}
	return string(chars)
}

// Character classes used by Substitute.
var (
	vowels      = []string{"a", "â", "ă", "e", "ê", "o", "ô", "ơ", "u", "ư", "y"}
	consonants  = []string{"b", "d", "h", "l", "m", "n", "p", "r", "s", "t", "v", "x", "đ", "g", "k", "c"}
	digraphs    = []string{"tr", "th", "ch", "ph", "nh", "kh", "gi", "qu", "ng", "gh"}
	isVowel     = set(vowels)
	isConsonant = set(consonants)
	isDigraph   = set(digraphs)
)

func set(values []string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

// Substitute replaces each character of token, with probability p, by a random character of the same
// class: vowel, consonant, or two-letter consonant digraph (checked first). Case is kept per character.
func Substitute(token string, p float64, rng *rand.Rand) string {
	chars := []rune(token)
	var sb strings.Builder
	for i := 0; i < len(chars); i++ {
		c := chars[i]
		lower := string(unicode.ToLower(c))
		pair := ""
		if i+1 < len(chars) {
			pair = strings.ToLower(string(chars[i : i+2]))
		}
		if rng.Float64() >= p {
			sb.WriteRune(c)
			if isDigraph[pair] {
				sb.WriteRune(chars[i+1])
				i++
			}
			continue
		}
		switch {
		case isVowel[lower]:
			writeCased(&sb, c, augment.Choice(vowels, rng))
		case isDigraph[pair]:
			sub := []rune(augment.Choice(digraphs, rng))
			sb.WriteRune(diacritic.MatchCase(c, sub[0]))
			sb.WriteRune(diacritic.MatchCase(chars[i+1], sub[1]))
			i++
		case isConsonant[lower]:
			writeCased(&sb, c, augment.Choice(consonants, rng))
		default:
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

func writeCased(sb *strings.Builder, model rune, s string) {
	for _, r := range s {
		sb.WriteRune(diacritic.MatchCase(model, r))
	}
}
