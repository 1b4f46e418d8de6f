// Package diacritic decomposes accented Vietnamese letters into the keystrokes of the Telex and VNI
// input methods, and uses that to generate realistic typing errors, e.g. "trường" -> "truwowfng"
// like typos: "truowng", "trwuofng".
package diacritic

import (
	"math/rand/v2"
	"strings"
	"unicode"

	"github.com/gomlx/go-vnaug/augment"
)

// Entry is the decomposition of an accented character (or of the "ươ" digraph family) into a base
// and 1 or 2 modifier keystrokes: the shape modifier first, then the tone.
type Entry struct {
	Base string
	Mods []string
}

// Codec is one input method.
type Codec struct {
	name string

	// toneKeys[tone] is the keystroke of the tone, empty for ToneLevel.
	toneKeys [NumTones]string
	// shapeKeys maps a shaped letter to its keystroke.
	shapeKeys map[rune]string

	entries map[string]Entry
	// compose is the inverse of entries, keyed by base+mods.
	compose map[string]string
	// reshape maps a base and a shape keystroke to the shaped base: ("o", "w") -> "ơ".
	reshape map[[2]string]string
}

// Digraphs are the "ươ" family, decomposed as a unit.
var Digraphs = []string{"ươ", "ướ", "ườ", "ưở", "ượ", "ưỡ"}

// digraphBase is the base of every digraph decomposition.
const digraphBase = "uo"

var (
	// Telex input method: "ấ" -> "a" + "a" + "s".
	Telex = newCodec("telex",
		[NumTones]string{"", "s", "f", "r", "x", "j"},
		map[rune]string{'â': "a", 'ă': "w", 'ê': "e", 'ô': "o", 'ơ': "w", 'ư': "w", 'đ': "d"})

	// VNI input method: "ấ" -> "a" + "6" + "1".
	VNI = newCodec("vni",
		[NumTones]string{"", "1", "2", "3", "4", "5"},
		map[rune]string{'â': "6", 'ă': "7", 'ê': "6", 'ô': "6", 'ơ': "7", 'ư': "7", 'đ': "9"})
)

func newCodec(name string, toneKeys [NumTones]string, shapeKeys map[rune]string) *Codec {
	c := &Codec{
		name:      name,
		toneKeys:  toneKeys,
		shapeKeys: shapeKeys,
		entries:   make(map[string]Entry),
		compose:   make(map[string]string),
		reshape:   make(map[[2]string]string),
	}
	for r, l := range letters {
		var mods []string
		if IsShaped(l.Shape) {
			mods = append(mods, shapeKeys[l.Shape])
		}
		if l.Tone != ToneLevel {
			mods = append(mods, toneKeys[l.Tone])
		}
		if len(mods) == 0 {
			continue
		}
		c.add(string(r), Entry{Base: string(Plain(l.Shape)), Mods: mods})
	}
	for shaped, key := range shapeKeys {
		c.reshape[[2]string{string(Plain(shaped)), key}] = string(shaped)
	}
	c.reshape[[2]string{digraphBase, shapeKeys['ư']}] = "ươ"
	for _, digraph := range Digraphs {
		l, _ := Analyze([]rune(digraph)[1])
		mods := []string{shapeKeys['ư']}
		if l.Tone != ToneLevel {
			mods = append(mods, toneKeys[l.Tone])
		}
		c.add(digraph, Entry{Base: digraphBase, Mods: mods})
	}
	return c
}

func (c *Codec) add(key string, e Entry) {
	c.entries[key] = e
	c.compose[e.Base+strings.Join(e.Mods, "")] = key
}

// Name of the input method.
func (c *Codec) Name() string { return c.name }

// Len returns the number of decomposable characters and digraphs.
func (c *Codec) Len() int { return len(c.entries) }

// Decompose returns the decomposition of an accented character or digraph, given in lower-case.
func (c *Codec) Decompose(s string) (Entry, bool) {
	e, ok := c.entries[s]
	return e, ok
}

// Compose is the inverse of Decompose: it returns the character (or digraph) typed by base followed
// by mods. The case of the result follows the case of base's first letter.
func (c *Codec) Compose(base string, mods ...string) (string, bool) {
	key := strings.ToLower(base + strings.Join(mods, ""))
	composed, ok := c.compose[key]
	if !ok {
		return "", false
	}
	if first := []rune(base); len(first) > 0 && unicode.IsUpper(first[0]) {
		composed = strings.ToUpper(composed)
	}
	return composed, true
}

// IsDecomposable reports whether r (in any case) has a decomposition.
func (c *Codec) IsDecomposable(r rune) bool {
	_, ok := c.entries[string(unicode.ToLower(r))]
	return ok
}

// WordIsDecomposable reports whether any character of word has a decomposition.
func (c *Codec) WordIsDecomposable(word string) bool {
	return strings.IndexFunc(word, c.IsDecomposable) >= 0
}

// containsDigraph reports whether word contains (case-sensitive) one of the Digraphs.
func containsDigraph(word string) bool {
	for _, d := range Digraphs {
		if strings.Contains(word, d) {
			return true
		}
	}
	return false
}

// WordError returns word with its first accented character (or "ươ" digraph) replaced by its
// decomposition, the modifiers being inserted at random positions:
//
//   - If the word contains a "ươ" digraph, the digraph starting at the first 'ư' is decomposed;
//     otherwise the first decomposable character is. Words without either are returned unchanged.
//   - With two modifiers, half of the time both are inserted separately ("ấ" -> "a" + "a" + "s").
//     Otherwise, the shape is kept on the base and only the tone is inserted ("ấ" -> "â" + "s").
//   - Modifiers follow the case of the decomposed character.
//   - Insert positions go from the base to one past the end of the word, with weights given by
//     PositionWeights.
func (c *Codec) WordError(word string, rng *rand.Rand) string {
	chars := []rune(word)
	var index int
	var source string
	if containsDigraph(word) {
		index = indexRune(chars, 'ư')
		if index < 0 {
			index = indexRune(chars, 'Ư')
		}
		if index < 0 || index+2 > len(chars) {
			return word
		}
		source = string(chars[index : index+2])
		if _, ok := c.entries[strings.ToLower(source)]; !ok {
			return word
		}
	} else {
		index = -1
		for ii, r := range chars {
			if c.IsDecomposable(r) {
				index = ii
				break
			}
		}
		if index < 0 {
			return word
		}
		source = string(chars[index])
	}
	entry := c.entries[strings.ToLower(source)]
	base, mods := entry.Base, append([]string(nil), entry.Mods...)

	twice := len(mods) != 1 && rng.Float64() < 0.5
	if !twice {
		base, mods = c.reduce(base, mods)
	}
	base, mods = recase(source, base, mods)
	insertBase(chars, index, base)
	if len(mods) > 0 {
		chars = insertRandom(chars, index, base, mods[0], rng)
		if twice {
			chars = insertRandom(chars, index, base, mods[1], rng)
		}
	}
	return string(chars)
}

// reduce moves the shape modifier back into the base, when there are two modifiers.
func (c *Codec) reduce(base string, mods []string) (string, []string) {
	if len(mods) == 1 {
		return base, mods
	}
	if shaped, ok := c.reshape[[2]string{base, mods[0]}]; ok {
		base = shaped
	}
	return base, mods[1:]
}

// recase applies the case of the source character(s) to base and mods.
func recase(source, base string, mods []string) (string, []string) {
	switch {
	case isUpper(source):
		base = strings.ToUpper(base)
		for ii, m := range mods {
			mods[ii] = strings.ToUpper(m)
		}
	case !isLower(source):
		// Mixed case digraph: case each half of the base individually.
		src, b := []rune(source), []rune(base)
		if len(src) == 2 && len(b) == 2 {
			for ii := range b {
				b[ii] = MatchCase(src[ii], b[ii])
			}
			base = string(b)
		}
	}
	return base, mods
}

// isUpper reports whether s has cased letters, all upper-case.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		cased = cased || unicode.IsUpper(r)
	}
	return cased
}

// isLower reports whether s has cased letters, all lower-case.
func isLower(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsUpper(r) {
			return false
		}
		cased = cased || unicode.IsLower(r)
	}
	return cased
}

func indexRune(chars []rune, r rune) int {
	for ii, c := range chars {
		if c == r {
			return ii
		}
	}
	return -1
}

// insertBase writes base over the decomposed character(s) at index.
func insertBase(chars []rune, index int, base string) {
	for ii, r := range []rune(base) {
		chars[index+ii] = r
	}
}

// insertRandom inserts mod at a position in [index, len(chars)+1], skipping the first half of a
// two-letter base, sampled with PositionWeights. Positions past the end append.
func insertRandom(chars []rune, index int, base, mod string, rng *rand.Rand) []rune {
	start := index
	if len([]rune(base)) == 2 {
		start++
	}
	n := len(chars) + 2 - start
	pos := start + augment.WeightedIndex(PositionWeights(n), rng)
	if pos >= len(chars) {
		return append(chars, []rune(mod)...)
	}
	out := make([]rune, 0, len(chars)+len(mod))
	out = append(out, chars[:pos]...)
	out = append(out, []rune(mod)...)
	return append(out, chars[pos:]...)
}

// PositionWeights returns the probabilities of the n candidate insert positions of a modifier:
// [1] for one position, [0.1, 0.9] for two; otherwise the second and last positions get 0.4 each and
// the rest share the remaining 0.2 evenly.
func PositionWeights(n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{1}
	case n == 2:
		return []float64{0.1, 0.9}
	}
	const edge = 0.4
	mid := n - 2
	other := (1 - 2*edge) / float64(mid)
	weights := make([]float64, n)
	for ii := range weights {
		weights[ii] = other
	}
	weights[1] = edge
	weights[n-1] = edge
	return weights
}
