// Package typo simulates typing mistakes made with Vietnamese input methods: Telex or VNI modifier
// keystrokes left in the word, and slips to neighbouring keys of a QWERTY keyboard.
package typo

import (
	"context"
	"math/rand/v2"
	"unicode"

	"github.com/gomlx/go-vnaug/augment"
	"github.com/gomlx/go-vnaug/augment/diacritic"
	"github.com/gomlx/go-vnaug/tokenizers/words"
)

// Name of the augmentation type.
const Name = "typo"

// Actions of the typo augmenter.
const (
	ActionTelex    = "telex"
	ActionVNI      = "vni"
	ActionKeyboard = "keyboard"
)

// Keyboard errors are applied to between KeyboardMinChars and KeyboardMaxChars characters of a word.
const (
	KeyboardMinChars = 1
	KeyboardMaxChars = 10
)

// Strategy implements augment.Strategy for typos.
type Strategy struct{}

var _ augment.Strategy = Strategy{}

// New returns the typo augmenter.
func New() *augment.TokenAugmenter {
	return augment.NewTokenAugmenter(Name, Strategy{})
}

// Actions implements augment.Strategy.
func (Strategy) Actions() []string { return []string{ActionTelex, ActionVNI, ActionKeyboard} }

// Eligible implements augment.Strategy: input method typos need an accented character,
// keyboard typos any letter.
func (Strategy) Eligible(action string, s words.Sentence, i int) bool {
	token := s.Tokens[i]
	switch action {
	case ActionTelex:
		return diacritic.Telex.WordIsDecomposable(token)
	case ActionVNI:
		return diacritic.VNI.WordIsDecomposable(token)
	default:
		return words.HasLetter(token)
	}
}

// Transform implements augment.Strategy.
func (Strategy) Transform(_ context.Context, in augment.Input) ([]string, error) {
	s := in.Sentence
	for _, i := range in.Indices {
		switch in.Action {
		case ActionTelex:
			s.Tokens[i] = diacritic.Telex.WordError(s.Tokens[i], in.Rng)
		case ActionVNI:
			s.Tokens[i] = diacritic.VNI.WordError(s.Tokens[i], in.Rng)
		default:
			s.Tokens[i] = KeyboardError(s.Tokens[i], in.Params.AugCharP, in.Rng)
		}
	}
	return []string{s.String()}, nil
}

// KeyboardError decomposes the word with Telex, then replaces ceil(p*len) of its letters (at least
// KeyboardMinChars, at most KeyboardMaxChars) by a neighbouring key of a QWERTY keyboard.
func KeyboardError(word string, p float64, rng *rand.Rand) string {
	chars := []rune(diacritic.Telex.WordError(word, rng))
	indices := augment.CharIndices(len(chars), p, KeyboardMinChars, KeyboardMaxChars, func(i int) bool {
		_, ok := qwertyNeighbours[unicode.ToLower(chars[i])]
		return ok
	}, rng)
	for _, i := range indices {
		neighbours := qwertyNeighbours[unicode.ToLower(chars[i])]
		chars[i] = diacritic.MatchCase(chars[i], augment.Choice(neighbours, rng))
	}
	return string(chars)
}

// qwertyRows are the letter rows of a QWERTY keyboard. Each row is shifted right from the one above
// by less than a key.
var qwertyRows = []string{"qwertyuiop", "asdfghjkl", "zxcvbnm"}

// qwertyNeighbours maps each letter to the keys around it.
var qwertyNeighbours = func() map[rune][]rune {
	rows := make([][]rune, len(qwertyRows))
	for ii, row := range qwertyRows {
		rows[ii] = []rune(row)
	}
	at := func(row, col int) (rune, bool) {
		if row < 0 || row >= len(rows) || col < 0 || col >= len(rows[row]) {
			return 0, false
		}
		return rows[row][col], true
	}
	m := make(map[rune][]rune)
	for r, row := range rows {
		for c, key := range row {
			for _, pos := range [][2]int{{r, c - 1}, {r, c + 1}, {r - 1, c}, {r - 1, c + 1}, {r + 1, c - 1}, {r + 1, c}} {
				if n, ok := at(pos[0], pos[1]); ok {
					m[key] = append(m[key], n)
				}
			}
		}
	}
	return m
}()
