// Package accent simulates accent mistakes: dropped tone or shape marks ("missing"), text typed
// without any accent ("none"), and a wrong tone mark ("wrong").
package accent

import (
	"context"
	"strings"
	"unicode"

	"github.com/gomlx/go-vnaug/augment"
	"github.com/gomlx/go-vnaug/augment/diacritic"
	"github.com/gomlx/go-vnaug/tokenizers/words"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Name of the augmentation type.
const Name = "accent"

// Actions of the accent augmenter.
const (
	ActionMissing = "missing"
	ActionNone    = "none"
	ActionWrong   = "wrong"
)

// Strategy implements augment.Strategy for accent mistakes.
type Strategy struct{}

var _ augment.Strategy = Strategy{}

// New returns the accent augmenter.
func New() *augment.TokenAugmenter {
	return augment.NewTokenAugmenter(Name, Strategy{})
}

// Actions implements augment.Strategy.
func (Strategy) Actions() []string { return []string{ActionMissing, ActionNone, ActionWrong} }

// Eligible implements augment.Strategy: the token must hold a character the action can change.
func (Strategy) Eligible(action string, s words.Sentence, i int) bool {
	for _, r := range s.Tokens[i] {
		if len(Replacements(action, r)) > 0 {
			return true
		}
	}
	return false
}

// Transform implements augment.Strategy. Each changeable character of a selected token is replaced
// with probability Params.AugCharP; at least one character per token is replaced.
func (Strategy) Transform(_ context.Context, in augment.Input) ([]string, error) {
	s := in.Sentence
	for _, i := range in.Indices {
		chars := []rune(s.Tokens[i])
		var positions []int
		for ii, r := range chars {
			if len(Replacements(in.Action, r)) > 0 {
				positions = append(positions, ii)
			}
		}
		if len(positions) == 0 {
			continue
		}
		changed := false
		replace := func(ii int) {
			chars[ii] = diacritic.MatchCase(chars[ii], augment.Choice(Replacements(in.Action, chars[ii]), in.Rng))
			changed = true
		}
		for _, ii := range positions {
			if in.Rng.Float64() < in.Params.AugCharP {
				replace(ii)
			}
		}
		if !changed {
			replace(augment.Choice(positions, in.Rng))
		}
		s.Tokens[i] = string(chars)
	}
	return []string{s.String()}, nil
}

// Replacements returns the lower-case characters r can be replaced with by action. It is empty for
// characters the action doesn't apply to.
func Replacements(action string, r rune) []rune {
	l, ok := diacritic.Analyze(r)
	if !ok {
		return nil
	}
	switch action {
	case ActionMissing:
		var out []rune
		if l.Tone != diacritic.ToneLevel {
			if f, ok := diacritic.Form(l.Shape, diacritic.ToneLevel); ok {
				out = append(out, f)
			}
		}
		if diacritic.IsShaped(l.Shape) {
			if f, ok := diacritic.Form(diacritic.Plain(l.Shape), l.Tone); ok {
				out = append(out, f)
			} else {
				// 'đ' has no tone.
				out = append(out, diacritic.Plain(l.Shape))
			}
		}
		return out
	case ActionNone:
		if !diacritic.IsMarked(r) {
			return nil
		}
		return []rune(StripAccents(string(unicode.ToLower(r))))
	case ActionWrong:
		var out []rune
		if _, isVowel := diacritic.Form(l.Shape, l.Tone); !isVowel || !diacritic.IsMarked(r) {
			return nil
		}
		for tone := diacritic.ToneAcute; tone < diacritic.NumTones; tone++ {
			if tone == l.Tone {
				continue
			}
			f, _ := diacritic.Form(l.Shape, tone)
			out = append(out, f)
		}
		return out
	}
	return nil
}

// StripAccents removes every diacritic from text: tone and shape marks, and the stroke of 'đ'.
func StripAccents(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, text)
	if err != nil {
		stripped = text
	}
	return strings.NewReplacer("đ", "d", "Đ", "D").Replace(stripped)
}
