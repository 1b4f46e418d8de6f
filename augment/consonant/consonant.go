// Package consonant replaces the initial or final consonant cluster of a word with a commonly
// confused one, e.g. "trăng" -> "chăng" or "bạn" -> "bạng".
package consonant

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gomlx/go-vnaug/augment"
	"github.com/gomlx/go-vnaug/tokenizers/words"
)

// Name of the augmentation type.
const Name = "spelling_replace"

// Actions of the consonant replacement augmenter.
const (
	ActionBegin = "begin"
	ActionFinal = "final"
)

// maxClusterLen is the length, in characters, of the longest cluster.
const maxClusterLen = 3

// BeginConfusions maps initial consonant clusters to the clusters they are confused with.
var BeginConfusions = map[string][]string{
	"x":   {"s"},
	"s":   {"x"},
	"d":   {"đ", "gi", "r", "v"},
	"đ":   {"d"},
	"c":   {"k"},
	"k":   {"c", "kh"},
	"ngh": {"ng"},
	"ng":  {"ngh"},
	"gh":  {"g"},
	"g":   {"gh"},
	"gi":  {"d", "r", "v"},
	"v":   {"gi", "d"},
	"r":   {"d", "gi"},
	"tr":  {"ch"},
	"ch":  {"tr"},
	"n":   {"l"},
	"l":   {"n"},
	"kh":  {"k"},
	"qu":  {"u"},
	"u":   {"qu"},
	"nh":  {"nh"},
}

// FinalConfusions maps final consonants (and semi-vowels) to the ones they are confused with.
var FinalConfusions = map[string][]string{
	"c":  {"t"},
	"t":  {"c"},
	"n":  {"ng", "nh"},
	"ng": {"n"},
	"nh": {"n"},
	"i":  {"y"},
	"y":  {"i"},
}

// Strategy implements augment.Strategy for consonant cluster replacement.
type Strategy struct{}

var _ augment.Strategy = Strategy{}

// New returns the consonant replacement augmenter.
func New() *augment.TokenAugmenter {
	return augment.NewTokenAugmenter(Name, Strategy{})
}

// Actions implements augment.Strategy.
func (Strategy) Actions() []string { return []string{ActionBegin, ActionFinal} }

// Eligible implements augment.Strategy: the word must start (begin) or end (final) with a known cluster.
func (Strategy) Eligible(action string, s words.Sentence, i int) bool {
	_, cluster, _ := split(action, s.Tokens[i])
	return cluster != ""
}

// Transform implements augment.Strategy. The cluster of each selected token is replaced with
// probability Params.AugCharP.
func (Strategy) Transform(_ context.Context, in augment.Input) ([]string, error) {
	s := in.Sentence
	for _, i := range in.Indices {
		if in.Rng.Float64() >= in.Params.AugCharP {
			continue
		}
		head, cluster, tail := split(in.Action, s.Tokens[i])
		if cluster == "" {
			continue
		}
		if in.Action == ActionBegin {
			replacement := augment.Choice(BeginConfusions[strings.ToLower(cluster)], in.Rng)
			s.Tokens[i] = head + recaseBegin(cluster, replacement) + tail
		} else {
			replacement := augment.Choice(FinalConfusions[strings.ToLower(cluster)], in.Rng)
			s.Tokens[i] = head + recaseFinal(cluster, replacement) + tail
		}
	}
	return []string{s.String()}, nil
}

// split cuts token into head, cluster and tail, where cluster is the longest known initial (begin)
// or final cluster. Non-letters before (begin) or after (final) the word are left out of the match.
// cluster is empty if there is no match.
func split(action, token string) (head, cluster, tail string) {
	if !words.HasLetter(token) {
		return token, "", ""
	}
	if action == ActionBegin {
		start := strings.IndexFunc(token, unicode.IsLetter)
		prefix, word := token[:start], token[start:]
		chars := []rune(word)
		for n := min(maxClusterLen, len(chars)); n > 0; n-- {
			candidate := string(chars[:n])
			if _, ok := BeginConfusions[strings.ToLower(candidate)]; ok {
				return prefix, candidate, string(chars[n:])
			}
		}
		return token, "", ""
	}
	end := strings.LastIndexFunc(token, unicode.IsLetter)
	_, size := utf8.DecodeRuneInString(token[end:])
	word, suffix := token[:end+size], token[end+size:]
	chars := []rune(word)
	for n := min(maxClusterLen-1, len(chars)); n > 0; n-- {
		candidate := string(chars[len(chars)-n:])
		if _, ok := FinalConfusions[strings.ToLower(candidate)]; ok {
			return string(chars[:len(chars)-n]), candidate, suffix
		}
	}
	return token, "", ""
}

// recaseBegin: all upper-case clusters give an upper-case replacement, a capitalized cluster a
// capitalized one.
func recaseBegin(cluster, replacement string) string {
	if isAllUpper(cluster) {
		return strings.ToUpper(replacement)
	}
	if first, _ := utf8.DecodeRuneInString(cluster); unicode.IsUpper(first) {
		r, size := utf8.DecodeRuneInString(replacement)
		return string(unicode.ToUpper(r)) + replacement[size:]
	}
	return replacement
}

func recaseFinal(cluster, replacement string) string {
	if isAllUpper(cluster) {
		return strings.ToUpper(replacement)
	}
	return replacement
}

func isAllUpper(s string) bool {
	return s != "" && strings.IndexFunc(s, unicode.IsLower) < 0 && strings.IndexFunc(s, unicode.IsUpper) >= 0
}
