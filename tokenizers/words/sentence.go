package words

import (
	"slices"
	"strings"
)

// Sentence holds the tokens of a text and the gaps around them.
//
// Invariant: len(Gaps) == len(Tokens) or len(Gaps) == len(Tokens)+1. Gaps[i] precedes Tokens[i],
// and an optional last gap trails the last token.
type Sentence struct {
	Tokens []string
	Gaps   []string
}

// Split tokenizes text and finds its gaps. Tokens produced by Tokenize always satisfy
// FindAllGaps preconditions, so it never fails.
func Split(text string) Sentence {
	tokens := Tokenize(text)
	gaps, err := FindAllGaps(text, tokens)
	if err != nil {
		// Not reachable with Tokenize output: keep the text intact as a single gap.
		return Sentence{Gaps: []string{text}}
	}
	return Sentence{Tokens: tokens, Gaps: gaps}
}

// Len returns the number of tokens.
func (s Sentence) Len() int { return len(s.Tokens) }

// String rebuilds the text. If the invariant was broken, tokens are joined by spaces.
func (s Sentence) String() string {
	text, err := ReverseTokenizer(s.Tokens, s.Gaps)
	if err != nil {
		return strings.Join(s.Tokens, " ")
	}
	return text
}

// Clone returns a deep copy, safe to mutate.
func (s Sentence) Clone() Sentence {
	return Sentence{Tokens: slices.Clone(s.Tokens), Gaps: slices.Clone(s.Gaps)}
}

// Insert places token at position idx (0 <= idx <= Len()), separated from its neighbours by gap.
//
// When inserting before an existing token, the new token takes over that token's leading gap,
// and the pushed token is preceded by gap.
func (s *Sentence) Insert(idx int, token, gap string) {
	idx = max(0, min(idx, len(s.Tokens)))
	if len(s.Tokens) == 0 {
		gap = ""
	}
	s.Tokens = slices.Insert(s.Tokens, idx, token)
	if idx == len(s.Tokens)-1 {
		// Appended: the trailing gap, if any, stays trailing.
		s.Gaps = slices.Insert(s.Gaps, idx, gap)
		return
	}
	s.Gaps = slices.Insert(s.Gaps, idx+1, gap)
}

// Delete removes the token at idx together with one adjacent gap. The leading gap of the
// sentence is preserved.
func (s *Sentence) Delete(idx int) {
	if idx < 0 || idx >= len(s.Tokens) {
		return
	}
	s.Tokens = slices.Delete(s.Tokens, idx, idx+1)
	switch {
	case idx > 0:
		s.Gaps = slices.Delete(s.Gaps, idx, idx+1)
	case len(s.Gaps) > 1:
		s.Gaps = slices.Delete(s.Gaps, 1, 2)
	}
	if len(s.Gaps) > len(s.Tokens)+1 {
		s.Gaps = s.Gaps[:len(s.Tokens)+1]
	}
}

// Swap exchanges the tokens at i and j, keeping the gaps in place.
func (s Sentence) Swap(i, j int) {
	s.Tokens[i], s.Tokens[j] = s.Tokens[j], s.Tokens[i]
}
