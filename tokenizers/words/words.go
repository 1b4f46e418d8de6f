// Package words splits text into word tokens and the gaps (separators) between them,
// such that the original text can always be rebuilt exactly.
//
// A token is a maximal run of word characters: letters, combining marks, digits and '_'.
// Everything else (spaces, punctuation, symbols) lives in the gaps.
//
// Example:
//
//	s := words.Split("Xin chào, bạn!")
//	// s.Tokens == []string{"Xin", "chào", "bạn"}
//	// s.Gaps   == []string{"", " ", ", ", "!"}
//	fmt.Println(s.String()) // "Xin chào, bạn!"
package words

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

// ErrPrecondition is returned (wrapped) when tokens and gaps are not consistent with a text.
var ErrPrecondition = errors.New("precondition failed")

// SegmentSeparator joins the syllables of a segmented (multi-syllable) word, e.g. "học_sinh".
const SegmentSeparator = "_"

// IsWordRune reports whether r is part of a token.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// Normalize returns text in Unicode NFC form, so precomposed Vietnamese letters are single runes.
func Normalize(text string) string {
	return norm.NFC.String(text)
}

// Tokenize splits text on non-word characters, dropping empty tokens.
func Tokenize(text string) []string {
	var tokens []string
	start := -1
	for pos, r := range text {
		if IsWordRune(r) {
			if start < 0 {
				start = pos
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, text[start:pos])
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, text[start:])
	}
	return tokens
}

// FindAllGaps returns the separators around tokens within text: gaps[i] is the text preceding
// tokens[i], and if there is non-empty text after the last token it is appended as a trailing gap.
//
// tokens must appear in text, in order, and the text before tokens[0] must not hold word characters.
// Otherwise, an error wrapping ErrPrecondition is returned.
func FindAllGaps(text string, tokens []string) ([]string, error) {
	gaps := make([]string, 0, len(tokens)+1)
	pos := 0
	for ii, token := range tokens {
		if token == "" {
			return nil, errors.Wrapf(ErrPrecondition, "token #%d is empty", ii)
		}
		found := strings.Index(text[pos:], token)
		if found < 0 {
			return nil, errors.Wrapf(ErrPrecondition, "token #%d %q not found in text after byte %d", ii, token, pos)
		}
		gap := text[pos : pos+found]
		if ii == 0 && strings.IndexFunc(gap, IsWordRune) >= 0 {
			return nil, errors.Wrapf(ErrPrecondition, "text %q doesn't start with first token %q", text, token)
		}
		gaps = append(gaps, gap)
		pos += found + len(token)
	}
	if pos < len(text) {
		gaps = append(gaps, text[pos:])
	}
	return gaps, nil
}

// ReverseTokenizer joins tokens and gaps back into text. It requires
// len(tokens) <= len(gaps) <= len(tokens)+1.
func ReverseTokenizer(tokens, gaps []string) (string, error) {
	diff := len(gaps) - len(tokens)
	if diff < 0 || diff > 1 {
		return "", errors.Wrapf(ErrPrecondition, "%d gaps can't be used with %d tokens", len(gaps), len(tokens))
	}
	var sb strings.Builder
	for ii, token := range tokens {
		sb.WriteString(gaps[ii])
		sb.WriteString(token)
	}
	if diff == 1 {
		sb.WriteString(gaps[len(gaps)-1])
	}
	return sb.String(), nil
}

// RevertSegmentedTokens splits segmented tokens ("học_sinh") into their syllables.
func RevertSegmentedTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if utf8.RuneCountInString(token) > 1 && strings.Contains(token, SegmentSeparator) {
			for _, part := range strings.Split(token, SegmentSeparator) {
				if part != "" {
					out = append(out, part)
				}
			}
			continue
		}
		out = append(out, token)
	}
	return out
}

// Unsegment replaces the segment separators inside tokens with spaces, leaving the gaps untouched.
func Unsegment(text string) string {
	s := Split(text)
	for ii, token := range s.Tokens {
		if utf8.RuneCountInString(token) > 1 {
			s.Tokens[ii] = strings.TrimSpace(strings.ReplaceAll(token, SegmentSeparator, " "))
		}
	}
	return s.String()
}

// IsPunctuation reports whether token is non-empty and made only of punctuation or symbols.
func IsPunctuation(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}

// HasLetter reports whether token holds at least one letter.
func HasLetter(token string) bool {
	return strings.IndexFunc(token, unicode.IsLetter) >= 0
}
