package augment

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/gomlx/go-vnaug/tokenizers/words"
)

// PlaceholderPrefix starts every exclusion placeholder. Tokens containing a placeholder are never augmented.
const PlaceholderPrefix = "MASK"

// Exclusion maps one placeholder to the literal it protects.
type Exclusion struct {
	Key, Value string
}

// ExclusionMap lists placeholders in the order they were assigned.
type ExclusionMap []Exclusion

// span is one occurrence of literal k in the text, at [start, end).
type span struct {
	start, end, k int
}

// Mask replaces every occurrence of each excluded literal with a "MASK<n>" placeholder, in the order
// given, numbering from 0. Empty literals are skipped. Text and literals are compared in NFC form.
//
// All placeholders of a call have the same number of digits ("MASK00" ... "MASK11" for 12 literals), so
// a placeholder followed by a digit never reads as another placeholder. Occurrences are located in the
// original text: an earlier literal wins over an overlapping later one, and a literal never matches
// inside a placeholder.
func Mask(text string, exclude []string) (string, ExclusionMap) {
	text = words.Normalize(text)
	literals := make([]string, 0, len(exclude))
	for _, literal := range exclude {
		if literal != "" {
			literals = append(literals, words.Normalize(literal))
		}
	}
	if len(literals) == 0 {
		return text, ExclusionMap{}
	}

	width := len(strconv.Itoa(len(literals) - 1))
	m := make(ExclusionMap, len(literals))
	taken := make([]bool, len(text))
	var spans []span
	for k, literal := range literals {
		m[k] = Exclusion{Key: fmt.Sprintf("%s%0*d", PlaceholderPrefix, width, k), Value: literal}
		for pos := 0; pos <= len(text)-len(literal); {
			i := strings.Index(text[pos:], literal)
			if i < 0 {
				break
			}
			start, end := pos+i, pos+i+len(literal)
			if slices.Contains(taken[start:end], true) {
				pos = start + 1
				continue
			}
			for j := start; j < end; j++ {
				taken[j] = true
			}
			spans = append(spans, span{start, end, k})
			pos = end
		}
	}
	if len(spans) == 0 {
		return text, m
	}

	slices.SortFunc(spans, func(a, b span) int { return a.start - b.start })
	var sb strings.Builder
	last := 0
	for _, s := range spans {
		sb.WriteString(text[last:s.start])
		sb.WriteString(m[s.k].Key)
		last = s.end
	}
	sb.WriteString(text[last:])
	return sb.String(), m
}

// Unmask replaces every placeholder of m with its literal. Unknown placeholders are left as-is.
//
// Longer keys are replaced first, so "MASK1" never rewrites part of "MASK10".
func (m ExclusionMap) Unmask(text string) string {
	if len(m) == 0 {
		return text
	}
	sorted := slices.Clone(m)
	slices.SortStableFunc(sorted, func(a, b Exclusion) int { return len(b.Key) - len(a.Key) })
	pairs := make([]string, 0, 2*len(sorted))
	for _, e := range sorted {
		pairs = append(pairs, e.Key, e.Value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// Keys returns the placeholders, in assignment order.
func (m ExclusionMap) Keys() []string {
	keys := make([]string, len(m))
	for ii, e := range m {
		keys[ii] = e.Key
	}
	return keys
}

// IsPlaceholder reports whether token is (or starts like) an exclusion placeholder.
func IsPlaceholder(token string) bool {
	return strings.HasPrefix(token, PlaceholderPrefix)
}

// ContainsPlaceholder reports whether token holds a placeholder anywhere, e.g. "HàMASK0" when an
// excluded literal was glued to a word.
func ContainsPlaceholder(token string) bool {
	for rest := token; ; {
		i := strings.Index(rest, PlaceholderPrefix)
		if i < 0 {
			return false
		}
		rest = rest[i+len(PlaceholderPrefix):]
		if rest != "" && rest[0] >= '0' && rest[0] <= '9' {
			return true
		}
	}
}
