package hftokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gomlx/go-vnaug/tokenizers/api"
)

// word is a pre-token: a span of the original text.
type word struct {
	span         api.TokenSpan
	leadingSpace bool
	addedID      int // -1 unless the word is an added token.
}

// piece is a vocabulary entry matched in a word, with the number of bytes of the normalized word it covers.
type piece struct {
	id   int
	size int
}

// Encode implements api.Tokenizer.
func (t *Tokenizer) Encode(text string) []int {
	return t.EncodeWithSpans(text).IDs
}

// EncodeWithSpans implements api.TokenizerWithSpans. Pieces of a word share out the word's span in
// order; normalization changing the byte length of a word may shift the inner boundaries, but every
// span stays within its word.
func (t *Tokenizer) EncodeWithSpans(text string) api.EncodingResult {
	var res api.EncodingResult
	for ii, w := range t.words(text) {
		if w.addedID >= 0 {
			res.IDs = append(res.IDs, w.addedID)
			res.Spans = append(res.Spans, w.span)
			continue
		}
		leading := w.leadingSpace || (ii == 0 && t.prefixSpace)
		pieces := t.tokenizeWord(t.normalize(text[w.span.Start:w.span.End]), leading)
		offset := w.span.Start
		for jj, p := range pieces {
			start := min(offset, w.span.End)
			end := min(offset+p.size, w.span.End)
			if jj == len(pieces)-1 {
				end = w.span.End
			}
			res.IDs = append(res.IDs, p.id)
			res.Spans = append(res.Spans, api.TokenSpan{Start: start, End: end})
			offset = end
		}
	}
	return res
}

func (t *Tokenizer) normalize(s string) string {
	for _, fn := range t.normalizer {
		s = fn(s)
	}
	return s
}

// words splits text on whitespace and, if configured, around punctuation. Added tokens are matched
// first and are never split.
func (t *Tokenizer) words(text string) []word {
	var words []word
	start := -1
	afterSpace := false
	startAfterSpace := false
	flush := func(end int) {
		if start >= 0 {
			words = append(words, word{span: api.TokenSpan{Start: start, End: end}, leadingSpace: startAfterSpace, addedID: -1})
			start = -1
		}
	}
	for pos := 0; pos < len(text); {
		if at, found := t.addedAt(text[pos:]); found {
			flush(pos)
			end := pos + len(at.Content)
			words = append(words, word{span: api.TokenSpan{Start: pos, End: end}, leadingSpace: afterSpace, addedID: at.ID})
			pos, afterSpace = end, false
			continue
		}
		r, size := utf8.DecodeRuneInString(text[pos:])
		switch {
		case unicode.IsSpace(r):
			flush(pos)
			afterSpace = true
		case t.splitPunctuation && isPunctuation(r):
			flush(pos)
			words = append(words, word{span: api.TokenSpan{Start: pos, End: pos + size}, leadingSpace: afterSpace, addedID: -1})
			afterSpace = false
		default:
			if start < 0 {
				start, startAfterSpace = pos, afterSpace
			}
			afterSpace = false
		}
		pos += size
	}
	flush(len(text))
	return words
}

func (t *Tokenizer) addedAt(s string) (AddedToken, bool) {
	for _, at := range t.added {
		if strings.HasPrefix(s, at.Content) {
			return at, true
		}
	}
	return AddedToken{}, false
}

func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

// tokenizeWord returns the pieces of a normalized word. leading tells whether the word follows a space,
// which byte-level and metaspace vocabularies encode in the first piece.
func (t *Tokenizer) tokenizeWord(w string, leading bool) []piece {
	if w == "" {
		return nil
	}
	var prefix string
	switch {
	case t.byteLevel:
		if leading {
			w = " " + w
		}
		var sb strings.Builder
		for ii := 0; ii < len(w); ii++ {
			sb.WriteRune(byteToUnicode[w[ii]])
		}
		w = sb.String()
		if leading {
			prefix = string(byteToUnicode[' '])
		}
	case t.metaspace && leading:
		w = metaSpace + w
		prefix = metaSpace
	}

	var tokens []string
	switch t.modelType {
	case WordPiece:
		tokens = t.wordPiece(w)
	case BPE:
		tokens = t.bpe(w)
	default:
		tokens = t.unigram(w)
	}

	pieces := make([]piece, 0, len(tokens))
	for ii, token := range tokens {
		id, found := t.vocab[token]
		if !found {
			if t.unkID < 0 {
				continue
			}
			id = t.unkID
		}
		surface := token
		if ii == 0 {
			surface = strings.TrimPrefix(surface, prefix)
		} else if t.modelType == WordPiece {
			surface = strings.TrimPrefix(surface, t.subwordPrefix)
		}
		if t.endOfWord != "" {
			surface = strings.TrimSuffix(surface, t.endOfWord)
		}
		size := len(surface)
		if t.byteLevel {
			size = utf8.RuneCountInString(surface)
		}
		pieces = append(pieces, piece{id: id, size: size})
	}
	return pieces
}

// wordPiece splits w greedily in longest vocabulary entries. Words that can't be split entirely are
// unknown.
func (t *Tokenizer) wordPiece(w string) []string {
	if utf8.RuneCountInString(w) > t.maxChars {
		return []string{""}
	}
	var tokens []string
	for start := 0; start < len(w); {
		end := len(w)
		var match string
		for start < end {
			candidate := w[start:end]
			if start > 0 {
				candidate = t.subwordPrefix + candidate
			}
			if _, found := t.vocab[candidate]; found {
				match = candidate
				break
			}
			_, size := utf8.DecodeLastRuneInString(w[:end])
			end -= size
		}
		if match == "" {
			return []string{""}
		}
		tokens = append(tokens, match)
		start = end
	}
	return tokens
}

// bpe applies the merges, lowest rank first, to the characters of w.
func (t *Tokenizer) bpe(w string) []string {
	var symbols []string
	for _, r := range w {
		symbols = append(symbols, string(r))
	}
	if t.endOfWord != "" {
		symbols[len(symbols)-1] += t.endOfWord
	}
	for len(symbols) > 1 {
		best, bestRank := -1, 0
		for ii := 0; ii+1 < len(symbols); ii++ {
			rank, found := t.mergeRanks[[2]string{symbols[ii], symbols[ii+1]}]
			if found && (best < 0 || rank < bestRank) {
				best, bestRank = ii, rank
			}
		}
		if best < 0 {
			break
		}
		symbols[best] += symbols[best+1]
		symbols = append(symbols[:best+1], symbols[best+2:]...)
	}
	return symbols
}

// unigram splits w greedily in longest vocabulary entries, falling back to single characters.
func (t *Tokenizer) unigram(w string) []string {
	var tokens []string
	for start := 0; start < len(w); {
		end := len(w)
		for end > start {
			if _, found := t.vocab[w[start:end]]; found {
				break
			}
			_, size := utf8.DecodeLastRuneInString(w[:end])
			end -= size
		}
		if end == start {
			_, size := utf8.DecodeRuneInString(w[start:])
			end = start + size
		}
		tokens = append(tokens, w[start:end])
		start = end
	}
	return tokens
}

// Decode implements api.Tokenizer.
func (t *Tokenizer) Decode(ids []int) string {
	tokens := make([]string, 0, len(ids))
	for _, id := range ids {
		if token, found := t.idToToken[id]; found {
			tokens = append(tokens, token)
		}
	}
	switch {
	case t.byteLevel:
		var buf []byte
		for _, r := range strings.Join(tokens, "") {
			if b, found := unicodeToByte[r]; found {
				buf = append(buf, b)
			} else {
				buf = utf8.AppendRune(buf, r)
			}
		}
		return strings.TrimSpace(string(buf))
	case t.metaspace:
		return strings.TrimSpace(strings.ReplaceAll(strings.Join(tokens, ""), metaSpace, " "))
	case t.modelType == WordPiece:
		return strings.ReplaceAll(strings.Join(tokens, " "), " "+t.subwordPrefix, "")
	case t.endOfWord != "":
		return strings.TrimSpace(strings.ReplaceAll(strings.Join(tokens, ""), t.endOfWord, " "))
	default:
		return strings.Join(tokens, " ")
	}
}

// GPT-2 byte-level mapping: printable bytes map to themselves, the others to runes from 256 on.
var (
	byteToUnicode [256]rune
	unicodeToByte = make(map[rune]byte, 256)
)

func init() {
	n := 0
	for b := range 256 {
		r := rune(b)
		if !((b >= '!' && b <= '~') || (b >= 0xa1 && b <= 0xac) || (b >= 0xae && b <= 0xff)) {
			r = rune(256 + n)
			n++
		}
		byteToUnicode[b] = r
		unicodeToByte[r] = byte(b)
	}
}
