// Package api defines the interfaces of the tokenizers used around augmentation: word segmentation
// of Vietnamese text, and sub-word tokenizers used to budget masked language model inputs.
//
// It only holds interfaces and small types, so that implementations (remote services, local models)
// and their users can depend on it without depending on each other.
package api

import "context"

// Segmenter joins the syllables of multi-syllable Vietnamese words with "_", e.g.
// "học sinh giỏi" -> "học_sinh giỏi".
//
// Implementations must keep any "MASK<n>" placeholder as a single word.
type Segmenter interface {
	Segment(ctx context.Context, text string) (string, error)
}

// SegmenterFunc adapts a function to a Segmenter.
type SegmenterFunc func(ctx context.Context, text string) (string, error)

// Segment implements Segmenter.
func (fn SegmenterFunc) Segment(ctx context.Context, text string) (string, error) {
	return fn(ctx, text)
}

// TokenSpan represents the byte span of a token in the original text.
// Start and End are byte offsets (not rune offsets), suitable for slicing
// Go strings directly: originalText[span.Start:span.End].
type TokenSpan struct {
	Start int // start byte position (inclusive)
	End   int // end byte position (exclusive)
}

// Tokenizer converts text to sub-word ids and back.
type Tokenizer interface {
	Encode(text string) []int
	Decode([]int) string
}

// TokenizerWithSpans extends Tokenizer with span tracking: it is what allows trimming
// a text to a number of sub-word tokens without cutting a token in the middle.
type TokenizerWithSpans interface {
	Tokenizer
	// EncodeWithSpans returns tokens along with their byte spans in the original text.
	EncodeWithSpans(text string) EncodingResult
}

// EncodingResult contains tokens with their spans in the original text.
type EncodingResult struct {
	IDs   []int       // token IDs
	Spans []TokenSpan // byte spans for each token (use originalText[span.Start:span.End] to extract)
}
