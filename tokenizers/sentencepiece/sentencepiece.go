// Package sentencepiece implements an api.TokenizerWithSpans based on a SentencePiece model, and uses it
// to clip masked-language-model contexts to the number of pieces the model accepts.
package sentencepiece

import (
	"strings"

	esentencepiece "github.com/eliben/go-sentencepiece"
	"github.com/gomlx/go-vnaug/tokenizers/api"
	"github.com/pkg/errors"
)

// New creates a SentencePiece tokenizer from a "tokenizer.model" / "sentencepiece.bpe.model" file, which
// must be a SentencePiece Model proto.
func New(modelPath string) (*Tokenizer, error) {
	proc, err := esentencepiece.NewProcessorFromPath(modelPath)
	if err != nil {
		return nil, errors.Wrapf(err, "can't create sentencepiece tokenizer from %q", modelPath)
	}
	return &Tokenizer{
		Processor: proc,
		Info:      proc.ModelInfo(),
	}, nil
}

// Tokenizer implements api.TokenizerWithSpans based on SentencePiece tokenizer by Google.
type Tokenizer struct {
	*esentencepiece.Processor
	Info *esentencepiece.ModelInfo
}

// Compile time assert that sentencepiece.Tokenizer implements api.TokenizerWithSpans interface.
var _ api.TokenizerWithSpans = &Tokenizer{}

// Encode returns the text encoded into a sequence of ids.
func (p *Tokenizer) Encode(text string) []int {
	tokens := p.Processor.Encode(text)
	ids := make([]int, len(tokens))
	for ii, t := range tokens {
		ids[ii] = t.ID
	}
	return ids
}

// Decode returns the text from a sequence of ids.
func (p *Tokenizer) Decode(ids []int) string {
	return p.Processor.Decode(ids)
}

// metaSpace is the SentencePiece replacement for a space (U+2581).
const metaSpace = "▁"

// EncodeWithSpans returns tokens along with their byte spans in text.
func (p *Tokenizer) EncodeWithSpans(text string) api.EncodingResult {
	tokens := p.Processor.Encode(text)
	pieces := make([]string, len(tokens))
	ids := make([]int, len(tokens))
	for ii, tok := range tokens {
		ids[ii] = tok.ID
		pieces[ii] = tok.Text
	}
	return api.EncodingResult{IDs: ids, Spans: alignPieces(text, pieces)}
}

// alignPieces maps each piece to its byte span in text. Pieces starting with the metaspace
// skip the whitespace preceding them; pieces that can't be found take an empty span at the
// current position.
func alignPieces(text string, pieces []string) []api.TokenSpan {
	spans := make([]api.TokenSpan, len(pieces))
	pos := 0
	for ii, piece := range pieces {
		matchPiece, hasLeadingSpace := strings.CutPrefix(piece, metaSpace)
		if hasLeadingSpace {
			for pos < len(text) && strings.ContainsRune(" \t\n\r", rune(text[pos])) {
				pos++
			}
		}
		if matchPiece == "" {
			spans[ii] = api.TokenSpan{Start: pos, End: pos}
			continue
		}
		found := strings.Index(text[pos:], matchPiece)
		if found < 0 {
			spans[ii] = api.TokenSpan{Start: pos, End: pos}
			continue
		}
		start := pos + found
		pos = start + len(matchPiece)
		spans[ii] = api.TokenSpan{Start: start, End: pos}
	}
	return spans
}

// Clip returns the largest slice of text around the first occurrence of anchor that encodes to at
// most maxPieces pieces. If text already fits, or anchor is not found, it is returned unchanged
// (truncated from the end in the latter case).
func Clip(tok api.TokenizerWithSpans, text, anchor string, maxPieces int) string {
	if maxPieces <= 0 {
		return text
	}
	enc := tok.EncodeWithSpans(text)
	if len(enc.Spans) <= maxPieces {
		return text
	}
	anchorPos := strings.Index(text, anchor)
	lo, hi := windowAround(enc.Spans, anchorPos, maxPieces)
	start, end := enc.Spans[lo].Start, enc.Spans[hi-1].End
	if lo == 0 {
		start = 0
	}
	if hi == len(enc.Spans) {
		end = len(text)
	}
	return text[start:end]
}

// windowAround returns the range [lo, hi) of at most size spans, centered on the span covering the
// byte offset anchor. A negative anchor selects the first spans.
func windowAround(spans []api.TokenSpan, anchor, size int) (lo, hi int) {
	if len(spans) <= size {
		return 0, len(spans)
	}
	center := 0
	if anchor >= 0 {
		for ii, span := range spans {
			if span.Start <= anchor {
				center = ii
			}
		}
	}
	lo = max(0, center-size/2)
	hi = lo + size
	if hi > len(spans) {
		hi = len(spans)
		lo = hi - size
	}
	return lo, hi
}
