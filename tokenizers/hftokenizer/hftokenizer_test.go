package hftokenizer

import (
	"testing"

	"github.com/gomlx/go-vnaug/tokenizers/api"
	"github.com/gomlx/go-vnaug/tokenizers/sentencepiece"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wordPieceJSON = `{
  "added_tokens": [{"id": 9, "content": "<mask>", "special": true}],
  "normalizer": {"type": "BertNormalizer", "lowercase": true, "strip_accents": false},
  "pre_tokenizer": {"type": "BertPreTokenizer"},
  "model": {
    "type": "WordPiece",
    "unk_token": "[UNK]",
    "vocab": {"[UNK]": 0, "tôi": 1, "đi": 2, "họ": 3, "##c": 4, ",": 5, "học": 6, "sinh": 7}
  }
}`

func texts(text string, spans []api.TokenSpan) []string {
	out := make([]string, len(spans))
	for ii, s := range spans {
		out[ii] = text[s.Start:s.End]
	}
	return out
}

func TestWordPiece(t *testing.T) {
	tok, err := NewFromContent([]byte(wordPieceJSON))
	require.NoError(t, err)
	assert.Equal(t, WordPiece, tok.ModelType())

	text := "Tôi đi họ<mask>, xyz"
	res := tok.EncodeWithSpans(text)
	// "họ" is matched whole; "xyz" is unknown.
	assert.Equal(t, []int{1, 2, 3, 9, 5, 0}, res.IDs)
	assert.Equal(t, []string{"Tôi", "đi", "họ", "<mask>", ",", "xyz"}, texts(text, res.Spans))

	res = tok.EncodeWithSpans("họcc")
	assert.Equal(t, []int{6, 4}, res.IDs)
	assert.Equal(t, []string{"học", "c"}, texts("họcc", res.Spans))
	assert.Equal(t, "học sinh", tok.Decode([]int{6, 7}))
	assert.Equal(t, "họcc", tok.Decode([]int{6, 4}))

	id, found := tok.TokenToID("<mask>")
	assert.True(t, found)
	assert.Equal(t, 9, id)
}

func TestBPE(t *testing.T) {
	tok, err := NewFromContent([]byte(`{
	  "pre_tokenizer": {"type": "ByteLevel", "add_prefix_space": false},
	  "model": {
	    "type": "BPE",
	    "vocab": {"a": 0, "b": 1, "c": 2, "Ġ": 3, "ab": 4, "abc": 5, "Ġa": 6, "Ġab": 7},
	    "merges": ["Ġ a", "a b", ["ab", "c"], "Ġa b"]
	  }
	}`))
	require.NoError(t, err)
	text := "abc ab"
	res := tok.EncodeWithSpans(text)
	assert.Equal(t, []int{5, 7}, res.IDs)
	assert.Equal(t, []string{"abc", "ab"}, texts(text, res.Spans))
	assert.Equal(t, "abc ab", tok.Decode(res.IDs))
}

func TestUnigramMetaspace(t *testing.T) {
	tok, err := NewFromContent([]byte(`{
	  "pre_tokenizer": {"type": "Metaspace", "prepend_scheme": "always"},
	  "model": {
	    "type": "Unigram",
	    "unk_id": 0,
	    "vocab": [["<unk>", 0], ["▁xin", -1], ["▁ch", -2], ["ào", -2], ["▁", -3]]
	  }
	}`))
	require.NoError(t, err)
	text := "xin chào bạn"
	res := tok.EncodeWithSpans(text)
	assert.Equal(t, []int{1, 2, 3, 4, 0, 0, 0}, res.IDs)
	assert.Equal(t, "xin", texts(text, res.Spans)[0])
	assert.Equal(t, []string{"ch", "ào"}, texts(text, res.Spans)[1:3])
	assert.Equal(t, "xin chào", tok.Decode([]int{1, 2, 3}))
}

func TestClip(t *testing.T) {
	tok, err := NewFromContent([]byte(wordPieceJSON))
	require.NoError(t, err)
	text := "tôi đi học, tôi đi học, tôi <mask> học, tôi đi học"
	clipped := sentencepiece.Clip(tok, text, "<mask>", 5)
	assert.Contains(t, clipped, "<mask>")
	assert.LessOrEqual(t, len(tok.Encode(clipped)), 5)
}

func TestInvalid(t *testing.T) {
	_, err := NewFromContent([]byte(`{"model": {"type": "Mystery", "vocab": {}}}`))
	require.Error(t, err)
	_, err = NewFromContent([]byte(`{"model": {"type": "BPE", "vocab": {"a": 0}, "merges": ["ab"]}}`))
	require.Error(t, err)
	_, err = NewFromContent([]byte(`not json`))
	require.Error(t, err)
}
