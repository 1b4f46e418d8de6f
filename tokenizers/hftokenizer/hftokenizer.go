// Package hftokenizer implements api.TokenizerWithSpans for HuggingFace "tokenizer.json" files, the
// format of the HuggingFace Tokenizers library ("fast" tokenizers), with WordPiece (BERT), BPE
// (RoBERTa, PhoBERT) and Unigram models.
//
// Like the sentencepiece package, it is used to count the sub-word pieces of masked language model
// inputs, so that contexts can be clipped to what the model accepts. Normalizers and pre-tokenizers
// are interpreted only as far as needed to find the pieces and their spans in the original text.
package hftokenizer

import (
	"encoding/json"
	"os"
	"slices"
	"strings"
	"unicode"

	"github.com/gomlx/go-vnaug/tokenizers/api"
	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

// File is the subset of the tokenizer.json structure used.
type File struct {
	AddedTokens  []AddedToken  `json:"added_tokens"`
	Normalizer   *Normalizer   `json:"normalizer"`
	PreTokenizer *PreTokenizer `json:"pre_tokenizer"`
	Model        Model         `json:"model"`
}

// AddedToken is a token matched in the text before pre-tokenization, e.g. "<mask>".
type AddedToken struct {
	ID      int    `json:"id"`
	Content string `json:"content"`
	Special bool   `json:"special"`
}

// Normalizer configuration.
type Normalizer struct {
	Type         string       `json:"type"`
	Lowercase    bool         `json:"lowercase"`
	StripAccents *bool        `json:"strip_accents"`
	Normalizers  []Normalizer `json:"normalizers"`
}

// PreTokenizer configuration.
type PreTokenizer struct {
	Type           string         `json:"type"`
	AddPrefixSpace bool           `json:"add_prefix_space"`
	PrependScheme  string         `json:"prepend_scheme"`
	PreTokenizers  []PreTokenizer `json:"pretokenizers"`
}

// Model configuration. Vocab is an object (token -> id) for WordPiece and BPE, and a list of
// [token, score] pairs for Unigram. Merges are either "a b" strings or ["a", "b"] pairs.
type Model struct {
	Type                    string          `json:"type"`
	Vocab                   json.RawMessage `json:"vocab"`
	Merges                  json.RawMessage `json:"merges"`
	UnkToken                string          `json:"unk_token"`
	UnkID                   *int            `json:"unk_id"`
	ContinuingSubwordPrefix string          `json:"continuing_subword_prefix"`
	EndOfWordSuffix         string          `json:"end_of_word_suffix"`
	MaxInputCharsPerWord    int             `json:"max_input_chars_per_word"`
}

// Model types.
const (
	WordPiece = "WordPiece"
	BPE       = "BPE"
	Unigram   = "Unigram"
)

// metaSpace replaces spaces in Metaspace (SentencePiece-like) vocabularies.
const metaSpace = "▁"

// Tokenizer implements api.TokenizerWithSpans.
type Tokenizer struct {
	modelType  string
	vocab      map[string]int
	idToToken  map[int]string
	mergeRanks map[[2]string]int
	unkID      int

	added      []AddedToken // Longest content first.
	normalizer []func(string) string

	subwordPrefix string
	endOfWord     string
	maxChars      int

	splitPunctuation bool
	byteLevel        bool
	metaspace        bool
	prefixSpace      bool
}

// Compile time assert that Tokenizer implements api.TokenizerWithSpans.
var _ api.TokenizerWithSpans = &Tokenizer{}

// NewFromFile creates a tokenizer from a local tokenizer.json file.
func NewFromFile(filePath string) (*Tokenizer, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read tokenizer file %q", filePath)
	}
	t, err := NewFromContent(content)
	if err != nil {
		return nil, errors.WithMessagef(err, "tokenizer file %q", filePath)
	}
	return t, nil
}

// NewFromContent creates a tokenizer from the tokenizer.json content.
func NewFromContent(content []byte) (*Tokenizer, error) {
	var f File
	if err := json.Unmarshal(content, &f); err != nil {
		return nil, errors.Wrap(err, "failed to parse tokenizer.json")
	}
	t := &Tokenizer{
		modelType:     f.Model.Type,
		idToToken:     make(map[int]string),
		unkID:         -1,
		subwordPrefix: f.Model.ContinuingSubwordPrefix,
		endOfWord:     f.Model.EndOfWordSuffix,
		maxChars:      f.Model.MaxInputCharsPerWord,
	}
	if err := t.parseVocab(f.Model); err != nil {
		return nil, err
	}
	if t.modelType == BPE {
		if err := t.parseMerges(f.Model.Merges); err != nil {
			return nil, err
		}
	}
	if t.modelType == WordPiece && t.subwordPrefix == "" {
		t.subwordPrefix = "##"
	}
	if t.maxChars <= 0 {
		t.maxChars = 100
	}
	if id, found := t.vocab[f.Model.UnkToken]; found && f.Model.UnkToken != "" {
		t.unkID = id
	}
	if f.Model.UnkID != nil {
		t.unkID = *f.Model.UnkID
	}
	for _, at := range f.AddedTokens {
		if at.Content == "" {
			continue
		}
		t.added = append(t.added, at)
		t.idToToken[at.ID] = at.Content
	}
	slices.SortStableFunc(t.added, func(a, b AddedToken) int { return len(b.Content) - len(a.Content) })
	if f.Normalizer != nil {
		t.addNormalizer(*f.Normalizer)
	}
	if f.PreTokenizer != nil {
		t.configurePreTokenizer(*f.PreTokenizer)
	}
	return t, nil
}

func (t *Tokenizer) parseVocab(m Model) error {
	t.vocab = make(map[string]int)
	if len(m.Vocab) == 0 {
		return errors.New("tokenizer.json has no model vocabulary")
	}
	switch m.Type {
	case WordPiece, BPE:
		if err := json.Unmarshal(m.Vocab, &t.vocab); err != nil {
			return errors.Wrapf(err, "failed to parse %s vocabulary", m.Type)
		}
	case Unigram:
		var entries [][2]json.RawMessage
		if err := json.Unmarshal(m.Vocab, &entries); err != nil {
			return errors.Wrap(err, "failed to parse Unigram vocabulary")
		}
		for id, entry := range entries {
			var token string
			if err := json.Unmarshal(entry[0], &token); err != nil {
				return errors.Wrapf(err, "invalid Unigram vocabulary entry #%d", id)
			}
			t.vocab[token] = id
		}
	default:
		return errors.Errorf("unsupported tokenizer model type %q", m.Type)
	}
	for token, id := range t.vocab {
		t.idToToken[id] = token
	}
	return nil
}

func (t *Tokenizer) parseMerges(raw json.RawMessage) error {
	t.mergeRanks = make(map[[2]string]int)
	if len(raw) == 0 {
		return nil
	}
	var merges []json.RawMessage
	if err := json.Unmarshal(raw, &merges); err != nil {
		return errors.Wrap(err, "failed to parse BPE merges")
	}
	for rank, m := range merges {
		var pair [2]string
		var joined string
		if err := json.Unmarshal(m, &joined); err == nil {
			left, right, found := strings.Cut(joined, " ")
			if !found {
				return errors.Errorf("invalid BPE merge #%d %q", rank, joined)
			}
			pair = [2]string{left, right}
		} else if err := json.Unmarshal(m, &pair); err != nil {
			return errors.Wrapf(err, "invalid BPE merge #%d", rank)
		}
		if _, found := t.mergeRanks[pair]; !found {
			t.mergeRanks[pair] = rank
		}
	}
	return nil
}

func (t *Tokenizer) addNormalizer(n Normalizer) {
	switch n.Type {
	case "Lowercase":
		t.normalizer = append(t.normalizer, strings.ToLower)
	case "NFC":
		t.normalizer = append(t.normalizer, norm.NFC.String)
	case "NFD":
		t.normalizer = append(t.normalizer, norm.NFD.String)
	case "NFKC":
		t.normalizer = append(t.normalizer, norm.NFKC.String)
	case "NFKD":
		t.normalizer = append(t.normalizer, norm.NFKD.String)
	case "StripAccents":
		t.normalizer = append(t.normalizer, stripMarks)
	case "BertNormalizer":
		if n.Lowercase {
			t.normalizer = append(t.normalizer, strings.ToLower)
			if n.StripAccents == nil || *n.StripAccents {
				t.normalizer = append(t.normalizer, stripMarks)
			}
		} else if n.StripAccents != nil && *n.StripAccents {
			t.normalizer = append(t.normalizer, stripMarks)
		}
	case "Sequence":
		for _, child := range n.Normalizers {
			t.addNormalizer(child)
		}
	}
}

func (t *Tokenizer) configurePreTokenizer(pt PreTokenizer) {
	switch pt.Type {
	case "BertPreTokenizer", "Whitespace", "Punctuation", "Split":
		t.splitPunctuation = true
	case "ByteLevel":
		t.byteLevel = true
		t.prefixSpace = pt.AddPrefixSpace
	case "Metaspace":
		t.metaspace = true
		t.prefixSpace = pt.AddPrefixSpace || pt.PrependScheme == "always" || pt.PrependScheme == "first"
	case "Sequence":
		for _, child := range pt.PreTokenizers {
			t.configurePreTokenizer(child)
		}
	}
}

// stripMarks removes the combining marks of the NFD decomposition of s.
func stripMarks(s string) string {
	var sb strings.Builder
	for _, r := range norm.NFD.String(s) {
		if !unicode.Is(unicode.Mn, r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// ModelType returns the model type: WordPiece, BPE or Unigram.
func (t *Tokenizer) ModelType() string { return t.modelType }

// VocabSize returns the number of entries in the vocabulary, added tokens included.
func (t *Tokenizer) VocabSize() int { return len(t.idToToken) }

// TokenToID returns the id of a vocabulary or added token.
func (t *Tokenizer) TokenToID(token string) (int, bool) {
	for _, at := range t.added {
		if at.Content == token {
			return at.ID, true
		}
	}
	id, found := t.vocab[token]
	return id, found
}
