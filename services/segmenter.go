package services

import (
	"context"
	"net/url"
	"strings"

	"github.com/gomlx/go-vnaug/cache"
	"github.com/gomlx/go-vnaug/tokenizers/api"
	"github.com/pkg/errors"
)

// Segmenter is a client of a VnCoreNLP server: POST /handle with the form values text and props=wseg
// returns {"sentences": [[{"form": ...}, ...], ...]}, with multi-syllable words joined by "_".
type Segmenter struct {
	c      *client
	caller *cache.Caller[string]
}

var _ api.Segmenter = &Segmenter{}

// SegmenterPath is the VnCoreNLP server handler.
const SegmenterPath = "/handle"

// NewSegmenter creates a word segmentation client for the VnCoreNLP server at address, e.g.
// "http://localhost:9000".
func NewSegmenter(address string, opts Options) (*Segmenter, error) {
	opts = opts.withDefaults()
	c, err := newClient("segmenter", address, opts.Timeout)
	if err != nil {
		return nil, err
	}
	caller, err := newCaller[string](c, opts)
	if err != nil {
		return nil, err
	}
	return &Segmenter{c: c, caller: caller}, nil
}

type segmentResponse struct {
	Status    bool   `json:"status"`
	Error     string `json:"error,omitempty"`
	Sentences [][]struct {
		Form string `json:"form"`
	} `json:"sentences"`
}

// Segment implements api.Segmenter: words of all sentences are joined by spaces.
func (s *Segmenter) Segment(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	segmented, ok := s.caller.Do(ctx, text, func(ctx context.Context) (string, error) {
		var resp segmentResponse
		form := url.Values{"text": {text}, "props": {"wseg"}}
		if err := s.c.postForm(ctx, SegmenterPath, form, &resp); err != nil {
			return "", err
		}
		if resp.Error != "" {
			return "", errors.Wrapf(ErrExternal, "segmenter: %s", resp.Error)
		}
		var forms []string
		for _, sentence := range resp.Sentences {
			for _, w := range sentence {
				forms = append(forms, w.Form)
			}
		}
		if len(forms) == 0 {
			return "", errors.Wrapf(ErrExternal, "segmenter: no word in response for %q", text)
		}
		return strings.Join(forms, " "), nil
	})
	if !ok {
		return "", noResult(s.c.name, text)
	}
	return segmented, nil
}
