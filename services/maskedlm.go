package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/gomlx/go-vnaug/augment/synonym"
	"github.com/gomlx/go-vnaug/cache"
)

// MaskedLM is a client of a fill-mask service: POST {"text", "topk"} returns the list of candidates
// [{"token_str", "score"}], best first.
type MaskedLM struct {
	c      *client
	caller *cache.Caller[[]string]
}

var _ synonym.MaskedLM = &MaskedLM{}

// NewMaskedLM creates a fill-mask client for the given endpoint.
func NewMaskedLM(endpoint string, opts Options) (*MaskedLM, error) {
	opts = opts.withDefaults()
	c, err := newClient("masked_lm", endpoint, opts.Timeout)
	if err != nil {
		return nil, err
	}
	caller, err := newCaller[[]string](c, opts)
	if err != nil {
		return nil, err
	}
	return &MaskedLM{c: c, caller: caller}, nil
}

type fillMaskRequest struct {
	Text string `json:"text"`
	TopK int    `json:"topk"`
}

type fillMaskCandidate struct {
	TokenStr string  `json:"token_str"`
	Score    float64 `json:"score"`
}

// FillMask implements synonym.MaskedLM.
func (m *MaskedLM) FillMask(ctx context.Context, text string, topK int) ([]string, error) {
	key := fmt.Sprintf("%d|%s", topK, text)
	fills, ok := m.caller.Do(ctx, key, func(ctx context.Context) ([]string, error) {
		var resp []fillMaskCandidate
		if err := m.c.postJSON(ctx, "", fillMaskRequest{Text: text, TopK: topK}, &resp); err != nil {
			return nil, err
		}
		fills := make([]string, 0, len(resp))
		for _, candidate := range resp {
			if token := strings.TrimSpace(candidate.TokenStr); token != "" {
				fills = append(fills, token)
			}
		}
		return fills, nil
	})
	if !ok {
		return nil, noResult(m.c.name, key)
	}
	return fills, nil
}
