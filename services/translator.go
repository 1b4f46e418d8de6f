package services

import (
	"context"
	"strings"

	"github.com/gomlx/go-vnaug/augment/backtranslation"
	"github.com/gomlx/go-vnaug/cache"
	"github.com/pkg/errors"
)

// Translator is a client of a LibreTranslate compatible service: POST {q, source, target, format}
// returns {translatedText}.
type Translator struct {
	c      *client
	caller *cache.Caller[string]
}

var _ backtranslation.Translator = &Translator{}

// NewTranslator creates a translation client for the given endpoint, e.g. "http://localhost:5000/translate".
func NewTranslator(endpoint string, opts Options) (*Translator, error) {
	opts = opts.withDefaults()
	c, err := newClient("translator", endpoint, opts.Timeout)
	if err != nil {
		return nil, err
	}
	caller, err := newCaller[string](c, opts)
	if err != nil {
		return nil, err
	}
	return &Translator{c: c, caller: caller}, nil
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error,omitempty"`
}

// Translate implements backtranslation.Translator.
func (t *Translator) Translate(ctx context.Context, text, source, target string) (string, error) {
	key := source + "|" + target + "|" + text
	translated, ok := t.caller.Do(ctx, key, func(ctx context.Context) (string, error) {
		var resp translateResponse
		err := t.c.postJSON(ctx, "", translateRequest{Q: text, Source: source, Target: target, Format: "text"}, &resp)
		if err != nil {
			return "", err
		}
		if resp.Error != "" {
			return "", errors.Wrapf(ErrExternal, "translator: %s", resp.Error)
		}
		if strings.TrimSpace(resp.TranslatedText) == "" {
			return "", errors.Wrap(ErrExternal, "translator: empty translation")
		}
		return resp.TranslatedText, nil
	})
	if !ok {
		return "", noResult(t.c.name, key)
	}
	return translated, nil
}
