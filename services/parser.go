package services

import (
	"context"

	"github.com/gomlx/go-vnaug/augment/deptree"
	"github.com/gomlx/go-vnaug/cache"
	"github.com/pkg/errors"
)

// DepParser is a client of a dependency parsing service: POST {"text"} returns the list of
// {form, index, head, depLabel} of the words.
type DepParser struct {
	c      *client
	caller *cache.Caller[[]deptree.Annotation]
}

var _ deptree.Parser = &DepParser{}

// NewDepParser creates a dependency parsing client for the given endpoint.
func NewDepParser(endpoint string, opts Options) (*DepParser, error) {
	opts = opts.withDefaults()
	c, err := newClient("dep_parser", endpoint, opts.Timeout)
	if err != nil {
		return nil, err
	}
	caller, err := newCaller[[]deptree.Annotation](c, opts)
	if err != nil {
		return nil, err
	}
	return &DepParser{c: c, caller: caller}, nil
}

// Annotate implements deptree.Parser.
func (p *DepParser) Annotate(ctx context.Context, text string) ([]deptree.Annotation, error) {
	annotations, ok := p.caller.Do(ctx, text, func(ctx context.Context) ([]deptree.Annotation, error) {
		var resp []deptree.Annotation
		if err := p.c.postJSON(ctx, "", map[string]string{"text": text}, &resp); err != nil {
			return nil, err
		}
		if len(resp) == 0 {
			return nil, errors.Wrapf(ErrExternal, "dep_parser: no annotation for %q", text)
		}
		return resp, nil
	})
	if !ok {
		return nil, noResult(p.c.name, text)
	}
	return annotations, nil
}
