// Package engine builds, once per process, the registry of augmenters served by the application: it
// resolves the resource files, loads the embedding table, creates the external service clients and
// wires them into the augmenters and the pipeline orchestrator.
//
// An Engine is read-only once built, and safe for concurrent use.
package engine

import (
	"context"
	"io"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/gomlx/go-vnaug/augment"
	"github.com/gomlx/go-vnaug/augment/accent"
	"github.com/gomlx/go-vnaug/augment/backtranslation"
	"github.com/gomlx/go-vnaug/augment/blank"
	"github.com/gomlx/go-vnaug/augment/char"
	"github.com/gomlx/go-vnaug/augment/consonant"
	"github.com/gomlx/go-vnaug/augment/deptree"
	"github.com/gomlx/go-vnaug/augment/synonym"
	"github.com/gomlx/go-vnaug/augment/typo"
	"github.com/gomlx/go-vnaug/augment/word"
	"github.com/gomlx/go-vnaug/pipeline"
	"github.com/gomlx/go-vnaug/tokenizers/api"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Components are the collaborators an Engine is built from. Nil collaborators disable the augmenters
// depending on them.
type Components struct {
	// Segmenter is used when a request asks for segmented output.
	Segmenter api.Segmenter

	// Translator enables "backtranslation".
	Translator backtranslation.Translator

	// Parser enables "dependency_tree".
	Parser deptree.Parser

	// Embeddings and LM together enable "synonym".
	Embeddings synonym.Embeddings
	LM         synonym.MaskedLM
	StopWords  map[string]bool
	Budget     api.TokenizerWithSpans
	MaxPieces  int

	// Vocabulary of irrelevant words and Confusions feed the "word" augmenter.
	Vocabulary []string
	Confusions word.Confusions

	// Closers are released by Engine.Close.
	Closers []io.Closer
}

// Engine is the registry of augmenters, keyed by type name. It implements pipeline.Registry.
type Engine struct {
	augmenters   map[string]augment.Augmenter
	segmenter    api.Segmenter
	orchestrator *pipeline.Orchestrator
	closers      []io.Closer
}

var _ pipeline.Registry = &Engine{}

// Build creates an Engine from its components.
func Build(c Components) *Engine {
	e := &Engine{
		augmenters: make(map[string]augment.Augmenter),
		segmenter:  c.Segmenter,
		closers:    c.Closers,
	}
	for _, aug := range []*augment.TokenAugmenter{
		char.New(),
		typo.New(),
		accent.New(),
		consonant.New(),
		word.New(c.Vocabulary, c.Confusions),
		blank.New(),
	} {
		e.register(aug.WithSegmenter(c.Segmenter))
	}

	if c.Embeddings != nil && c.LM != nil {
		e.register(synonym.New(&synonym.Strategy{
			Embeddings: c.Embeddings,
			LM:         c.LM,
			StopWords:  c.StopWords,
			Budget:     c.Budget,
			MaxPieces:  c.MaxPieces,
		}).WithSegmenter(c.Segmenter))
	} else {
		klog.Warningf("%q augmenter disabled: embeddings or masked language model not configured", synonym.Name)
	}
	if c.Parser != nil {
		e.register(deptree.New(c.Parser).WithSegmenter(c.Segmenter))
	} else {
		klog.Warningf("%q augmenter disabled: dependency parser not configured", deptree.Name)
	}
	if c.Translator != nil {
		e.register(backtranslation.New(c.Translator).WithSegmenter(c.Segmenter))
	} else {
		klog.Warningf("%q augmenter disabled: translator not configured", backtranslation.Name)
	}

	e.orchestrator = pipeline.New(e, c.Segmenter)
	klog.V(1).Infof("engine ready with augmenters %v", e.Types())
	return e
}

func (e *Engine) register(aug augment.Augmenter) {
	e.augmenters[aug.Name()] = aug
}

// Augmenter implements pipeline.Registry.
func (e *Engine) Augmenter(typeName string) (augment.Augmenter, bool) {
	aug, found := e.augmenters[typeName]
	return aug, found
}

// Types returns the sorted names of the available augmenters.
func (e *Engine) Types() []string {
	types := make([]string, 0, len(e.augmenters))
	for name := range e.augmenters {
		types = append(types, name)
	}
	slices.Sort(types)
	return types
}

// Segmenter returns the word segmenter, or nil if none is configured.
func (e *Engine) Segmenter() api.Segmenter { return e.segmenter }

// Pipeline returns the pipeline orchestrator over the engine's augmenters.
func (e *Engine) Pipeline() *pipeline.Orchestrator { return e.orchestrator }

// Augment runs the augmenter typeName. Unknown types return an error wrapping augment.ErrValidation.
func (e *Engine) Augment(ctx context.Context, typeName, text string, p augment.Params, rng *rand.Rand) ([]string, error) {
	aug, found := e.Augmenter(typeName)
	if !found {
		return nil, errors.Wrapf(augment.ErrValidation, "unknown augmentation type %q, please choose type in %v",
			typeName, e.Types())
	}
	return aug.Augment(ctx, text, p, rng)
}

// Close releases the resources held by the engine, e.g. memory mapped embeddings.
func (e *Engine) Close() error {
	var firstErr error
	for _, c := range e.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	e.closers = nil
	return firstErr
}

var (
	globalOnce   sync.Once
	globalEngine *Engine
	globalErr    error
)

// Global returns the process-wide Engine, creating it with init on the first call. Later calls return
// the same Engine (or error) regardless of init.
func Global(init func() (*Engine, error)) (*Engine, error) {
	globalOnce.Do(func() {
		globalEngine, globalErr = init()
	})
	return globalEngine, globalErr
}
