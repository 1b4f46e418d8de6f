package engine

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/gomlx/go-vnaug/augment/synonym"
	"github.com/gomlx/go-vnaug/augment/word"
	"github.com/gomlx/go-vnaug/hub"
	"github.com/gomlx/go-vnaug/internal/config"
	"github.com/gomlx/go-vnaug/models/embeddings"
	"github.com/gomlx/go-vnaug/services"
	"github.com/gomlx/go-vnaug/tokenizers/api"
	"github.com/gomlx/go-vnaug/tokenizers/hftokenizer"
	"github.com/gomlx/go-vnaug/tokenizers/sentencepiece"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// New loads the resources and creates the service clients described by cfg, and builds the Engine.
//
// Missing optional resources (stop words, word lists, embeddings) only disable or weaken the augmenters
// using them; malformed resources are errors.
func New(ctx context.Context, cfg config.Config) (*Engine, error) {
	c, err := LoadComponents(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return Build(c), nil
}

// LoadComponents resolves the resources and creates the service clients described by cfg.
//
// On error, the resources loaded so far are closed and empty Components are returned.
func LoadComponents(ctx context.Context, cfg config.Config) (c Components, err error) {
	defer func() {
		if err == nil {
			return
		}
		for _, closer := range c.Closers {
			if closeErr := closer.Close(); closeErr != nil {
				klog.Warningf("closing resource after failed load: %+v", closeErr)
			}
		}
		c = Components{}
	}()
	res := cfg.Resources
	data := hub.New(res.DataDir).WithBaseURL(res.BaseURL)
	models := hub.New(res.ModelDir).WithBaseURL(res.BaseURL)

	if path, err := data.Optional(ctx, res.StopWords); err != nil {
		return c, err
	} else if path != "" {
		if c.StopWords, err = synonym.LoadStopWords(path); err != nil {
			return c, err
		}
	} else {
		klog.Warningf("stop words %q not found, all words are candidates for synonyms", res.StopWords)
	}

	if path, err := data.Optional(ctx, res.IrrelevantWords); err != nil {
		return c, err
	} else if path != "" {
		if c.Vocabulary, err = word.LoadVocabulary(path); err != nil {
			return c, err
		}
	} else {
		klog.Warningf("irrelevant words %q not found, %q action disabled", res.IrrelevantWords, word.ActionInsert)
	}

	if path, err := data.Optional(ctx, res.EditDistance); err != nil {
		return c, err
	} else if path != "" {
		if c.Confusions, err = word.LoadConfusions(path); err != nil {
			return c, err
		}
	} else {
		klog.Warningf("edit distance table %q not found, %q action disabled", res.EditDistance, word.ActionEditDistance)
	}

	if path, err := models.Optional(ctx, res.Embeddings); err != nil {
		return c, err
	} else if path != "" {
		table, err := loadEmbeddings(path, res.MaxEmbeddings)
		if err != nil {
			return c, err
		}
		c.Embeddings = table
		c.Closers = append(c.Closers, table)
		klog.V(1).Infof("loaded %d embeddings of dimension %d from %q", table.Len(), table.Dim(), path)
	} else {
		klog.Warningf("embeddings %q not found", res.Embeddings)
	}

	if res.Tokenizer != "" {
		path, err := models.Path(ctx, res.Tokenizer)
		if err != nil {
			return c, errors.WithMessage(err, "masked language model tokenizer")
		}
		if c.Budget, err = loadTokenizer(path); err != nil {
			return c, err
		}
		c.MaxPieces = res.MaxPieces
	}

	opts := services.Options{
		Timeout:       cfg.RequestTimeout,
		CacheCapacity: cfg.MaxCacheSize,
		MaxRetry:      cfg.MaxRetry,
	}
	svc := cfg.Services
	if svc.SegmenterURL != "" {
		if c.Segmenter, err = services.NewSegmenter(svc.SegmenterURL, opts); err != nil {
			return c, err
		}
	}
	if svc.TranslatorURL != "" {
		if c.Translator, err = services.NewTranslator(svc.TranslatorURL, opts); err != nil {
			return c, err
		}
	}
	if svc.DepParserURL != "" {
		if c.Parser, err = services.NewDepParser(svc.DepParserURL, opts); err != nil {
			return c, err
		}
	}
	if svc.MaskedLMURL != "" {
		if c.LM, err = services.NewMaskedLM(svc.MaskedLMURL, opts); err != nil {
			return c, err
		}
	}
	return c, nil
}

// loadTokenizer loads a HuggingFace "tokenizer.json" file or a SentencePiece model.
func loadTokenizer(path string) (api.TokenizerWithSpans, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return hftokenizer.NewFromFile(path)
	}
	return sentencepiece.New(path)
}

// loadEmbeddings loads a ".safetensors" table (memory mapped) or a fastText ".vec" file.
func loadEmbeddings(path string, maxWords int) (*embeddings.Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".safetensors") {
		return embeddings.LoadSafetensors(path)
	}
	return embeddings.LoadVec(path, maxWords)
}
