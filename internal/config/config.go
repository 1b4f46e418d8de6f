// Package config holds the service configuration: defaults, overridden by an optional YAML file,
// overridden by VNAUG_* environment variables.
package config

import (
	"bytes"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvPrefix of the environment variables overriding the configuration.
const EnvPrefix = "VNAUG_"

// Config of the augmentation service.
type Config struct {
	Host  string `yaml:"host"`
	Port  int    `yaml:"port"`
	Debug bool   `yaml:"debug"`

	// MaxCacheSize is the number of results cached per external service.
	MaxCacheSize int `yaml:"max_cache_size"`
	// MaxRetry is the number of retries of a failed external call.
	MaxRetry int `yaml:"max_retry"`
	// RequestTimeout of each external call.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	Resources Resources `yaml:"resources"`
	Services  Services  `yaml:"services"`
}

// Resources are the files used by the augmenters. Relative names are resolved in DataDir (word
// lists) or ModelDir (models), and downloaded from BaseURL if missing and BaseURL is set.
type Resources struct {
	DataDir  string `yaml:"data_dir"`
	ModelDir string `yaml:"model_dir"`
	BaseURL  string `yaml:"base_url"`

	StopWords       string `yaml:"stop_words"`
	IrrelevantWords string `yaml:"irrelevant_words"`
	EditDistance    string `yaml:"edit_distance"`

	// Embeddings is a fastText ".vec" file or a ".safetensors" table.
	Embeddings    string `yaml:"embeddings"`
	MaxEmbeddings int    `yaml:"max_embeddings"`

	// Tokenizer is the optional sub-word tokenizer of the masked language model, bounding its context
	// to MaxPieces pieces: a SentencePiece model, or a HuggingFace "tokenizer.json".
	Tokenizer string `yaml:"tokenizer"`
	MaxPieces int    `yaml:"max_pieces"`
}

// Services are the endpoints of the external collaborators. An empty URL disables the augmenters
// depending on it.
type Services struct {
	TranslatorURL string `yaml:"translator_url"`
	DepParserURL  string `yaml:"dep_parser_url"`
	SegmenterURL  string `yaml:"segmenter_url"`
	MaskedLMURL   string `yaml:"masked_lm_url"`
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           35100,
		MaxCacheSize:   1000,
		MaxRetry:       5,
		RequestTimeout: 30 * time.Second,
		Resources: Resources{
			DataDir:         "./data",
			ModelDir:        "./model",
			StopWords:       "vietnamese-stopwords.txt",
			IrrelevantWords: "irrelevant_words.txt",
			EditDistance:    "edit_distance.txt",
			Embeddings:      "cc.vi.300.vec",
			MaxEmbeddings:   10000,
			MaxPieces:       256,
		},
		Services: Services{
			TranslatorURL: "http://localhost:5000/translate",
			DepParserURL:  "http://localhost:20217/",
			SegmenterURL:  "http://localhost:20215",
			MaskedLMURL:   "http://localhost:20218/fill_mask",
		},
	}
}

// Load returns the configuration: defaults, overridden by the YAML file at path (if not empty),
// overridden by the environment.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is like Load, but reads the environment with lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrapf(err, "failed to read config %q", path)
		}
		if err := cfg.decodeYAML(data); err != nil {
			return cfg, errors.WithMessagef(err, "config %q", path)
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// decodeYAML overrides cfg with the fields present in data. Unknown fields are rejected.
func (c *Config) decodeYAML(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return errors.Wrap(err, "failed to parse YAML")
	}
	return nil
}

// applyEnv overrides cfg with the VNAUG_* environment variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strVars := map[string]*string{
		"HOST":                 &c.Host,
		"DATA_DIR":             &c.Resources.DataDir,
		"MODEL_DIR":            &c.Resources.ModelDir,
		"RESOURCE_URL":         &c.Resources.BaseURL,
		"STOPWORD_PATH":        &c.Resources.StopWords,
		"IRRELEVANT_WORD_PATH": &c.Resources.IrrelevantWords,
		"EDIT_DISTANCE_PATH":   &c.Resources.EditDistance,
		"FASTTEXT_PATH":        &c.Resources.Embeddings,
		"TOKENIZER":            &c.Resources.Tokenizer,
		"TRANSLATOR_URL":       &c.Services.TranslatorURL,
		"PHO_NLP_URL":          &c.Services.DepParserURL,
		"VN_CORE_URL":          &c.Services.SegmenterURL,
		"MASKED_LM_URL":        &c.Services.MaskedLMURL,
	}
	for name, ptr := range strVars {
		if v, found := lookup(EnvPrefix + name); found {
			*ptr = strings.TrimSpace(v)
		}
	}
	intVars := map[string]*int{
		"PORT":           &c.Port,
		"MAX_CACHE_SIZE": &c.MaxCacheSize,
		"MAX_RETRY":      &c.MaxRetry,
		"MAX_EMBEDDINGS": &c.Resources.MaxEmbeddings,
		"MAX_PIECES":     &c.Resources.MaxPieces,
	}
	for name, ptr := range intVars {
		if v, found := lookup(EnvPrefix + name); found {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return errors.Wrapf(err, "invalid %s%s=%q", EnvPrefix, name, v)
			}
			*ptr = n
		}
	}
	if v, found := lookup(EnvPrefix + "DEBUG"); found {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrapf(err, "invalid %sDEBUG=%q", EnvPrefix, v)
		}
		c.Debug = b
	}
	if v, found := lookup(EnvPrefix + "REQUEST_TIMEOUT"); found {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrapf(err, "invalid %sREQUEST_TIMEOUT=%q", EnvPrefix, v)
		}
		c.RequestTimeout = d
	}
	return nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("config: port %d out of range", c.Port)
	}
	if c.MaxCacheSize <= 0 {
		return errors.Errorf("config: max_cache_size must be > 0, got %d", c.MaxCacheSize)
	}
	if c.MaxRetry < 0 {
		return errors.Errorf("config: max_retry must be >= 0, got %d", c.MaxRetry)
	}
	if c.RequestTimeout <= 0 {
		return errors.Errorf("config: request_timeout must be > 0, got %s", c.RequestTimeout)
	}
	return nil
}

// Addr returns the "host:port" address the server listens on.
func (c *Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
