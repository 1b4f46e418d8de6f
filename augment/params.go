package augment

import (
	"slices"

	"github.com/pkg/errors"
)

// Params are the per-call parameters of an augmentation. They are passed by value: augmenters never
// keep or mutate them, so one augmenter instance can serve concurrent calls.
type Params struct {
	// Action selects the variant of the augmenter, e.g. "telex" for typos.
	Action string `json:"action,omitempty" yaml:"action,omitempty"`

	// Exclude lists literals that must come out unchanged.
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`

	// IsSegmented tells the input has multi-syllable words joined with "_".
	IsSegmented bool `json:"is_segmented,omitempty" yaml:"is_segmented,omitempty"`
	// Segment asks for the output to be word-segmented.
	Segment bool `json:"segment,omitempty" yaml:"segment,omitempty"`

	// PAug, MinAug and MaxAug control the token sampling, see SampleParams.
	PAug   float64 `json:"p_aug" yaml:"p_aug"`
	MinAug int     `json:"min_aug" yaml:"min_aug"`
	MaxAug int     `json:"max_aug" yaml:"max_aug"`

	// AugCharP is the per-character augmentation probability, for character level augmenters.
	AugCharP float64 `json:"aug_char_p" yaml:"aug_char_p"`

	// NumSimilar and NumKeep control the synonym augmenter.
	NumSimilar int `json:"num_similar" yaml:"num_similar"`
	NumKeep    int `json:"num_keep" yaml:"num_keep"`

	// SrcLanguage and Languages control back-translation.
	SrcLanguage string   `json:"src_language,omitempty" yaml:"src_language,omitempty"`
	Languages   []string `json:"languages,omitempty" yaml:"languages,omitempty"`
}

// Default values of Params.
const (
	DefaultPAug        = 0.5
	DefaultMinAug      = 1
	DefaultMaxAug      = 2
	DefaultAugCharP    = 0.3
	DefaultNumSimilar  = 5
	DefaultNumKeep     = 1
	DefaultSrcLanguage = "vi"
)

// DefaultParams returns the parameters used when a request doesn't set them.
func DefaultParams() Params {
	return Params{
		PAug:        DefaultPAug,
		MinAug:      DefaultMinAug,
		MaxAug:      DefaultMaxAug,
		AugCharP:    DefaultAugCharP,
		NumSimilar:  DefaultNumSimilar,
		NumKeep:     DefaultNumKeep,
		SrcLanguage: DefaultSrcLanguage,
	}
}

// WithAction returns a copy of p using the given action.
func (p Params) WithAction(action string) Params {
	p.Action = action
	p.Exclude = slices.Clone(p.Exclude)
	p.Languages = slices.Clone(p.Languages)
	return p
}

// Sample returns the token sampling parameters.
func (p Params) Sample() SampleParams {
	return SampleParams{P: p.PAug, Min: p.MinAug, Max: p.MaxAug}
}

// Validate checks the numeric parameters.
func (p Params) Validate() error {
	if err := p.Sample().Validate(); err != nil {
		return err
	}
	if p.AugCharP < 0 || p.AugCharP > 1 {
		return errors.Wrapf(ErrValidation, "aug_char_p %g must be in [0, 1]", p.AugCharP)
	}
	if p.NumSimilar < 0 || p.NumKeep < 0 {
		return errors.Wrapf(ErrValidation, "num_similar (%d) and num_keep (%d) must be non-negative", p.NumSimilar, p.NumKeep)
	}
	return nil
}

// ValidateAction returns an error wrapping ErrValidation, listing the allowed set, if action is not in allowed.
func ValidateAction(name, action string, allowed []string) error {
	if slices.Contains(allowed, action) {
		return nil
	}
	return errors.Wrapf(ErrValidation, "%s: unknown action %q, please choose action in %v", name, action, allowed)
}
