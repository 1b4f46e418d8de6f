package pipeline

import (
	"encoding/json"
	"os"

	"github.com/gomlx/go-vnaug/augment"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Stage is one augmentation of a pipeline: the augmenter type and its parameters.
//
// Params fields absent from the JSON or YAML definition take the augment.DefaultParams values.
type Stage struct {
	Type           string `json:"type" yaml:"type"`
	augment.Params `yaml:",inline"`
}

// NewStage returns a stage of the given type and action, with default parameters.
func NewStage(typeName, action string) Stage {
	return Stage{Type: typeName, Params: augment.DefaultParams().WithAction(action)}
}

// Label identifies the stage in results, e.g. "typo:telex", or "blank" when there is no action.
func (s Stage) Label() string {
	if s.Action == "" {
		return s.Type
	}
	return s.Type + ":" + s.Action
}

// UnmarshalJSON implements json.Unmarshaler, applying the default parameters.
func (s *Stage) UnmarshalJSON(data []byte) error {
	type plain Stage
	tmp := plain{Params: augment.DefaultParams()}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*s = Stage(tmp)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler, applying the default parameters.
func (s *Stage) UnmarshalYAML(node *yaml.Node) error {
	type plain Stage
	tmp := plain{Params: augment.DefaultParams()}
	if err := node.Decode(&tmp); err != nil {
		return err
	}
	*s = Stage(tmp)
	return nil
}

// File is the definition of a pipeline, as a YAML file or the body of a pipeline request.
type File struct {
	NumSentences int      `json:"n_sent" yaml:"n_sent"`
	Exclude      []string `json:"exclude,omitempty" yaml:"exclude"`
	Segment      bool     `json:"segment,omitempty" yaml:"segment"`
	IsSegmented  bool     `json:"is_segmented,omitempty" yaml:"is_segmented"`
	FullPipeline bool     `json:"full_pipeline,omitempty" yaml:"full_pipeline"`
	Stages       []Stage  `json:"pipeline" yaml:"pipeline"`
}

// Options returns the run options defined in the file.
func (f *File) Options() Options {
	return Options{
		NumSentences: f.NumSentences,
		Exclude:      f.Exclude,
		Segment:      f.Segment,
		IsSegmented:  f.IsSegmented,
		FullPipeline: f.FullPipeline,
	}
}

// ParseFile parses a YAML pipeline definition.
func ParseFile(data []byte) (*File, error) {
	f := &File{NumSentences: DefaultNumSentences}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, errors.Wrap(err, "failed to parse pipeline definition")
	}
	return f, nil
}

// LoadFile reads and parses the YAML pipeline definition at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read pipeline definition %q", path)
	}
	f, err := ParseFile(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "in %q", path)
	}
	return f, nil
}
