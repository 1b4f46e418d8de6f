// Package pipeline chains augmenters: for each generated sentence a random subset of the stages is
// applied, in random order, each stage augmenting the output of the previous one.
//
// Every stage output is a result on its own, labelled with the stages that produced it. Failed stages
// are reported in the results and skipped; when nothing could be produced the original text is
// returned, so a pipeline never fails because of its stages.
package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/gomlx/go-vnaug/augment"
	"github.com/gomlx/go-vnaug/tokenizers/api"
	"github.com/gomlx/go-vnaug/tokenizers/words"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DefaultNumSentences is the number of sentences generated when Options.NumSentences is not set.
const DefaultNumSentences = 1

// Registry returns the augmenter of a type.
type Registry interface {
	Augmenter(typeName string) (augment.Augmenter, bool)
}

// Options of a pipeline run.
type Options struct {
	// NumSentences is the number of stage sequences sampled.
	NumSentences int

	// Exclude, IsSegmented and Segment have the same meaning as in augment.Params, for the whole pipeline.
	Exclude     []string
	IsSegmented bool
	Segment     bool

	// FullPipeline runs every stage, in random order, for each sentence. By default a random
	// strict subset of the stages is used (a single stage if there is only one).
	FullPipeline bool
}

// StageResult is the outcome of one stage run.
type StageResult struct {
	Stage Stage
	Input string
	// Output is empty if the stage failed or returned nothing.
	Output string
	Err    error
}

// Output is one generated text, with the labels of the stages applied to produce it, in order.
type Output struct {
	Text   string   `json:"text"`
	Labels []string `json:"labels"`
}

// Result of a pipeline run.
type Result struct {
	// Outputs are deduplicated, in generation order. They are never empty: if no stage produced
	// anything, it holds the original text, and Degraded is set.
	Outputs  []Output
	Degraded bool

	// Stages lists every stage run, including failures.
	Stages []StageResult
}

// Texts returns the texts of the outputs.
func (r *Result) Texts() []string {
	texts := make([]string, len(r.Outputs))
	for ii, o := range r.Outputs {
		texts[ii] = o.Text
	}
	return texts
}

// Failures returns the stage runs that failed.
func (r *Result) Failures() []StageResult {
	var failures []StageResult
	for _, s := range r.Stages {
		if s.Err != nil {
			failures = append(failures, s)
		}
	}
	return failures
}

// Orchestrator runs pipelines over the augmenters of a Registry.
type Orchestrator struct {
	registry  Registry
	segmenter api.Segmenter
}

// New creates an orchestrator. segmenter may be nil, in which case Options.Segment is rejected.
func New(registry Registry, segmenter api.Segmenter) *Orchestrator {
	return &Orchestrator{registry: registry, segmenter: segmenter}
}

// Validate checks the pipeline definition: known augmenter types, known actions and valid parameters.
// Errors wrap augment.ErrValidation.
func (o *Orchestrator) Validate(stages []Stage, opts Options) error {
	if opts.Segment && o.segmenter == nil {
		return errors.Wrap(augment.ErrValidation, "pipeline: segmentation requested but no segmenter configured")
	}
	if opts.NumSentences < 0 {
		return errors.Wrapf(augment.ErrValidation, "pipeline: n_sent %d must not be negative", opts.NumSentences)
	}
	for ii, s := range stages {
		aug, found := o.registry.Augmenter(s.Type)
		if !found {
			return errors.Wrapf(augment.ErrValidation, "pipeline: stage #%d has unknown type %q", ii, s.Type)
		}
		if actions := aug.Actions(); actions != nil {
			if err := augment.ValidateAction(s.Type, s.Action, actions); err != nil {
				return errors.WithMessagef(err, "pipeline: stage #%d", ii)
			}
		}
		if err := s.Params.Validate(); err != nil {
			return errors.WithMessagef(err, "pipeline: stage #%d (%s)", ii, s.Label())
		}
	}
	return nil
}

// Run generates opts.NumSentences stage sequences over text. It only returns an error if the
// pipeline definition is invalid (see Validate).
func (o *Orchestrator) Run(ctx context.Context, text string, stages []Stage, opts Options, rng *rand.Rand) (*Result, error) {
	if err := o.Validate(stages, opts); err != nil {
		return nil, err
	}
	numSentences := opts.NumSentences
	if numSentences == 0 {
		numSentences = DefaultNumSentences
	}
	input := words.Normalize(text)
	if opts.IsSegmented {
		input = words.Unsegment(input)
	}

	result := &Result{}
	seen := make(map[string]bool)
	for range numSentences {
		if ctx.Err() != nil {
			break
		}
		current := input
		var labels []string
		for _, stage := range SampleStages(stages, opts.FullPipeline, rng) {
			sr := o.runStage(ctx, stage, current, opts.Exclude, rng)
			result.Stages = append(result.Stages, sr)
			if sr.Err != nil {
				klog.ErrorS(sr.Err, "pipeline stage failed", "stage", stage.Label(), "text", current)
				continue
			}
			if sr.Output == "" {
				continue
			}
			labels = append(labels, stage.Label())
			current = sr.Output
			out := o.finalize(ctx, sr.Output, opts)
			if seen[out] {
				continue
			}
			seen[out] = true
			result.Outputs = append(result.Outputs, Output{Text: out, Labels: slices.Clone(labels)})
		}
	}
	if len(result.Outputs) == 0 {
		result.Outputs = []Output{{Text: text}}
		result.Degraded = true
	}
	return result, nil
}

// runStage runs one stage, turning panics into errors.
func (o *Orchestrator) runStage(ctx context.Context, stage Stage, text string, exclude []string, rng *rand.Rand) (sr StageResult) {
	sr = StageResult{Stage: stage, Input: text}
	defer func() {
		if r := recover(); r != nil {
			sr.Output = ""
			sr.Err = errors.Errorf("stage %s panicked: %v", stage.Label(), r)
		}
	}()
	aug, _ := o.registry.Augmenter(stage.Type)
	p := stage.Params.WithAction(stage.Action)
	p.Exclude = exclude
	p.IsSegmented, p.Segment = false, false
	outputs, err := aug.Augment(ctx, text, p, rng)
	if err != nil {
		sr.Err = errors.WithMessagef(err, "stage %s", stage.Label())
		return sr
	}
	if len(outputs) > 0 {
		sr.Output = outputs[0]
	}
	return sr
}

// finalize segments a stage output if requested, keeping the excluded literals intact.
func (o *Orchestrator) finalize(ctx context.Context, text string, opts Options) string {
	if !opts.Segment {
		return text
	}
	masked, exclusions := augment.Mask(text, opts.Exclude)
	outputs := augment.Postprocess(ctx, o.segmenter, []string{masked}, exclusions, true)
	if len(outputs) == 0 {
		return text
	}
	return outputs[0]
}

// SampleStages returns the stages to apply for one sentence, in random order, sampled without
// replacement: all of them if full is set, otherwise between 1 and len(stages)-1 of them (exactly one
// if there is a single stage).
func SampleStages(stages []Stage, full bool, rng *rand.Rand) []Stage {
	if len(stages) == 0 {
		return nil
	}
	size := len(stages)
	if !full {
		size = 1
		if len(stages) > 1 {
			size = 1 + rng.IntN(len(stages)-1)
		}
	}
	perm := rng.Perm(len(stages))
	sampled := make([]Stage, size)
	for ii := range size {
		sampled[ii] = stages[perm[ii]]
	}
	return sampled
}

// String implements fmt.Stringer.
func (sr StageResult) String() string {
	if sr.Err != nil {
		return fmt.Sprintf("%s: failed: %v", sr.Stage.Label(), sr.Err)
	}
	return fmt.Sprintf("%s: %q -> %q", sr.Stage.Label(), sr.Input, sr.Output)
}
