package main

import (
	"bufio"
	"context"
	"io"
	"math/rand/v2"
	"os"
	"runtime"
	"strings"

	"github.com/gomlx/go-vnaug/augment"
	"github.com/gomlx/go-vnaug/engine"
	"github.com/gomlx/go-vnaug/internal/export"
	"github.com/gomlx/go-vnaug/pipeline"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// generator produces the variants of one text.
type generator func(ctx context.Context, text string, rng *rand.Rand) ([]pipeline.Output, error)

// augmenterGenerator runs one augmenter repeat times.
func augmenterGenerator(e *engine.Engine, typeName string, p augment.Params, repeat int) (generator, error) {
	aug, found := e.Augmenter(typeName)
	if !found {
		return nil, errors.Wrapf(augment.ErrValidation, "unknown augmentation type %q, please choose type in %v", typeName, e.Types())
	}
	if actions := aug.Actions(); actions != nil {
		if err := augment.ValidateAction(typeName, p.Action, actions); err != nil {
			return nil, err
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	label := pipeline.Stage{Type: typeName, Params: p}.Label()
	return func(ctx context.Context, text string, rng *rand.Rand) ([]pipeline.Output, error) {
		var texts []string
		for range max(repeat, 1) {
			outputs, err := aug.Augment(ctx, text, p, rng)
			if err != nil {
				return nil, err
			}
			texts = append(texts, outputs...)
		}
		var outputs []pipeline.Output
		for _, t := range augment.Dedup(texts) {
			if t != text {
				outputs = append(outputs, pipeline.Output{Text: t, Labels: []string{label}})
			}
		}
		return outputs, nil
	}, nil
}

// pipelineGenerator runs the pipeline defined by def.
func pipelineGenerator(e *engine.Engine, def *pipeline.File) (generator, error) {
	opts := def.Options()
	if err := e.Pipeline().Validate(def.Stages, opts); err != nil {
		return nil, err
	}
	return func(ctx context.Context, text string, rng *rand.Rand) ([]pipeline.Output, error) {
		result, err := e.Pipeline().Run(ctx, text, def.Stages, opts, rng)
		if err != nil {
			return nil, err
		}
		if result.Degraded {
			return nil, nil
		}
		return result.Outputs, nil
	}, nil
}

// readLines returns the non-blank lines of r.
func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read input")
	}
	return lines, nil
}

// runBatch generates the variants of every line with up to workers concurrent generations, and writes
// them in input order. Each line has its own generator seeded from (seed, line), so the results don't
// depend on the scheduling. Lines that fail are logged and skipped; it returns the number of failures.
func runBatch(ctx context.Context, lines []string, gen generator, w *export.Writer, workers int, seed uint64) (int, error) {
	runID := uuid.NewString()
	results := make([][]pipeline.Output, len(lines))
	failed := make([]bool, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for ii, line := range lines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(seed, uint64(ii)))
			outputs, err := gen(gctx, line, rng)
			if err != nil {
				klog.Warningf("line %d: %v", ii, err)
				failed[ii] = true
				return nil
			}
			results[ii] = outputs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	numFailed := 0
	for ii, outputs := range results {
		if failed[ii] {
			numFailed++
			continue
		}
		rows := make([]export.Row, len(outputs))
		for jj, out := range outputs {
			rows[jj] = export.Row{RunID: runID, Line: int64(ii), Text: lines[ii], Augmented: out.Text, Labels: out.Labels}
		}
		if err := w.Write(rows...); err != nil {
			return numFailed, err
		}
	}
	klog.V(1).Infof("batch %s: %d lines, %d rows, %d failures", runID, len(lines), w.Count(), numFailed)
	return numFailed, nil
}

func newBatchCmd(g *globalFlags) *cobra.Command {
	p := augment.DefaultParams()
	var (
		input, output, pipelinePath, typeName string
		repeat, workers                       int
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Augment every line of a file, writing a Parquet corpus",
		Long: `Augment every line of a file with one augmenter (--type) or a pipeline (--pipeline), and write
one Parquet row per generated text with the columns run_id, line, text, augmented and labels.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (typeName == "") == (pipelinePath == "") {
				return errors.New("exactly one of --type or --pipeline must be given")
			}
			if output == "" {
				return errors.New("--output is required")
			}
			e, _, err := g.engine(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()

			var gen generator
			if pipelinePath != "" {
				def, err := pipeline.LoadFile(pipelinePath)
				if err != nil {
					return err
				}
				gen, err = pipelineGenerator(e, def)
				if err != nil {
					return err
				}
			} else {
				gen, err = augmenterGenerator(e, typeName, p, repeat)
				if err != nil {
					return err
				}
			}

			in := io.Reader(cmd.InOrStdin())
			if input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return errors.Wrapf(err, "failed to open input %q", input)
				}
				defer func() { _ = f.Close() }()
				in = f
			}
			lines, err := readLines(in)
			if err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return errors.Wrapf(err, "failed to create %q", output)
			}
			w := export.NewWriter(f)
			numFailed, err := runBatch(cmd.Context(), lines, gen, w, workers, g.rand().Uint64())
			if err == nil {
				err = w.Close()
			}
			if closeErr := f.Close(); err == nil && closeErr != nil {
				err = errors.Wrapf(closeErr, "failed to close %q", output)
			}
			if err != nil {
				return err
			}
			klog.Infof("wrote %d rows to %q (%d of %d lines failed)", w.Count(), output, numFailed, len(lines))
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&input, "input", "i", "-", "input file with one text per line, - for stdin")
	fs.StringVarP(&output, "output", "o", "", "output Parquet file")
	fs.StringVar(&pipelinePath, "pipeline", "", "YAML pipeline definition")
	fs.StringVar(&typeName, "type", "", "augmenter type")
	fs.IntVarP(&repeat, "repeat", "n", 1, "number of augmentation runs per line, with --type")
	fs.IntVar(&workers, "workers", runtime.NumCPU(), "number of lines augmented concurrently")
	addParamsFlags(fs, &p)
	return cmd
}
