package main

import (
	"fmt"

	"github.com/gomlx/go-vnaug/internal/render"
	"github.com/gomlx/go-vnaug/pipeline"
	"github.com/spf13/cobra"
)

func newPipelineCmd(g *globalFlags) *cobra.Command {
	var numSentences int
	cmd := &cobra.Command{
		Use:   "pipeline FILE TEXT",
		Short: "Run the pipeline defined in a YAML file on a text",
		Long: `Run the pipeline defined in a YAML file on a text. Example of pipeline file:

  n_sent: 5
  exclude: ["Hà Nội"]
  pipeline:
    - type: typo
      action: telex
    - type: word
      action: swap
      p_aug: 0.3
    - type: blank`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := pipeline.LoadFile(args[0])
			if err != nil {
				return err
			}
			if numSentences > 0 {
				def.NumSentences = numSentences
			}
			e, _, err := g.engine(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()

			text := args[1]
			result, err := e.Pipeline().Run(cmd.Context(), text, def.Stages, def.Options(), g.rand())
			if err != nil {
				return err
			}
			variants := make([]render.Variant, len(result.Outputs))
			for ii, out := range result.Outputs {
				variants[ii] = render.Variant{Text: out.Text, Labels: out.Labels}
			}
			var warnings []string
			for _, f := range result.Failures() {
				warnings = append(warnings, f.String())
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), render.Variants(args[0], text, variants, warnings...))
			return err
		},
	}
	cmd.Flags().IntVar(&numSentences, "n-sent", 0, "number of sentences, overrides the file's n_sent")
	return cmd
}
