package main

import (
	"fmt"

	"github.com/gomlx/go-vnaug/augment"
	"github.com/gomlx/go-vnaug/internal/render"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// addParamsFlags binds the augmentation parameters to flags, with p's values as defaults.
func addParamsFlags(fs *pflag.FlagSet, p *augment.Params) {
	fs.StringVar(&p.Action, "action", p.Action, "action of the augmenter, e.g. telex for typo")
	fs.StringSliceVar(&p.Exclude, "exclude", p.Exclude, "literals left unchanged")
	fs.BoolVar(&p.IsSegmented, "is-segmented", p.IsSegmented, "input words are segmented with '_'")
	fs.BoolVar(&p.Segment, "segment", p.Segment, "word-segment the outputs")
	fs.Float64Var(&p.PAug, "p-aug", p.PAug, "probability of augmenting each eligible word")
	fs.IntVar(&p.MinAug, "min-aug", p.MinAug, "minimum number of augmented words")
	fs.IntVar(&p.MaxAug, "max-aug", p.MaxAug, "maximum number of augmented words")
	fs.Float64Var(&p.AugCharP, "aug-char-p", p.AugCharP, "probability of augmenting each character")
	fs.IntVar(&p.NumSimilar, "num-similar", p.NumSimilar, "synonym: number of embedding neighbours considered")
	fs.IntVar(&p.NumKeep, "num-keep", p.NumKeep, "synonym: maximum number of synonyms used per word")
	fs.StringVar(&p.SrcLanguage, "src-language", p.SrcLanguage, "backtranslation: language of the input")
	fs.StringSliceVar(&p.Languages, "languages", p.Languages, "backtranslation: intermediate languages")
}

func newAugmentCmd(g *globalFlags) *cobra.Command {
	p := augment.DefaultParams()
	var repeat int
	cmd := &cobra.Command{
		Use:   "augment TYPE TEXT",
		Short: "Augment a text with one augmenter",
		Long: `Augment a text with one augmenter, e.g.:

  vnaug augment typo "Tôi yêu Hà Nội" --action telex --exclude "Hà Nội" -n 3`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typeName, text := args[0], args[1]
			e, _, err := g.engine(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()
			rng := g.rand()
			var texts []string
			for range max(repeat, 1) {
				outputs, err := e.Augment(cmd.Context(), typeName, text, p, rng)
				if err != nil {
					return err
				}
				texts = append(texts, outputs...)
			}
			title := typeName
			if p.Action != "" {
				title += ":" + p.Action
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), render.Variants(title, text, render.Texts(augment.Dedup(texts))))
			return err
		},
	}
	addParamsFlags(cmd.Flags(), &p)
	cmd.Flags().IntVarP(&repeat, "repeat", "n", 1, "number of augmentation runs")
	return cmd
}
