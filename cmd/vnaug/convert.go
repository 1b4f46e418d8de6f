package main

import (
	"github.com/gomlx/go-vnaug/models/embeddings"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func newConvertCmd() *cobra.Command {
	var maxWords int
	cmd := &cobra.Command{
		Use:   "convert-embeddings VEC_FILE SAFETENSORS_FILE",
		Short: "Convert a fastText .vec file to a memory mappable .safetensors embedding table",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			table, err := embeddings.LoadVec(args[0], maxWords)
			if err != nil {
				return err
			}
			if err := embeddings.WriteSafetensors(args[1], table); err != nil {
				return err
			}
			klog.Infof("wrote %d embeddings of dimension %d to %q", table.Len(), table.Dim(), args[1])
			return nil
		},
	}
	cmd.Flags().IntVar(&maxWords, "max-words", embeddings.DefaultMaxWords, "number of (most frequent) words converted, 0 for all")
	return cmd
}
