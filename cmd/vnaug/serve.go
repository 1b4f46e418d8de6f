package main

import (
	"github.com/gomlx/go-vnaug/server"
	"github.com/spf13/cobra"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the augmenters over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, cfg, err := g.engine(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()
			if addr == "" {
				addr = cfg.Addr()
			}
			return server.ListenAndServe(cmd.Context(), addr, server.New(e))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, defaults to the configured host:port")
	return cmd
}
