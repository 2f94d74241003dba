package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2719104587/MESBench/api"
	"github.com/2719104587/MESBench/internal/history"
)

func newServeCmd(st *cliState) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run history over HTTP",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.NewStore(st.cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			srv, err := api.NewServer(st.cfg, store)
			if err != nil {
				return err
			}

			listen := addr
			if listen == "" {
				listen = st.cfg.Server.Addr
			}
			fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", listen)
			return srv.Run(listen)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
