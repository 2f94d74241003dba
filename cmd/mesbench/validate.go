package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2719104587/MESBench/internal/dataset"
)

func newValidateCmd(st *cliState) *cobra.Command {
	var frameRoot string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the question bank against the coverage frame files",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			root := frameRoot
			if root == "" {
				root = "frames"
			}
			gaps := dataset.ValidateDataset(modulePaths(st.cfg), root, st.logger)
			if gaps > 0 {
				return fmt.Errorf("validate: %d coverage gaps found", gaps)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "题库覆盖检查通过")
			return nil
		},
	}

	cmd.Flags().StringVar(&frameRoot, "frames", "", "frame file root (default \"frames\")")
	return cmd
}
