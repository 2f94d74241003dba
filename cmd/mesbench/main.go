package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/2719104587/MESBench/internal/config"
	"github.com/2719104587/MESBench/internal/dataset"
)

type cliState struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

var (
	osExit                 = os.Exit
	stderrWriter io.Writer = os.Stderr
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderrWriter, err)
		osExit(1)
	}
}

func newRootCmd() *cobra.Command {
	st := &cliState{
		configPath: config.DefaultPath,
		logger:     slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}

	root := &cobra.Command{
		Use:           "mesbench",
		Short:         "Benchmark LLMs on the construction supervision question bank",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&st.configPath, "config", st.configPath, "path to config file")

	root.AddCommand(newRunCmd(st))
	root.AddCommand(newScoreCmd(st))
	root.AddCommand(newValidateCmd(st))
	root.AddCommand(newHistoryCmd(st))
	root.AddCommand(newServeCmd(st))
	return root
}

func loadConfig(st *cliState) error {
	cfg, err := config.Load(st.configPath)
	if err != nil {
		return err
	}
	st.cfg = cfg
	return nil
}

func modulePaths(cfg *config.Config) dataset.ModulePaths {
	return dataset.ModulePaths{
		Professional: cfg.Module1Path,
		General:      cfg.Module2Path,
		Special:      cfg.Module3Path,
	}
}
