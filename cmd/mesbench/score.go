package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/2719104587/MESBench/internal/report"
)

func newScoreCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "score",
		Short: "Re-score existing evaluation artifacts without calling the candidate",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, st)
		},
	}
}

func runScore(cmd *cobra.Command, st *cliState) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("score: missing config (internal error)")
	}
	cfg := st.cfg

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	judges := usableJudges(cfg, st)
	result, err := scoreRun(ctx, cfg, judges, st)
	if err != nil {
		return err
	}
	if len(result.Rows) <= 1 {
		return fmt.Errorf("score: no evaluation artifacts under %s", cfg.ResultOutputPath)
	}

	in := &report.Input{
		Model:      cfg.CandidateModel.ModelName,
		Rows:       result.Rows,
		Totals:     result.Totals,
		JudgeUsage: result.JudgeUsage,
		FinishedAt: time.Now(),
	}
	if err := writeArtifacts(cfg, in); err != nil {
		return err
	}

	printTotals(cmd, result.Totals)
	return nil
}
