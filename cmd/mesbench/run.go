package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/2719104587/MESBench/internal/config"
	"github.com/2719104587/MESBench/internal/dataset"
	"github.com/2719104587/MESBench/internal/evaluator"
	"github.com/2719104587/MESBench/internal/history"
	"github.com/2719104587/MESBench/internal/judge"
	"github.com/2719104587/MESBench/internal/llm"
	"github.com/2719104587/MESBench/internal/report"
	"github.com/2719104587/MESBench/internal/scoring"
)

type runOptions struct {
	yes       bool
	selection string
}

func newRunCmd(st *cliState) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate the candidate model and produce a score report",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(cmd, st, &opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().StringVar(&opts.selection, "selection", "", "selection file (overrides config)")

	return cmd
}

func runBenchmark(cmd *cobra.Command, st *cliState, opts *runOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("run: missing config (internal error)")
	}
	cfg := st.cfg

	if err := cfg.CandidateModel.Validate(); err != nil {
		return fmt.Errorf("run: candidate model: %w", err)
	}
	judges := usableJudges(cfg, st)

	selPath := strings.TrimSpace(opts.selection)
	if selPath == "" {
		selPath = cfg.DatasetsConfigPath
	}
	sels, err := dataset.ParseSelectionFile(selPath)
	if err != nil {
		return err
	}

	questions, err := dataset.Load(sels, modulePaths(cfg), st.logger)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return fmt.Errorf("run: no questions matched the selection")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "被测模型：%s\n", cfg.CandidateModel.ModelName)
	fmt.Fprintf(out, "评分模型：%s\n", judgeNames(judges))
	fmt.Fprintf(out, "题目数量：%d\n", len(questions))
	fmt.Fprintf(out, "结果目录：%s\n", cfg.ResultOutputPath)
	if !opts.yes && !confirm(cmd) {
		fmt.Fprintln(out, "已取消")
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	client, err := llm.NewClientFromConfig(cfg.CandidateModel, st.logger)
	if err != nil {
		return err
	}

	started := time.Now()
	orch := evaluator.New(client, cfg.ResultOutputPath, cfg.CandidateModel.Concurrency, st.logger)
	orch.OnProgress(func(done, total int64) {
		fmt.Fprintf(stderrWriter, "\r已完成 %d/%d", done, total)
		if done == total {
			fmt.Fprintln(stderrWriter)
		}
	})
	_, candidateUsage, err := orch.Run(ctx, questions)
	if err != nil {
		return err
	}

	result, err := scoreRun(ctx, cfg, judges, st)
	if err != nil {
		return err
	}

	in := &report.Input{
		Model:          cfg.CandidateModel.ModelName,
		Rows:           result.Rows,
		Totals:         result.Totals,
		CandidateUsage: candidateUsage,
		JudgeUsage:     result.JudgeUsage,
		StartedAt:      started,
		FinishedAt:     time.Now(),
	}
	if err := writeArtifacts(cfg, in); err != nil {
		return err
	}
	if err := saveRun(ctx, cfg, in); err != nil {
		return err
	}

	printTotals(cmd, result.Totals)
	return nil
}

// usableJudges drops judges that fail validation instead of aborting the
// whole run; open-ended questions then simply go unscored.
func usableJudges(cfg *config.Config, st *cliState) []config.ModelConfig {
	var out []config.ModelConfig
	for i := range cfg.Judges {
		if err := cfg.Judges[i].Validate(); err != nil {
			st.logger.Warn("dropping judge model", "index", i, "error", err)
			continue
		}
		out = append(out, cfg.Judges[i])
	}
	return out
}

func judgeNames(judges []config.ModelConfig) string {
	if len(judges) == 0 {
		return "（无，问答题不计分）"
	}
	names := make([]string, 0, len(judges))
	for _, j := range judges {
		names = append(names, j.ModelName)
	}
	return strings.Join(names, ", ")
}

func confirm(cmd *cobra.Command) bool {
	fmt.Fprint(cmd.OutOrStdout(), "开始评测？[y/N] ")
	sc := bufio.NewScanner(cmd.InOrStdin())
	if !sc.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(sc.Text()))
	return answer == "y" || answer == "yes"
}

func scoreRun(ctx context.Context, cfg *config.Config, judges []config.ModelConfig, st *cliState) (*scoring.Result, error) {
	jo, err := judge.New(judges, cfg.ResultOutputPath, cfg.ENMode, st.logger)
	if err != nil {
		return nil, err
	}
	engine := scoring.NewEngine(cfg.ResultOutputPath, cfg.Weights, jo, st.logger)
	return engine.Compute(ctx)
}

func writeArtifacts(cfg *config.Config, in *report.Input) error {
	if err := report.WriteCSV(filepath.Join(cfg.ResultOutputPath, "scores.csv"), in.Rows); err != nil {
		return err
	}
	return report.WriteMarkdown(filepath.Join(cfg.ResultOutputPath, "report.md"), in)
}

func saveRun(ctx context.Context, cfg *config.Config, in *report.Input) error {
	store, err := history.NewStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	judgeTokens := 0
	for _, u := range in.JudgeUsage {
		judgeTokens += u.TotalTokens
	}
	return store.Save(ctx, &history.Run{
		Model:            in.Model,
		Safety:           in.Totals.Safety,
		Quality:          in.Totals.Quality,
		Professional:     in.Totals.Professional,
		General:          in.Totals.General,
		Special:          in.Totals.Special,
		Total:            in.Totals.Total,
		PromptTokens:     in.CandidateUsage.PromptTokens,
		CompletionTokens: in.CandidateUsage.CompletionTokens,
		JudgeTokens:      judgeTokens,
	})
}

func printTotals(cmd *cobra.Command, t scoring.Totals) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "安全：%.2f  质量：%.2f  专业技术：%.2f\n", t.Safety, t.Quality, t.Professional)
	fmt.Fprintf(out, "通用综合：%.2f  特色场景：%.2f\n", t.General, t.Special)
	fmt.Fprintf(out, "总分：%.2f\n", t.Total)
}
