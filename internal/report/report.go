// Package report renders a scoring result as a CSV score table and a
// human-readable Markdown summary.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/2719104587/MESBench/internal/llm"
	"github.com/2719104587/MESBench/internal/scoring"
)

// Input carries everything the Markdown report needs for one run.
type Input struct {
	Model          string
	Rows           []scoring.Row
	Totals         scoring.Totals
	CandidateUsage llm.Usage
	JudgeUsage     map[string]llm.Usage
	StartedAt      time.Time
	FinishedAt     time.Time
}

// WriteCSV writes the flattened score rows as a UTF-8 CSV file.
func WriteCSV(path string, rows []scoring.Row) error {
	if path == "" {
		return errors.New("report: empty csv path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: create csv dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"部分", "层级", "名称", "分数"}); err != nil {
		return fmt.Errorf("report: write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{r.Section, r.Level, r.Name, formatScore(r.Score)}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("report: write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("report: flush csv: %w", err)
	}
	return nil
}

// WriteMarkdown writes the run summary report.
func WriteMarkdown(path string, in *Input) error {
	if path == "" {
		return errors.New("report: empty report path")
	}
	if in == nil {
		return errors.New("report: nil input")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: create report dir: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# 评测报告：%s\n\n", in.Model)
	if !in.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "评测时间：%s\n\n", in.FinishedAt.Format("2006-01-02 15:04:05"))
		if !in.StartedAt.IsZero() {
			fmt.Fprintf(&b, "评测耗时：%s\n\n", in.FinishedAt.Sub(in.StartedAt).Round(time.Second))
		}
	}

	writeOverview(&b, in.Totals)
	writeUsage(&b, in)
	writeHighlights(&b, in.Rows)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("report: write report: %w", err)
	}
	return nil
}

func writeOverview(b *strings.Builder, t scoring.Totals) {
	b.WriteString("## 总览\n\n")
	b.WriteString("| 模块 | 分数 |\n|---|---|\n")
	fmt.Fprintf(b, "| 安全 | %s |\n", formatScore(t.Safety))
	fmt.Fprintf(b, "| 质量 | %s |\n", formatScore(t.Quality))
	fmt.Fprintf(b, "| 专业技术 | %s |\n", formatScore(t.Professional))
	fmt.Fprintf(b, "| 通用综合 | %s |\n", formatScore(t.General))
	fmt.Fprintf(b, "| 特色场景 | %s |\n", formatScore(t.Special))
	fmt.Fprintf(b, "| **总分** | **%s** |\n\n", formatScore(t.Total))
}

func writeUsage(b *strings.Builder, in *Input) {
	b.WriteString("## Token 消耗统计\n\n")
	b.WriteString("| 模型 | 角色 | 输入 Token | 输出 Token | 总计 |\n|---|---|---|---|---|\n")
	fmt.Fprintf(b, "| %s | 被测模型 | %d | %d | %d |\n",
		in.Model, in.CandidateUsage.PromptTokens, in.CandidateUsage.CompletionTokens, in.CandidateUsage.TotalTokens)

	names := make([]string, 0, len(in.JudgeUsage))
	for name := range in.JudgeUsage {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		u := in.JudgeUsage[name]
		fmt.Fprintf(b, "| %s | 评分模型 | %d | %d | %d |\n",
			name, u.PromptTokens, u.CompletionTokens, u.TotalTokens)
	}
	b.WriteString("\n")
}

// highlightLevels are the taxonomy levels worth calling out as strengths
// and weaknesses in the report.
var highlightLevels = []string{"安全类型", "子分部工程", "板块类型", "专业类别"}

func writeHighlights(b *strings.Builder, rows []scoring.Row) {
	b.WriteString("## 强项与弱项\n\n")
	for _, level := range highlightLevels {
		var picked []scoring.Row
		for _, r := range rows {
			if r.Level == level {
				picked = append(picked, r)
			}
		}
		if len(picked) == 0 {
			continue
		}
		sort.SliceStable(picked, func(i, j int) bool { return picked[i].Score > picked[j].Score })

		fmt.Fprintf(b, "### %s\n\n", level)
		b.WriteString("强项：")
		b.WriteString(joinRows(picked[:min(3, len(picked))]))
		b.WriteString("\n\n弱项：")
		bottom := picked[max(0, len(picked)-3):]
		sorted := make([]scoring.Row, len(bottom))
		copy(sorted, bottom)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score < sorted[j].Score })
		b.WriteString(joinRows(sorted))
		b.WriteString("\n\n")
	}
}

func joinRows(rows []scoring.Row) string {
	parts := make([]string, 0, len(rows))
	for _, r := range rows {
		parts = append(parts, fmt.Sprintf("%s（%s）", r.Name, formatScore(r.Score)))
	}
	return strings.Join(parts, "、")
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
