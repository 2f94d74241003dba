package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/2719104587/MESBench/internal/llm"
	"github.com/2719104587/MESBench/internal/scoring"
)

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "scores.csv")
	rows := []scoring.Row{
		{Section: "1-1安全", Level: "安全类型", Name: "高处作业", Score: 74},
		{Section: "整体", Level: "总分", Name: "总分", Score: 52.5},
	}
	if err := WriteCSV(path, rows); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records): got %d want 3", len(records))
	}
	if records[0][0] != "部分" || records[0][3] != "分数" {
		t.Fatalf("header: %v", records[0])
	}
	if records[1][3] != "74.00" {
		t.Fatalf("score formatting: got %q want %q", records[1][3], "74.00")
	}
	if records[2][3] != "52.50" {
		t.Fatalf("score formatting: got %q want %q", records[2][3], "52.50")
	}
}

func TestWriteMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	in := &Input{
		Model: "test-model",
		Rows: []scoring.Row{
			{Section: "1-1安全", Level: "安全类型", Name: "高处作业", Score: 90},
			{Section: "1-1安全", Level: "安全类型", Name: "基坑", Score: 40},
			{Section: "1-1安全", Level: "安全类型", Name: "用电", Score: 65},
		},
		Totals:         scoring.Totals{Safety: 65, Total: 32.5},
		CandidateUsage: llm.Usage{PromptTokens: 100, CompletionTokens: 200, TotalTokens: 300},
		JudgeUsage: map[string]llm.Usage{
			"judge-a": {PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		},
	}
	if err := WriteMarkdown(path, in); err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	body := string(b)

	for _, want := range []string{
		"# 评测报告：test-model",
		"## 总览",
		"| **总分** | **32.50** |",
		"## Token 消耗统计",
		"| judge-a | 评分模型 | 10 | 5 | 15 |",
		"## 强项与弱项",
		"高处作业（90.00）",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("report missing %q\n%s", want, body)
		}
	}

	// Weakest entry must lead the 弱项 list.
	weak := body[strings.Index(body, "弱项："):]
	if !strings.HasPrefix(weak, "弱项：基坑（40.00）") {
		t.Fatalf("weakness ordering: %q", weak[:60])
	}
}

func TestWriteMarkdownNilInput(t *testing.T) {
	if err := WriteMarkdown(filepath.Join(t.TempDir(), "r.md"), nil); err == nil {
		t.Fatal("nil input must fail")
	}
}
