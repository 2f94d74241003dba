package prompt

import (
	"strings"
	"testing"

	"github.com/2719104587/MESBench/internal/dataset"
)

func TestBuildPerType(t *testing.T) {
	tests := []struct {
		qType string
		want  string
	}{
		{dataset.TypeSingleChoice, "单选题"},
		{dataset.TypeMultiChoice, "多选题"},
		{dataset.TypeTrueFalse, "判断"},
		{dataset.TypeOpenEnded, "问答题"},
		{"未知类型", "问答题"},
	}
	for _, tt := range tests {
		it := &dataset.Item{Type: tt.qType, Question: "  题干内容  "}
		got := Build(it)
		if !strings.Contains(got, tt.want) {
			t.Fatalf("Build(%s): prompt %q missing %q", tt.qType, got, tt.want)
		}
		if !strings.Contains(got, "题干内容") || strings.Contains(got, "  题干内容") {
			t.Fatalf("Build(%s): question not trimmed into prompt: %q", tt.qType, got)
		}
	}
}

func TestBuildJudge(t *testing.T) {
	got := BuildJudge("题目", "标准", "回答", false)
	for _, want := range []string{"题目", "标准", "回答", "0 到 100"} {
		if !strings.Contains(got, want) {
			t.Fatalf("judge prompt missing %q: %q", want, got)
		}
	}

	en := BuildJudge("q", "r", "a", true)
	if !strings.Contains(en, "strict examiner") {
		t.Fatalf("english judge prompt: %q", en)
	}
}
