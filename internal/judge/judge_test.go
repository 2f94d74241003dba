package judge

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/2719104587/MESBench/internal/config"
	"github.com/2719104587/MESBench/internal/llm"
)

type fakeJudge struct {
	mu     sync.Mutex
	calls  int
	answer string
	fail   bool
}

func (f *fakeJudge) Name() string { return "fake-judge" }

func (f *fakeJudge) Generate(ctx context.Context, prompt string) (*llm.Generation, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fail {
		return nil, errors.New("fake judge failure")
	}
	return &llm.Generation{
		Answer: f.answer,
		Usage:  llm.Usage{PromptTokens: 5, CompletionTokens: 1, TotalTokens: 6},
	}, nil
}

func (f *fakeJudge) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func judgeConfig(name string) config.ModelConfig {
	return config.ModelConfig{
		ModelName:   name,
		Concurrency: 2,
		MaxRetries:  1,
		MaxTokens:   64,
		Timeout:     config.Duration(time.Second),
	}
}

func testOrchestrator(root string, providers map[string]llm.Provider) *Orchestrator {
	o := &Orchestrator{
		resultRoot: root,
		logger:     quietLogger(),
	}
	for name, p := range providers {
		o.judges = append(o.judges, judgeConfig(name))
		o.clients = append(o.clients, llm.NewClient(p, 1, quietLogger()))
	}
	return o
}

func testItem(rel, id string) Item {
	return Item{
		Rel:      rel,
		ID:       id,
		Question: "问题" + id,
		Rubric:   "要点",
		Answer:   "回答" + id,
	}
}

func TestRunJudgesMissingAndPersists(t *testing.T) {
	root := t.TempDir()
	rel := "1专业技术/1-1安全/a.json"
	fj := &fakeJudge{answer: "最终得分：85"}
	o := testOrchestrator(root, map[string]llm.Provider{"fake-judge": fj})

	scores, usage, err := o.Run(context.Background(), []Item{testItem(rel, "q1")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := scores[Key{Rel: rel, ID: "q1"}]; got != 85 {
		t.Fatalf("score: got %v want 85", got)
	}
	if usage["fake-judge"].TotalTokens != 6 {
		t.Fatalf("usage: got %+v", usage["fake-judge"])
	}
	if fj.callCount() != 1 {
		t.Fatalf("calls: got %d want 1", fj.callCount())
	}

	b, err := os.ReadFile(filepath.Join(root, CacheDir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read cache: %v", err)
	}
	var entries []*Entry
	if err := json.Unmarshal(b, &entries); err != nil {
		t.Fatalf("decode cache: %v", err)
	}
	if len(entries) != 1 || !entries[0].Judges["fake-judge"].Complete() {
		t.Fatalf("cache not persisted: %+v", entries)
	}
}

func TestRunReusesCachedScores(t *testing.T) {
	root := t.TempDir()
	rel := "1专业技术/1-1安全/a.json"

	// First run populates the cache.
	first := &fakeJudge{answer: "90"}
	o1 := testOrchestrator(root, map[string]llm.Provider{"fake-judge": first})
	if _, _, err := o1.Run(context.Background(), []Item{testItem(rel, "q1")}); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	// Second run must read the score from disk: the provider always fails,
	// so any call would surface as a missing score.
	second := &fakeJudge{fail: true}
	o2 := testOrchestrator(root, map[string]llm.Provider{"fake-judge": second})
	scores, _, err := o2.Run(context.Background(), []Item{testItem(rel, "q1")})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if got := scores[Key{Rel: rel, ID: "q1"}]; got != 90 {
		t.Fatalf("cached score: got %v want 90", got)
	}
	if second.callCount() != 0 {
		t.Fatalf("calls on cached run: got %d want 0", second.callCount())
	}
}

func TestRunFailedJudgeStaysPending(t *testing.T) {
	root := t.TempDir()
	rel := "1专业技术/1-1安全/a.json"

	failing := &fakeJudge{fail: true}
	o1 := testOrchestrator(root, map[string]llm.Provider{"fake-judge": failing})
	scores, _, err := o1.Run(context.Background(), []Item{testItem(rel, "q1")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, ok := scores[Key{Rel: rel, ID: "q1"}]; ok {
		t.Fatal("failed judging must not yield a score")
	}

	// The incomplete detail keeps the item pending: a later run with a
	// working judge fills it in.
	working := &fakeJudge{answer: "75"}
	o2 := testOrchestrator(root, map[string]llm.Provider{"fake-judge": working})
	scores, _, err = o2.Run(context.Background(), []Item{testItem(rel, "q1")})
	if err != nil {
		t.Fatalf("retry Run: %v", err)
	}
	if got := scores[Key{Rel: rel, ID: "q1"}]; got != 75 {
		t.Fatalf("retried score: got %v want 75", got)
	}
	if working.callCount() != 1 {
		t.Fatalf("calls: got %d want 1", working.callCount())
	}
}

func TestRunMultiJudgeMean(t *testing.T) {
	root := t.TempDir()
	rel := "1专业技术/1-1安全/a.json"

	a := &fakeJudge{answer: "80"}
	b := &fakeJudge{answer: "60"}
	o := &Orchestrator{
		resultRoot: root,
		logger:     quietLogger(),
		judges:     []config.ModelConfig{judgeConfig("judge-a"), judgeConfig("judge-b")},
		clients: []*llm.Client{
			llm.NewClient(a, 1, quietLogger()),
			llm.NewClient(b, 1, quietLogger()),
		},
	}

	scores, _, err := o.Run(context.Background(), []Item{testItem(rel, "q1")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := scores[Key{Rel: rel, ID: "q1"}]; got != 70 {
		t.Fatalf("mean score: got %v want 70", got)
	}
}

func TestSafeRel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1专业技术/1-1安全/a.json", "1专业技术/1-1安全/a.json"},
		{"a\\b\\c.json", "a/b/c.json"},
		{"../escape.json", "escape.json"},
		{"", "unknown.json"},
		{".", "unknown.json"},
	}
	for _, tt := range tests {
		if got := safeRel(tt.in); got != tt.want {
			t.Fatalf("safeRel(%q): got %q want %q", tt.in, got, tt.want)
		}
	}
}
