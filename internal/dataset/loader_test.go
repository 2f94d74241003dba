package dataset

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeQuestionFile(t *testing.T, dir, name string, items []Item) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	b, err := json.Marshal(items)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func testPaths(t *testing.T) ModulePaths {
	t.Helper()
	root := t.TempDir()
	return ModulePaths{
		Professional: filepath.Join(root, "1专业技术"),
		General:      filepath.Join(root, "2通用综合"),
		Special:      filepath.Join(root, "3特色场景"),
	}
}

func TestLoadAllModules(t *testing.T) {
	paths := testPaths(t)
	writeQuestionFile(t, paths.Professional, "1-1安全/a.json", []Item{
		{ID: "1", Type: TypeSingleChoice, Domain: DomainSafety, SafetyType: "高处作业", Answer: "A"},
	})
	writeQuestionFile(t, paths.General, "基础理论.json", []Item{
		{ID: "1", Type: TypeMultiChoice, ProjectCategory: "房建", BlockType: "基础理论", Answer: "AB"},
	})

	questions, err := Load([]Selection{{All: true}}, paths, quietLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("len(questions): got %d want 2", len(questions))
	}

	rels := map[string]bool{}
	for _, q := range questions {
		rels[q.Rel] = true
	}
	if !rels["1专业技术/1-1安全/a.json"] || !rels["2通用综合/基础理论.json"] {
		t.Fatalf("rel paths: %v", rels)
	}
}

func TestLoadFiltersBySelection(t *testing.T) {
	paths := testPaths(t)
	writeQuestionFile(t, paths.Professional, "1-1安全/a.json", []Item{
		{ID: "1", Type: TypeSingleChoice, Domain: DomainSafety, SafetyType: "高处作业"},
		{ID: "2", Type: TypeSingleChoice, Domain: DomainSafety, SafetyType: "基坑"},
	})
	writeQuestionFile(t, paths.General, "基础理论.json", []Item{
		{ID: "1", Type: TypeSingleChoice, ProjectCategory: "房建", BlockType: "基础理论"},
	})

	sels := []Selection{{Parts: []string{"1专业技术", "安全", "高处作业"}}}
	questions, err := Load(sels, paths, quietLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("len(questions): got %d want 1", len(questions))
	}
	if questions[0].Item.SafetyType != "高处作业" {
		t.Fatalf("wrong item selected: %+v", questions[0].Item)
	}
}

func TestLoadSkipsUnreadableFile(t *testing.T) {
	paths := testPaths(t)
	writeQuestionFile(t, paths.Professional, "1-1安全/good.json", []Item{
		{ID: "1", Type: TypeSingleChoice, Domain: DomainSafety},
	})
	if err := os.WriteFile(filepath.Join(paths.Professional, "1-1安全", "bad.json"), []byte("{oops"), 0o644); err != nil {
		t.Fatalf("write bad file: %v", err)
	}

	questions, err := Load([]Selection{{All: true}}, paths, quietLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("len(questions): got %d want 1", len(questions))
	}
}
