package judge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// CacheDir is the sub-directory of the result root holding judge artifacts,
// mirroring the evaluated-answer tree by source-relative path.
const CacheDir = "judge"

// Detail records one judge model's attempt at one item. Score is nil until a
// valid integer was parsed; a nil Score keeps the pair a pending work item on
// future runs.
type Detail struct {
	Prompt    string `json:"提示词"`
	Reasoning string `json:"思考过程"`
	RawAnswer string `json:"模型回答"`
	Score     *int   `json:"模型回答_int"`
}

// Complete reports whether this judge's score is final. Once true the entry
// is never recomputed.
func (d *Detail) Complete() bool {
	return d != nil && d.Score != nil
}

// Entry is the per-question cache record, keyed by question id within its
// source file and appended-to monotonically per judge model.
type Entry struct {
	ID       string             `json:"id"`
	Question string             `json:"问题"`
	Rubric   string             `json:"得分比例,omitempty"`
	Answer   string             `json:"模型回答"`
	Judges   map[string]*Detail `json:"judges"`
}

type cacheFile struct {
	path    string
	entries []*Entry
	byID    map[string]*Entry
	dirty   bool
}

// loadCacheFile reads a judge artifact, treating a missing or unreadable
// file as an empty cache (full recompute for that file).
func loadCacheFile(path string) *cacheFile {
	cf := &cacheFile{path: path, byID: make(map[string]*Entry)}

	b, err := os.ReadFile(path)
	if err != nil || len(b) == 0 {
		return cf
	}
	var entries []*Entry
	if err := json.Unmarshal(b, &entries); err != nil {
		return cf
	}

	for _, e := range entries {
		if e == nil || e.ID == "" {
			continue
		}
		if e.Judges == nil {
			e.Judges = make(map[string]*Detail)
		}
		cf.entries = append(cf.entries, e)
		cf.byID[e.ID] = e
	}
	return cf
}

func (cf *cacheFile) entry(id string) *Entry {
	return cf.byID[id]
}

func (cf *cacheFile) add(e *Entry) {
	if e.Judges == nil {
		e.Judges = make(map[string]*Detail)
	}
	cf.entries = append(cf.entries, e)
	cf.byID[e.ID] = e
	cf.dirty = true
}

// write rewrites the whole file: judge caches are read-modify-write, never
// appended in place.
func (cf *cacheFile) write() error {
	dir := filepath.Dir(cf.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("judge: create cache dir: %w", err)
	}

	b, err := json.MarshalIndent(cf.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("judge: encode cache: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".judge-*.json")
	if err != nil {
		return fmt.Errorf("judge: temp cache: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("judge: write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("judge: close cache: %w", err)
	}
	if err := os.Rename(tmpName, cf.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("judge: rename cache: %w", err)
	}
	return nil
}
