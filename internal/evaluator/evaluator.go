// Package evaluator drives the candidate model over the question set,
// grouped by source file, and persists one answer artifact per group.
package evaluator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/2719104587/MESBench/internal/dataset"
	"github.com/2719104587/MESBench/internal/llm"
	"github.com/2719104587/MESBench/internal/prompt"
)

// RawDir is the sub-directory of the result root holding answer artifacts.
const RawDir = "raw"

// ProgressFunc receives the running question counter. Skipped groups count
// as if fully processed.
type ProgressFunc func(done, total int64)

// Orchestrator fans evaluation requests out per source-file group under a
// candidate-wide concurrency bound and checkpoints one artifact per group.
type Orchestrator struct {
	client      *llm.Client
	resultRoot  string
	concurrency int
	logger      *slog.Logger
	progress    ProgressFunc

	done  atomic.Int64
	total int64
}

func New(client *llm.Client, resultRoot string, concurrency int, logger *slog.Logger) *Orchestrator {
	if concurrency <= 0 {
		concurrency = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		client:      client,
		resultRoot:  resultRoot,
		concurrency: concurrency,
		logger:      logger,
	}
}

// OnProgress registers a progress callback. Must be set before Run.
func (o *Orchestrator) OnProgress(fn ProgressFunc) { o.progress = fn }

// Run evaluates every question, returning the artifact paths and summed
// token usage across all newly evaluated questions. A per-question failure
// degrades to an empty-answer record; it never aborts the group or the run.
func (o *Orchestrator) Run(ctx context.Context, questions []dataset.Question) ([]string, llm.Usage, error) {
	if o == nil {
		return nil, llm.Usage{}, errors.New("evaluator: nil orchestrator")
	}
	if ctx == nil {
		return nil, llm.Usage{}, errors.New("evaluator: nil context")
	}
	if o.client == nil {
		return nil, llm.Usage{}, errors.New("evaluator: nil client")
	}

	if err := os.MkdirAll(o.resultRoot, 0o755); err != nil {
		return nil, llm.Usage{}, fmt.Errorf("evaluator: create result root: %w", err)
	}

	rels, groups := groupBySource(questions)
	o.total = int64(len(questions))
	o.done.Store(0)

	sem := make(chan struct{}, o.concurrency)
	paths := make([]string, len(rels))
	usages := make([]llm.Usage, len(rels))
	errs := make([]error, len(rels))

	var wg sync.WaitGroup
	for i, rel := range rels {
		wg.Add(1)
		go func(idx int, rel string, items []dataset.Item) {
			defer wg.Done()
			path, usage, err := o.runGroup(ctx, sem, rel, items)
			paths[idx] = path
			usages[idx] = usage
			errs[idx] = err
		}(i, rel, groups[rel])
	}
	wg.Wait()

	var total llm.Usage
	for i := range rels {
		if errs[i] != nil {
			return paths, total, errs[i]
		}
		total.Add(usages[i])
	}
	return paths, total, nil
}

func groupBySource(questions []dataset.Question) ([]string, map[string][]dataset.Item) {
	var rels []string
	groups := make(map[string][]dataset.Item)
	for _, q := range questions {
		rel := q.Rel
		if rel == "" {
			rel = "unknown.json"
		}
		if _, ok := groups[rel]; !ok {
			rels = append(rels, rel)
		}
		groups[rel] = append(groups[rel], q.Item)
	}
	return rels, groups
}

func (o *Orchestrator) runGroup(ctx context.Context, sem chan struct{}, rel string, items []dataset.Item) (string, llm.Usage, error) {
	outPath := filepath.Join(o.resultRoot, RawDir, filepath.FromSlash(rel))

	if groupDone(outPath) {
		o.logger.Info("skipping evaluated group", "file", rel, "items", len(items))
		o.advance(int64(len(items)))
		return outPath, llm.Usage{}, nil
	}

	records := make([]Record, len(items))
	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				records[idx] = emptyRecord(items[idx])
				o.advance(1)
				return
			}
			defer func() { <-sem }()

			records[idx] = o.evalOne(ctx, &items[idx])
			o.advance(1)
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return "", llm.Usage{}, err
	}

	var usage llm.Usage
	for i := range records {
		usage.Add(records[i].Usage)
	}

	if err := writeArtifact(outPath, records); err != nil {
		return "", usage, err
	}
	return outPath, usage, nil
}

func (o *Orchestrator) evalOne(ctx context.Context, it *dataset.Item) Record {
	p := prompt.Build(it)
	rec := Record{Item: *it, Prompt: p}

	gen, ok := o.client.Generate(ctx, p)
	if !ok {
		return rec
	}
	rec.Reasoning = gen.Reasoning
	rec.ModelAnswer = gen.Answer
	rec.Usage = gen.Usage
	return rec
}

func emptyRecord(it dataset.Item) Record {
	return Record{Item: it, Prompt: prompt.Build(&it)}
}

func (o *Orchestrator) advance(n int64) {
	done := o.done.Add(n)
	if o.progress != nil {
		o.progress(done, o.total)
	}
}

// groupDone reports whether the group's artifact already exists, is
// non-empty, and parses as a non-empty record list. The check is file
// granular: a valid but incomplete artifact still counts as done.
func groupDone(path string) bool {
	b, err := os.ReadFile(path)
	if err != nil || len(b) == 0 {
		return false
	}
	var records []Record
	if err := json.Unmarshal(b, &records); err != nil {
		return false
	}
	return len(records) > 0
}

// writeArtifact writes the full group atomically: temp file in the target
// directory, then rename.
func writeArtifact(path string, records []Record) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("evaluator: create artifact dir: %w", err)
	}

	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("evaluator: encode artifact: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".eval-*.json")
	if err != nil {
		return fmt.Errorf("evaluator: temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("evaluator: write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("evaluator: close artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("evaluator: rename artifact: %w", err)
	}
	return nil
}
