// Package judge grades open-ended answers with one or more judge models,
// caching per-item scores on disk so completed work is never redone.
package judge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/2719104587/MESBench/internal/config"
	"github.com/2719104587/MESBench/internal/llm"
	"github.com/2719104587/MESBench/internal/prompt"
)

// Item is one open-ended answer to grade.
type Item struct {
	Rel      string // source-relative artifact path
	ID       string
	Question string
	Rubric   string
	Answer   string
}

// Key identifies an item across the whole run. Question ids are unique only
// within one source file, so the pair is the lookup key everywhere.
type Key struct {
	Rel string
	ID  string
}

// Orchestrator computes missing (item, judge model) scores under per-judge
// concurrency bounds and merges multi-judge results.
type Orchestrator struct {
	judges     []config.ModelConfig
	clients    []*llm.Client
	resultRoot string
	english    bool
	logger     *slog.Logger

	mu sync.Mutex
}

func New(judges []config.ModelConfig, resultRoot string, english bool, logger *slog.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	o := &Orchestrator{
		judges:     judges,
		resultRoot: resultRoot,
		english:    english,
		logger:     logger,
	}
	for _, j := range judges {
		client, err := llm.NewClientFromConfig(j, logger)
		if err != nil {
			return nil, fmt.Errorf("judge: model %q: %w", j.ModelName, err)
		}
		o.clients = append(o.clients, client)
	}
	return o, nil
}

// HasJudges reports whether any judge model is configured. Without judges
// open-ended items simply yield no score.
func (o *Orchestrator) HasJudges() bool {
	return o != nil && len(o.judges) > 0
}

// Run grades every item, using cached scores where present. It returns the
// per-item mean of valid judge scores (items with no valid score are absent
// from the map) and the token usage per judge model for calls made this run.
func (o *Orchestrator) Run(ctx context.Context, items []Item) (map[Key]float64, map[string]llm.Usage, error) {
	if o == nil {
		return nil, nil, errors.New("judge: nil orchestrator")
	}
	if ctx == nil {
		return nil, nil, errors.New("judge: nil context")
	}

	scores := make(map[Key]float64)
	usage := make(map[string]llm.Usage)
	for _, j := range o.judges {
		usage[j.ModelName] = llm.Usage{}
	}
	if len(o.judges) == 0 || len(items) == 0 {
		return scores, usage, nil
	}

	// Per-judge semaphores: a slow or low-limit judge must not block others.
	sems := make(map[string]chan struct{}, len(o.judges))
	for _, j := range o.judges {
		n := j.Concurrency
		if n <= 0 {
			n = 2
		}
		sems[j.ModelName] = make(chan struct{}, n)
	}

	caches := make(map[string]*cacheFile)
	loadCache := func(rel string) *cacheFile {
		if cf, ok := caches[rel]; ok {
			return cf
		}
		cf := loadCacheFile(filepath.Join(o.resultRoot, CacheDir, filepath.FromSlash(safeRel(rel))))
		caches[rel] = cf
		return cf
	}

	type task struct {
		item     Item
		judgeIdx int
		entry    *Entry
	}

	var tasks []task
	missingByRel := make(map[string]int)
	totalByRel := make(map[string]int)

	for _, it := range items {
		rel := safeRel(it.Rel)
		totalByRel[rel]++
		cf := loadCache(rel)

		entry := cf.entry(it.ID)
		if entry == nil {
			entry = &Entry{
				ID:       it.ID,
				Question: it.Question,
				Rubric:   it.Rubric,
				Answer:   it.Answer,
			}
			cf.add(entry)
		}

		for idx, j := range o.judges {
			if entry.Judges[j.ModelName].Complete() {
				continue
			}
			cf.dirty = true
			missingByRel[rel]++
			tasks = append(tasks, task{item: it, judgeIdx: idx, entry: entry})
		}
	}

	for rel, n := range totalByRel {
		if missingByRel[rel] == 0 {
			o.logger.Info("skipping judged file", "file", rel, "items", n)
		}
	}

	if len(tasks) > 0 {
		o.logger.Info("judging open-ended answers", "pending", len(tasks), "judges", len(o.judges))

		var wg sync.WaitGroup
		for _, t := range tasks {
			wg.Add(1)
			go func(t task) {
				defer wg.Done()

				model := o.judges[t.judgeIdx].ModelName
				sem := sems[model]
				select {
				case sem <- struct{}{}:
				case <-ctx.Done():
					return
				}
				defer func() { <-sem }()

				detail, u := o.judgeOne(ctx, o.clients[t.judgeIdx], &t.item)

				o.mu.Lock()
				t.entry.Judges[model] = detail
				total := usage[model]
				total.Add(u)
				usage[model] = total
				o.mu.Unlock()
			}(t)
		}
		wg.Wait()
	}

	for rel, cf := range caches {
		if !cf.dirty {
			continue
		}
		if err := cf.write(); err != nil {
			return scores, usage, err
		}
		o.logger.Info("judge cache rewritten", "file", rel, "entries", len(cf.entries))
	}

	for _, it := range items {
		rel := safeRel(it.Rel)
		entry := loadCache(rel).entry(it.ID)
		if entry == nil {
			continue
		}
		sum, n := 0, 0
		for _, j := range o.judges {
			if d := entry.Judges[j.ModelName]; d.Complete() {
				sum += *d.Score
				n++
			}
		}
		if n > 0 {
			scores[Key{Rel: rel, ID: it.ID}] = float64(sum) / float64(n)
		}
	}

	return scores, usage, ctx.Err()
}

func (o *Orchestrator) judgeOne(ctx context.Context, client *llm.Client, it *Item) (*Detail, llm.Usage) {
	p := prompt.BuildJudge(it.Question, it.Rubric, it.Answer, o.english)
	detail := &Detail{Prompt: p}

	gen, ok := client.Generate(ctx, p)
	if !ok {
		return detail, llm.Usage{}
	}

	detail.Reasoning = gen.Reasoning
	detail.RawAnswer = gen.Answer
	if score, ok := ParseScore(gen.Answer); ok {
		detail.Score = &score
	}
	return detail, gen.Usage
}

// safeRel normalizes an artifact-relative path and refuses to escape the
// cache root.
func safeRel(rel string) string {
	rel = strings.ReplaceAll(strings.TrimSpace(rel), "\\", "/")
	rel = filepath.ToSlash(filepath.Clean(filepath.FromSlash(rel)))
	if rel == "" || rel == "." {
		return "unknown.json"
	}
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, "../") {
		return filepath.Base(rel)
	}
	return rel
}
