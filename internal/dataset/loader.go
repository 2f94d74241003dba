package dataset

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ModulePaths are the three top-level question bank roots, passed explicitly
// by the caller (no ambient default root).
type ModulePaths struct {
	Professional string // 1专业技术
	General      string // 2通用综合
	Special      string // 3特色场景
}

type moduleRoot struct {
	path   string
	prefix string
}

func (p ModulePaths) roots() []moduleRoot {
	return []moduleRoot{
		{path: p.Professional, prefix: "1专业技术"},
		{path: p.General, prefix: "2通用综合"},
		{path: p.Special, prefix: "3特色场景"},
	}
}

func (p ModulePaths) rootsFor(sels []Selection) []moduleRoot {
	all := p.roots()
	if SelectsAll(sels) {
		return all
	}

	var need []moduleRoot
	seen := make(map[string]bool, 3)
	for _, s := range sels {
		if len(s.Parts) == 0 {
			continue
		}
		for _, r := range all {
			if strings.Contains(s.Parts[0], strings.TrimLeft(r.prefix, "123")) && !seen[r.prefix] {
				seen[r.prefix] = true
				need = append(need, r)
			}
		}
	}
	if len(need) == 0 {
		return all
	}
	return need
}

// Load walks the selected module roots, reads every question file, and keeps
// the items matched by the selections. Unreadable files are skipped so one
// bad file cannot abort the load. Per-selection question-type stats are
// logged on the way out.
func Load(sels []Selection, paths ModulePaths, logger *slog.Logger) ([]Question, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(sels) == 0 {
		sels = []Selection{{All: true}}
	}

	files := listQuestionFiles(paths.rootsFor(sels), logger)

	var out []Question
	stats := make([]map[string]int, len(sels))
	for i := range stats {
		stats[i] = make(map[string]int)
	}

	for _, qf := range files {
		items, err := readItems(qf.path)
		if err != nil {
			logger.Warn("skipping unreadable question file", "path", qf.path, "error", err)
			continue
		}

		for _, it := range items {
			if SelectsAll(sels) {
				out = append(out, Question{Src: qf.path, Rel: qf.rel, Item: it})
				stats[0][it.Type]++
				continue
			}
			for i, s := range sels {
				if s.matches(&it) {
					out = append(out, Question{Src: qf.path, Rel: qf.rel, Item: it})
					stats[i][it.Type]++
					break
				}
			}
		}
	}

	for i, s := range sels {
		name := "全部"
		if !s.All {
			name = strings.Join(s.Parts, "-")
		}
		total := 0
		for _, n := range stats[i] {
			total += n
		}
		if total == 0 {
			logger.Warn("selection matched no questions", "selection", name)
			continue
		}
		logger.Info("selection loaded", "selection", name, "total", total, "by_type", stats[i])
	}

	return out, nil
}

type questionFile struct {
	path string
	rel  string
}

func listQuestionFiles(roots []moduleRoot, logger *slog.Logger) []questionFile {
	var out []questionFile
	for _, r := range roots {
		root := strings.TrimSpace(r.path)
		if root == "" {
			continue
		}
		if _, err := os.Stat(root); err != nil {
			logger.Warn("question directory not found", "path", root)
			continue
		}

		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
				return nil
			}
			inside, relErr := filepath.Rel(root, path)
			if relErr != nil {
				inside = d.Name()
			}
			out = append(out, questionFile{
				path: path,
				rel:  filepath.ToSlash(filepath.Join(r.prefix, inside)),
			})
			return nil
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out
}

func readItems(path string) ([]Item, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []Item
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, err
	}
	return items, nil
}
