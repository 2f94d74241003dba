// Package scoring reconstructs the domain taxonomy from evaluation
// artifacts and folds raw correctness signals up into a weighted score
// report.
package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/2719104587/MESBench/internal/config"
	"github.com/2719104587/MESBench/internal/dataset"
	"github.com/2719104587/MESBench/internal/evaluator"
	"github.com/2719104587/MESBench/internal/judge"
	"github.com/2719104587/MESBench/internal/llm"
)

// Report sections and levels, as they appear in scores.csv.
const (
	SectionSafety       = "1-1安全"
	SectionQuality      = "1-2质量"
	SectionProfessional = "1专业技术"
	SectionGeneral      = "2通用综合"
	SectionSpecial      = "3特色场景"
	SectionOverall      = "整体"

	LevelOverall = "整体"
	LevelTotal   = "总分"
)

// Row is one flattened node of the aggregation tree, score in [0,100].
type Row struct {
	Section string  `json:"部分"`
	Level   string  `json:"层级"`
	Name    string  `json:"名称"`
	Score   float64 `json:"分数"`
}

// Totals summarizes the module scores and the grand total.
type Totals struct {
	Safety       float64 `json:"安全"`
	Quality      float64 `json:"质量"`
	Professional float64 `json:"专业技术"`
	General      float64 `json:"通用综合"`
	Special      float64 `json:"特色场景"`
	Total        float64 `json:"总分"`
}

// Result is the full score report plus judge token usage for this run.
type Result struct {
	Rows       []Row
	Totals     Totals
	JudgeUsage map[string]llm.Usage
}

// Engine computes the score report from persisted evaluation artifacts.
type Engine struct {
	resultRoot string
	weights    config.Weights
	judges     *judge.Orchestrator
	logger     *slog.Logger
}

func NewEngine(resultRoot string, weights config.Weights, judges *judge.Orchestrator, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		resultRoot: resultRoot,
		weights:    weights,
		judges:     judges,
		logger:     logger,
	}
}

type sourced struct {
	rec evaluator.Record
	rel string
}

// Compute reads every evaluation artifact, judge-scores the open-ended
// answers, and aggregates bottom-up through the taxonomy.
func (e *Engine) Compute(ctx context.Context) (*Result, error) {
	if e == nil {
		return nil, errors.New("scoring: nil engine")
	}
	if ctx == nil {
		return nil, errors.New("scoring: nil context")
	}

	items, err := e.loadRecords()
	if err != nil {
		return nil, err
	}

	security := newOmap[*omap[*leaf]]()
	quality := newOmap[*omap[*omap[*leaf]]]()
	general := newOmap[*leaf]()
	special := newOmap[*omap[*omap[*omap[*omap[*leaf]]]]]()

	for _, s := range items {
		path, ok := ParsePath(&s.rec.Item)
		if !ok {
			continue
		}
		switch p := path.(type) {
		case SafetyPath:
			lf := security.at(p.Type, newOmapOf[*leaf]).at(p.Specialty, newLeaf)
			lf.items = append(lf.items, s)
		case QualityPath:
			lf := quality.at(p.Division, newOmapOf[*omap[*leaf]]).at(p.SubDivision, newOmapOf[*leaf]).at(p.SubItem, newLeaf)
			lf.items = append(lf.items, s)
		case GeneralPath:
			lf := general.at(p.Block, newLeaf)
			lf.items = append(lf.items, s)
		case SpecialPath:
			lf := special.at(p.Domain, newOmapOf[*omap[*omap[*omap[*leaf]]]]).
				at(p.Category, newOmapOf[*omap[*omap[*leaf]]]).
				at(p.Specialty, newOmapOf[*omap[*leaf]]).
				at(p.SubSpecialty, newOmapOf[*leaf]).
				at(p.Detail, newLeaf)
			lf.items = append(lf.items, s)
		}
	}

	qaScores, judgeUsage, err := e.judgeOpenEnded(ctx, items)
	if err != nil {
		return nil, err
	}
	qaScore := func(s *sourced) (float64, bool) {
		if s.rec.ID == "" {
			return 0, false
		}
		v, ok := qaScores[judge.Key{Rel: s.rel, ID: s.rec.ID.String()}]
		return v, ok
	}

	var rows []Row
	totals := Totals{}

	secScore, secPresent := e.scoreSafety(security, qaScore, &rows)
	qualScore, qualPresent := e.scoreQuality(quality, qaScore, &rows)
	genScore := e.scoreGeneral(general, qaScore, &rows)
	specScore := e.scoreSpecial(special, &rows)

	w := e.weights
	proTotal := 0.0
	if secPresent || qualPresent {
		// Each branch is scaled by the complement of its own weight.
		proTotal = secScore*float64(100-w.Safety)/100 + qualScore*float64(100-w.Quality)/100
		rows = append(rows, Row{SectionProfessional, LevelOverall, "专业技术", round2(proTotal)})
	}

	total := proTotal*float64(w.ProfessionalTotal)/100 +
		genScore*float64(w.GeneralTotal)/100 +
		specScore*float64(w.SpecialTotal)/100
	rows = append(rows, Row{SectionOverall, LevelTotal, "总分", round2(total)})

	totals.Safety = round2(secScore)
	totals.Quality = round2(qualScore)
	totals.Professional = round2(proTotal)
	totals.General = round2(genScore)
	totals.Special = round2(specScore)
	totals.Total = round2(total)

	return &Result{Rows: rows, Totals: totals, JudgeUsage: judgeUsage}, nil
}

func (e *Engine) judgeOpenEnded(ctx context.Context, items []*sourced) (map[judge.Key]float64, map[string]llm.Usage, error) {
	if e.judges == nil || !e.judges.HasJudges() {
		return map[judge.Key]float64{}, map[string]llm.Usage{}, nil
	}

	var qa []judge.Item
	for _, s := range items {
		if s.rec.Type != dataset.TypeOpenEnded || s.rec.ID == "" {
			continue
		}
		qa = append(qa, judge.Item{
			Rel:      s.rel,
			ID:       s.rec.ID.String(),
			Question: s.rec.Question,
			Rubric:   s.rec.Rubric,
			Answer:   s.rec.ModelAnswer,
		})
	}
	return e.judges.Run(ctx, qa)
}

func (e *Engine) scoreSafety(security *omap[*omap[*leaf]], qaScore func(*sourced) (float64, bool), rows *[]Row) (float64, bool) {
	var typeScores []float64

	security.each(func(safetyType string, specs *omap[*leaf]) {
		var specScores []float64
		var qaItems []*sourced

		specs.each(func(specialty string, lf *leaf) {
			if specialty == Placeholder {
				for _, s := range lf.items {
					if s.rec.Type == dataset.TypeOpenEnded {
						qaItems = append(qaItems, s)
					}
				}
				return
			}
			score := objectiveScore(lf.items, e.weights.Professional)
			specScores = append(specScores, score)
			*rows = append(*rows, Row{SectionSafety, "安全专项", safetyType + "-" + specialty, round2(score)})
		})

		typeScore := blendQA(mean(specScores), qaItems, qaScore, e.weights.Professional.QA)
		typeScores = append(typeScores, typeScore)
		*rows = append(*rows, Row{SectionSafety, "安全类型", safetyType, round2(typeScore)})
	})

	if len(typeScores) == 0 {
		return 0, false
	}
	score := mean(typeScores)
	*rows = append(*rows, Row{SectionSafety, LevelOverall, dataset.DomainSafety, round2(score)})
	return score, true
}

func (e *Engine) scoreQuality(quality *omap[*omap[*omap[*leaf]]], qaScore func(*sourced) (float64, bool), rows *[]Row) (float64, bool) {
	var divScores []float64

	quality.each(func(division string, subs *omap[*omap[*leaf]]) {
		var subScores []float64

		subs.each(func(subDivision string, subItems *omap[*leaf]) {
			var itemScores []float64
			var qaItems []*sourced

			subItems.each(func(subItem string, lf *leaf) {
				if subItem == Placeholder {
					for _, s := range lf.items {
						if s.rec.Type == dataset.TypeOpenEnded {
							qaItems = append(qaItems, s)
						}
					}
					return
				}
				score := objectiveScore(lf.items, e.weights.Professional)
				itemScores = append(itemScores, score)
				*rows = append(*rows, Row{SectionQuality, "分项工程", division + "-" + subDivision + "-" + subItem, round2(score)})
			})

			subScore := blendQA(mean(itemScores), qaItems, qaScore, e.weights.Professional.QA)
			subScores = append(subScores, subScore)
			*rows = append(*rows, Row{SectionQuality, "子分部工程", division + "-" + subDivision, round2(subScore)})
		})

		divScore := mean(subScores)
		divScores = append(divScores, divScore)
		*rows = append(*rows, Row{SectionQuality, "分部工程", division, round2(divScore)})
	})

	if len(divScores) == 0 {
		return 0, false
	}
	score := mean(divScores)
	*rows = append(*rows, Row{SectionQuality, LevelOverall, dataset.DomainQuality, round2(score)})
	return score, true
}

func (e *Engine) scoreGeneral(general *omap[*leaf], qaScore func(*sourced) (float64, bool), rows *[]Row) float64 {
	weighted := 0.0

	general.each(func(block string, lf *leaf) {
		sc := typeAccuracy(lf.items, dataset.TypeSingleChoice, correctSingle)
		mc := typeAccuracy(lf.items, dataset.TypeMultiChoice, correctMulti)

		var qaVals []float64
		for _, s := range lf.items {
			if s.rec.Type != dataset.TypeOpenEnded {
				continue
			}
			if v, ok := qaScore(s); ok {
				qaVals = append(qaVals, v)
			}
		}

		w := e.weights.General
		blockScore := float64(w.Single)*sc + float64(w.Multi)*mc + float64(w.QA)/100*mean(qaVals)
		weighted += blockScore * float64(e.weights.NamedWeight(block))

		*rows = append(*rows, Row{SectionGeneral, "板块类型", block, round2(blockScore)})
	})

	score := weighted / 100
	if general.len() > 0 {
		*rows = append(*rows, Row{SectionGeneral, LevelOverall, "通用综合", round2(score)})
	}
	return score
}

func (e *Engine) scoreSpecial(special *omap[*omap[*omap[*omap[*omap[*leaf]]]]], rows *[]Row) float64 {
	weighted := 0.0
	present := false

	special.each(func(domain string, cats *omap[*omap[*omap[*omap[*leaf]]]]) {
		present = true
		var catScores []float64

		cats.each(func(category string, specs *omap[*omap[*omap[*leaf]]]) {
			var specScores []float64

			specs.each(func(specialty string, subSpecs *omap[*omap[*leaf]]) {
				var subSpecScores []float64

				subSpecs.each(func(subSpecialty string, details *omap[*leaf]) {
					var detailScores []float64

					details.each(func(detail string, lf *leaf) {
						score := objectiveScore(lf.items, e.weights.Special)
						detailScores = append(detailScores, score)
						if detail != "" {
							name := strings.Join([]string{domain, category, specialty, subSpecialty, detail}, "-")
							*rows = append(*rows, Row{SectionSpecial, "细分子专业", name, round2(score)})
						}
					})

					subSpecScore := mean(detailScores)
					subSpecScores = append(subSpecScores, subSpecScore)
					if subSpecialty != "" {
						name := strings.Join([]string{domain, category, specialty, subSpecialty}, "-")
						*rows = append(*rows, Row{SectionSpecial, "子专业专项", name, round2(subSpecScore)})
					}
				})

				specScore := mean(subSpecScores)
				specScores = append(specScores, specScore)
				if specialty != "" {
					name := strings.Join([]string{domain, category, specialty}, "-")
					*rows = append(*rows, Row{SectionSpecial, "专业专项", name, round2(specScore)})
				}
			})

			catScore := mean(specScores)
			catScores = append(catScores, catScore)
			*rows = append(*rows, Row{SectionSpecial, "专业类别", domain + "-" + category, round2(catScore)})
		})

		domainScore := mean(catScores)
		weighted += domainScore * float64(e.weights.NamedWeight(domain))
		*rows = append(*rows, Row{SectionSpecial, "领域", domain, round2(domainScore)})
	})

	score := weighted / 100
	if present {
		*rows = append(*rows, Row{SectionSpecial, LevelOverall, "特色场景", round2(score)})
	}
	return score
}

// blendQA folds judge-graded open-ended scores into a parent's objective
// mean. A parent with no open-ended items keeps the pure objective mean.
func blendQA(objectiveMean float64, qaItems []*sourced, qaScore func(*sourced) (float64, bool), wQA int) float64 {
	if len(qaItems) == 0 {
		return objectiveMean
	}
	var vals []float64
	for _, s := range qaItems {
		if v, ok := qaScore(s); ok {
			vals = append(vals, v)
		}
	}
	return objectiveMean*float64(100-wQA)/100 + mean(vals)*float64(wQA)/100
}

func objectiveScore(items []*sourced, w config.TypeWeights) float64 {
	sc := typeAccuracy(items, dataset.TypeSingleChoice, correctSingle)
	mc := typeAccuracy(items, dataset.TypeMultiChoice, correctMulti)
	jc := typeAccuracy(items, dataset.TypeTrueFalse, correctTrueFalse)
	return float64(w.Single)*sc + float64(w.Multi)*mc + float64(w.TrueFalse)*jc
}

func typeAccuracy(items []*sourced, questionType string, match func(truth, pred string) (bool, bool)) float64 {
	comparable, correct := 0, 0
	for _, s := range items {
		if s.rec.Type != questionType {
			continue
		}
		ok, cmp := match(s.rec.Answer, s.rec.ModelAnswer)
		if !cmp {
			continue
		}
		comparable++
		if ok {
			correct++
		}
	}
	if comparable == 0 {
		return 0
	}
	return float64(correct) / float64(comparable)
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// loadRecords reads every artifact under the raw result tree, skipping
// unreadable files so one bad artifact cannot abort scoring.
func (e *Engine) loadRecords() ([]*sourced, error) {
	base := filepath.Join(e.resultRoot, evaluator.RawDir)
	if _, err := os.Stat(base); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []*sourced
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
			return nil
		}

		rel, relErr := filepath.Rel(base, path)
		if relErr != nil {
			rel = d.Name()
		}
		rel = filepath.ToSlash(rel)

		b, readErr := os.ReadFile(path)
		if readErr != nil {
			e.logger.Warn("skipping unreadable artifact", "path", path, "error", readErr)
			return nil
		}
		var records []evaluator.Record
		if jsonErr := json.Unmarshal(b, &records); jsonErr != nil {
			e.logger.Warn("skipping corrupt artifact", "path", path, "error", jsonErr)
			return nil
		}

		for i := range records {
			out = append(out, &sourced{rec: records[i], rel: rel})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
