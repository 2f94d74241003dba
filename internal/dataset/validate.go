package dataset

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ValidateDataset checks question coverage against the frame files: every
// taxonomy node declared in a frame must be backed by the question types the
// benchmark frame requires. Gaps are reported as log errors, never fatal; the
// returned count is the number of gaps found.
func ValidateDataset(paths ModulePaths, frameRoot string, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("starting dataset validation")

	var items []Item
	for _, r := range paths.roots() {
		for _, qf := range listQuestionFiles([]moduleRoot{r}, logger) {
			loaded, err := readItems(qf.path)
			if err != nil {
				logger.Error("failed to load question file", "path", qf.path, "error", err)
				continue
			}
			items = append(items, loaded...)
		}
	}
	logger.Info("loaded items for validation", "count", len(items))

	v := &validator{items: items, logger: logger}
	v.checkSafetyFrame(filepath.Join(frameRoot, "1专业技术", "1-1安全框架.json"))
	v.checkQualityFrame(filepath.Join(frameRoot, "1专业技术", "1-2质量框架.json"))
	v.checkGeneralFrame(filepath.Join(frameRoot, "2通用综合", "2-1通用部分框架.json"))
	v.checkMedicalFrame(filepath.Join(frameRoot, "3特色场景", "3-1医疗.json"))
	v.checkAirportFrame(filepath.Join(frameRoot, "3特色场景", "3-2机场.json"))

	logger.Info("dataset validation completed", "gaps", v.gaps)
	return v.gaps
}

type validator struct {
	items  []Item
	logger *slog.Logger
	gaps   int
}

// frameName strips the "(说明)" annotation suffix frame keys carry.
func frameName(key string) string {
	if i := strings.IndexAny(key, "(（"); i >= 0 {
		return key[:i]
	}
	return key
}

func (v *validator) gap(msg string, args ...any) {
	v.gaps++
	v.logger.Error(msg, args...)
}

func (v *validator) countTypes(match func(*Item) bool) map[string]int {
	out := make(map[string]int)
	for i := range v.items {
		if match(&v.items[i]) {
			out[v.items[i].Type]++
		}
	}
	return out
}

func loadFrame(path string, logger *slog.Logger) (map[string]json.RawMessage, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("frame file not found", "path", path)
		return nil, false
	}
	var root map[string]json.RawMessage
	if err := json.Unmarshal(b, &root); err != nil {
		logger.Error("unreadable frame file", "path", path, "error", err)
		return nil, false
	}
	return root, true
}

func decodeMap(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return m, true
}

func (v *validator) checkSafetyFrame(path string) {
	root, ok := loadFrame(path, v.logger)
	if !ok {
		return
	}
	branch, ok := decodeMap(root[DomainSafety])
	if !ok {
		return
	}

	for typeKey, typeRaw := range branch {
		safetyType := frameName(typeKey)

		counts := v.countTypes(func(it *Item) bool {
			return it.EffectiveDomain() == DomainSafety && it.SafetyType == safetyType
		})
		if counts[TypeOpenEnded] < 1 {
			v.gap("safety type missing open-ended questions", "safety_type", safetyType)
		}

		specials, ok := decodeMap(typeRaw)
		if !ok {
			continue
		}
		for specialKey := range specials {
			special := frameName(specialKey)
			counts := v.countTypes(func(it *Item) bool {
				return it.EffectiveDomain() == DomainSafety &&
					it.SafetyType == safetyType && it.SafetySpecialty == special
			})
			for _, qt := range []string{TypeSingleChoice, TypeMultiChoice, TypeTrueFalse} {
				if counts[qt] < 1 {
					v.gap("safety specialty missing question type",
						"safety_type", safetyType, "specialty", special, "question_type", qt)
				}
			}
		}
	}
}

func (v *validator) checkQualityFrame(path string) {
	root, ok := loadFrame(path, v.logger)
	if !ok {
		return
	}
	branch, ok := decodeMap(root[DomainQuality])
	if !ok {
		return
	}

	for divKey, divRaw := range branch {
		division := frameName(divKey)
		subs, ok := decodeMap(divRaw)
		if !ok {
			continue
		}
		for subKey, subRaw := range subs {
			subDivision := frameName(subKey)

			counts := v.countTypes(func(it *Item) bool {
				return it.EffectiveDomain() == DomainQuality &&
					it.Division == division && it.SubDivision == subDivision
			})
			if counts[TypeOpenEnded] < 1 {
				v.gap("quality sub-division missing open-ended questions",
					"division", division, "sub_division", subDivision)
			}

			subItems, ok := decodeMap(subRaw)
			if !ok {
				continue
			}
			for itemKey := range subItems {
				subItem := frameName(itemKey)
				counts := v.countTypes(func(it *Item) bool {
					return it.EffectiveDomain() == DomainQuality &&
						it.Division == division && it.SubDivision == subDivision && it.SubItem == subItem
				})
				for _, qt := range []string{TypeSingleChoice, TypeMultiChoice, TypeTrueFalse} {
					if counts[qt] < 1 {
						v.gap("quality sub-item missing question type",
							"sub_division", subDivision, "sub_item", subItem, "question_type", qt)
					}
				}
			}
		}
	}
}

func (v *validator) checkGeneralFrame(path string) {
	root, ok := loadFrame(path, v.logger)
	if !ok {
		return
	}

	for rootKey, rootRaw := range root {
		domain := frameName(rootKey)
		blocks, ok := decodeMap(rootRaw)
		if !ok {
			continue
		}
		for blockKey := range blocks {
			block := frameName(blockKey)
			counts := v.countTypes(func(it *Item) bool {
				return it.EffectiveDomain() == domain && it.BlockType == block
			})
			total := 0
			for _, n := range counts {
				total += n
			}
			if total < 1 {
				v.gap("general block has no questions", "block", block)
			}
		}
	}
}

func (v *validator) checkMedicalFrame(path string) {
	root, ok := loadFrame(path, v.logger)
	if !ok {
		return
	}
	branch, ok := decodeMap(root[DomainMedical])
	if !ok {
		return
	}

	for _, catRaw := range branch {
		specs, ok := decodeMap(catRaw)
		if !ok {
			continue
		}
		for _, specRaw := range specs {
			subSpecs, ok := decodeMap(specRaw)
			if !ok {
				continue
			}
			for subSpecKey := range subSpecs {
				subSpec := frameName(subSpecKey)
				counts := v.countTypes(func(it *Item) bool {
					return it.EffectiveDomain() == DomainMedical && it.SubSpecialtyItem == subSpec
				})
				total := 0
				for _, n := range counts {
					total += n
				}
				if total < 1 {
					v.gap("medical sub-specialty has no questions", "sub_specialty", subSpec)
				}
			}
		}
	}
}

func (v *validator) checkAirportFrame(path string) {
	root, ok := loadFrame(path, v.logger)
	if !ok {
		return
	}

	var specials []string
	if err := json.Unmarshal(root[DomainAirport], &specials); err != nil {
		return
	}
	for _, special := range specials {
		special = frameName(special)
		counts := v.countTypes(func(it *Item) bool {
			return it.EffectiveDomain() == DomainAirport && it.AirportSpecialty == special
		})
		total := 0
		for _, n := range counts {
			total += n
		}
		if total < 1 {
			v.gap("airport specialty has no questions", "specialty", special)
		}
	}
}
