package scoring

import (
	"strings"

	"github.com/2719104587/MESBench/internal/dataset"
)

// Placeholder marks a pseudo-leaf: items filed under it (open-ended
// questions) are judge-scored and blended into the parent node instead of
// being scored with the objective formula.
const Placeholder = "/"

// Path is the typed taxonomy position of one item. The concrete variant
// depends on the item's top-level module.
type Path interface{ isPath() }

// SafetyPath is the professional module's safety branch: type → specialty.
type SafetyPath struct {
	Type      string
	Specialty string
}

// QualityPath is the professional module's quality branch:
// division → sub-division → sub-item.
type QualityPath struct {
	Division    string
	SubDivision string
	SubItem     string
}

// GeneralPath is the general module's single block level.
type GeneralPath struct {
	Block string
}

// SpecialPath is the special-scenario module: up to five levels. The airport
// domain uses a flattened variant with only Category populated.
type SpecialPath struct {
	Domain       string
	Category     string
	Specialty    string
	SubSpecialty string
	Detail       string
}

func (SafetyPath) isPath()  {}
func (QualityPath) isPath() {}
func (GeneralPath) isPath() {}
func (SpecialPath) isPath() {}

// ParsePath classifies an item into its typed taxonomy variant. Items with
// no recognizable position report ok=false and stay out of the rollup.
func ParsePath(it *dataset.Item) (Path, bool) {
	switch it.EffectiveDomain() {
	case dataset.DomainSafety:
		return SafetyPath{
			Type:      strings.TrimSpace(it.SafetyType),
			Specialty: strings.TrimSpace(it.SafetySpecialty),
		}, true
	case dataset.DomainQuality:
		return QualityPath{
			Division:    strings.TrimSpace(it.Division),
			SubDivision: strings.TrimSpace(it.SubDivision),
			SubItem:     strings.TrimSpace(it.SubItem),
		}, true
	case dataset.DomainMedical:
		return SpecialPath{
			Domain:       dataset.DomainMedical,
			Category:     strings.TrimSpace(it.SpecialtyCategory),
			Specialty:    strings.TrimSpace(it.SpecialtyItem),
			SubSpecialty: strings.TrimSpace(it.SubSpecialtyItem),
			Detail:       strings.TrimSpace(it.SubSpecialtyDetail),
		}, true
	case dataset.DomainAirport:
		return SpecialPath{
			Domain:   dataset.DomainAirport,
			Category: strings.TrimSpace(it.AirportSpecialty),
		}, true
	default:
		if blk := strings.TrimSpace(it.BlockType); blk != "" {
			return GeneralPath{Block: blk}, true
		}
		return nil, false
	}
}
