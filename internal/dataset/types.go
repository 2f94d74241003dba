package dataset

import (
	"encoding/json"
	"strings"
)

// Question type values as they appear in the question files.
const (
	TypeSingleChoice = "单选题"
	TypeMultiChoice  = "多选题"
	TypeTrueFalse    = "判断题"
	TypeOpenEnded    = "问答题"
)

// Top-level module domains.
const (
	DomainSafety  = "安全"
	DomainQuality = "质量"
	DomainMedical = "医疗"
	DomainAirport = "机场"
)

// ID tolerates both JSON strings and numbers; question banks mix the two.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*id = ID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Item is one immutable question record. The JSON keys follow the question
// bank schema; which taxonomy fields are populated depends on the module the
// item belongs to. An item's id is unique only within its source file.
type Item struct {
	ID       ID     `json:"id,omitempty"`
	Type     string `json:"题型"`
	Question string `json:"问题"`
	Answer   string `json:"答案,omitempty"`
	Rubric   string `json:"得分比例,omitempty"`

	Domain          string `json:"领域,omitempty"`
	ProjectCategory string `json:"工程类别,omitempty"`

	// Professional module, safety branch.
	SafetyType      string `json:"安全类型,omitempty"`
	SafetySpecialty string `json:"安全专项,omitempty"`

	// Professional module, quality branch.
	Division    string `json:"分部工程,omitempty"`
	SubDivision string `json:"子分部工程,omitempty"`
	SubItem     string `json:"分项工程,omitempty"`

	// General module.
	BlockType string `json:"板块类型,omitempty"`

	// Special-scenario module.
	SpecialtyCategory  string `json:"专业类别,omitempty"`
	SpecialtyItem      string `json:"专业专项,omitempty"`
	SubSpecialtyItem   string `json:"子专业专项,omitempty"`
	SubSpecialtyDetail string `json:"细分子专业,omitempty"`
	AirportSpecialty   string `json:"专项,omitempty"`
}

// EffectiveDomain prefers 领域 and falls back to 工程类别, matching how the
// question banks label general-module files.
func (it *Item) EffectiveDomain() string {
	if d := strings.TrimSpace(it.Domain); d != "" {
		return d
	}
	return strings.TrimSpace(it.ProjectCategory)
}

// Question pairs an item with the source file it was loaded from. Rel is the
// module-prefixed relative path used to key result artifacts; it
// disambiguates id collisions across files.
type Question struct {
	Src  string
	Rel  string
	Item Item
}
