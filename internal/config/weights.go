package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// TypeWeights are the integer percentage weights used to blend the objective
// question types (and the QA split) inside one top-level module.
type TypeWeights struct {
	Single    int `yaml:"单选"`
	Multi     int `yaml:"多选"`
	TrueFalse int `yaml:"判断"`
	QA        int `yaml:"问答"`
}

// Weights holds every percentage that participates in the score rollup.
// Fixed keys get typed fields; the open-ended `<名称>权重` entries (general
// blocks and special-scenario domains) collect into Named, looked up by the
// bare name.
type Weights struct {
	Professional TypeWeights `yaml:"专业技术"`
	General      TypeWeights `yaml:"通用综合"`
	Special      TypeWeights `yaml:"特色场景"`

	Safety  int `yaml:"安全权重"`
	Quality int `yaml:"质量权重"`

	ProfessionalTotal int `yaml:"专业技术权重"`
	GeneralTotal      int `yaml:"通用综合权重"`
	SpecialTotal      int `yaml:"特色场景权重"`

	Named map[string]int `yaml:"-"`

	// Keys the weights mapping actually set, type sub-keys as `模块.题型`.
	// Defaulting only fills absent keys, so an explicit 0 stays 0.
	present map[string]bool
}

const weightKeySuffix = "权重"

var fixedWeightKeys = map[string]bool{
	"安全" + weightKeySuffix:   true,
	"质量" + weightKeySuffix:   true,
	"专业技术" + weightKeySuffix: true,
	"通用综合" + weightKeySuffix: true,
	"特色场景" + weightKeySuffix: true,
}

// NamedWeight returns the configured percentage for a general block or a
// special-scenario domain, 0 when the name has no entry.
func (w *Weights) NamedWeight(name string) int {
	if w == nil || w.Named == nil {
		return 0
	}
	return w.Named[strings.TrimSpace(name)]
}

// UnmarshalYAML decodes the typed fields, records which keys the file set,
// then sweeps the mapping for any remaining `<名称>权重` keys into Named.
func (w *Weights) UnmarshalYAML(node *yaml.Node) error {
	type plain Weights
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*w = Weights(p)

	var raw map[string]yaml.Node
	if err := node.Decode(&raw); err != nil {
		return err
	}

	w.present = make(map[string]bool, len(raw))
	for key, val := range raw {
		w.present[key] = true

		switch key {
		case "专业技术", "通用综合", "特色场景":
			var sub map[string]yaml.Node
			if err := val.Decode(&sub); err != nil {
				return fmt.Errorf("config: weights %q: %w", key, err)
			}
			for k := range sub {
				w.present[key+"."+k] = true
			}
			continue
		}

		if !strings.HasSuffix(key, weightKeySuffix) || fixedWeightKeys[key] {
			continue
		}
		var n int
		if err := val.Decode(&n); err != nil {
			return fmt.Errorf("config: weight %q: %w", key, err)
		}
		if w.Named == nil {
			w.Named = make(map[string]int)
		}
		w.Named[strings.TrimSuffix(key, weightKeySuffix)] = n
	}
	return nil
}

func (w *Weights) applyDefaults() {
	w.applyTypeDefaults("专业技术", &w.Professional, 40, 40, 20, 30)
	w.applyTypeDefaults("通用综合", &w.General, 40, 40, 0, 20)
	w.applyTypeDefaults("特色场景", &w.Special, 40, 40, 20, 30)

	if !w.present["安全"+weightKeySuffix] {
		w.Safety = 50
	}
	if !w.present["质量"+weightKeySuffix] {
		w.Quality = 50
	}
	if !w.present["专业技术"+weightKeySuffix] {
		w.ProfessionalTotal = 40
	}
	if !w.present["通用综合"+weightKeySuffix] {
		w.GeneralTotal = 40
	}
	if !w.present["特色场景"+weightKeySuffix] {
		w.SpecialTotal = 20
	}

	if w.Named == nil {
		w.Named = make(map[string]int)
	}
	namedDefaults := map[string]int{
		"基础理论": 25,
		"合同管理": 25,
		"投资控制": 25,
		"进度控制": 25,
		"医疗":   50,
		"机场":   50,
	}
	for name, pct := range namedDefaults {
		if _, ok := w.Named[name]; !ok {
			w.Named[name] = pct
		}
	}
}

func (w *Weights) applyTypeDefaults(section string, t *TypeWeights, single, multi, trueFalse, qa int) {
	if !w.present[section+".单选"] {
		t.Single = single
	}
	if !w.present[section+".多选"] {
		t.Multi = multi
	}
	if !w.present[section+".判断"] {
		t.TrueFalse = trueFalse
	}
	if !w.present[section+".问答"] {
		t.QA = qa
	}
}
