package dataset

import (
	"bufio"
	"os"
	"strings"
)

// Selection is one line of the dataset-selection file: a `-`-joined taxonomy
// path. An empty Parts with All set selects every question.
type Selection struct {
	All   bool
	Parts []string
}

// ParseSelectionFile reads the selection mini-language. A missing or empty
// file selects everything.
func ParseSelectionFile(path string) ([]Selection, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return []Selection{{All: true}}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Selection{{All: true}}, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []Selection
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(line, "-") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}
		out = append(out, Selection{Parts: parts})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return []Selection{{All: true}}, nil
	}
	return out, nil
}

// SelectsAll reports whether the selection set is the trivial "everything".
func SelectsAll(sels []Selection) bool {
	return len(sels) == 0 || (len(sels) == 1 && sels[0].All)
}

func (s Selection) matches(it *Item) bool {
	if s.All {
		return true
	}
	if len(s.Parts) == 0 {
		return false
	}

	p0 := s.Parts[0]
	domain := it.EffectiveDomain()
	switch {
	case strings.Contains(p0, "专业技术"):
		switch domain {
		case DomainSafety:
			return s.matchSafety(it)
		case DomainQuality:
			return s.matchQuality(it)
		}
		return false
	case strings.Contains(p0, "通用综合"):
		return s.matchGeneral(it)
	case strings.Contains(p0, "特色场景"):
		return s.matchSpecial(it)
	}
	return false
}

func (s Selection) matchSafety(it *Item) bool {
	parts := s.Parts
	if len(parts) >= 2 && parts[1] != DomainSafety {
		return false
	}
	if len(parts) >= 3 && it.SafetyType != parts[2] {
		return false
	}
	if len(parts) >= 4 && it.SafetySpecialty != parts[3] {
		return false
	}
	return true
}

func (s Selection) matchQuality(it *Item) bool {
	parts := s.Parts
	if len(parts) >= 2 && parts[1] != DomainQuality {
		return false
	}
	if len(parts) >= 3 && it.Division != parts[2] {
		return false
	}
	if len(parts) >= 4 && it.SubDivision != parts[3] {
		return false
	}
	if len(parts) >= 5 && it.SubItem != parts[4] {
		return false
	}
	return true
}

func (s Selection) matchGeneral(it *Item) bool {
	parts := s.Parts
	if len(parts) >= 2 && it.BlockType != parts[1] {
		return false
	}
	return true
}

func (s Selection) matchSpecial(it *Item) bool {
	parts := s.Parts
	domain := it.EffectiveDomain()
	if len(parts) >= 2 && domain != parts[1] {
		return false
	}

	// Airport uses a flattened two-level variant keyed by 专项.
	if domain == DomainAirport {
		if len(parts) >= 3 && it.AirportSpecialty != parts[2] {
			return false
		}
		return true
	}

	if len(parts) >= 3 && it.SpecialtyCategory != parts[2] {
		return false
	}
	if len(parts) >= 4 && it.SpecialtyItem != parts[3] {
		return false
	}
	if len(parts) >= 5 && it.SubSpecialtyItem != parts[4] {
		return false
	}
	if len(parts) >= 6 && it.SubSpecialtyDetail != parts[5] {
		return false
	}
	return true
}
