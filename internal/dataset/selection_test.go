package dataset

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseSelectionFileMissingSelectsAll(t *testing.T) {
	sels, err := ParseSelectionFile(filepath.Join(t.TempDir(), "nope.txt"))
	if err != nil {
		t.Fatalf("ParseSelectionFile: %v", err)
	}
	if !SelectsAll(sels) {
		t.Fatalf("missing file must select everything, got %+v", sels)
	}
}

func TestParseSelectionFileLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sel.txt")
	body := "1专业技术-安全-高处作业\n\n2通用综合-基础理论\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	sels, err := ParseSelectionFile(path)
	if err != nil {
		t.Fatalf("ParseSelectionFile: %v", err)
	}
	if len(sels) != 2 {
		t.Fatalf("len(sels): got %d want 2", len(sels))
	}
	if len(sels[0].Parts) != 3 || sels[0].Parts[2] != "高处作业" {
		t.Fatalf("first selection: %+v", sels[0])
	}
	if SelectsAll(sels) {
		t.Fatal("explicit selections must not report SelectsAll")
	}
}

func TestSelectionMatching(t *testing.T) {
	safety := Item{
		Domain:          DomainSafety,
		SafetyType:      "高处作业",
		SafetySpecialty: "脚手架",
	}
	quality := Item{
		Domain:      DomainQuality,
		Division:    "地基基础",
		SubDivision: "桩基",
	}
	general := Item{
		ProjectCategory: "房建",
		BlockType:       "基础理论",
	}
	airport := Item{
		Domain:           DomainAirport,
		AirportSpecialty: "跑道",
	}

	tests := []struct {
		name  string
		parts []string
		item  *Item
		want  bool
	}{
		{"module only", []string{"1专业技术"}, &safety, true},
		{"safety branch", []string{"1专业技术", "安全"}, &safety, true},
		{"safety type match", []string{"1专业技术", "安全", "高处作业"}, &safety, true},
		{"safety type mismatch", []string{"1专业技术", "安全", "基坑"}, &safety, false},
		{"safety branch excludes quality", []string{"1专业技术", "安全"}, &quality, false},
		{"quality division", []string{"1专业技术", "质量", "地基基础"}, &quality, true},
		{"general block", []string{"2通用综合", "基础理论"}, &general, true},
		{"general block mismatch", []string{"2通用综合", "合同管理"}, &general, false},
		{"airport flattened", []string{"3特色场景", "机场", "跑道"}, &airport, true},
		{"wrong module", []string{"2通用综合"}, &safety, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Selection{Parts: tt.parts}
			if got := s.matches(tt.item); got != tt.want {
				t.Fatalf("matches(%v): got %v want %v", tt.parts, got, tt.want)
			}
		})
	}
}
