package dataset

import (
	"encoding/json"
	"testing"
)

func TestIDUnmarshalStringOrNumber(t *testing.T) {
	tests := []struct {
		in   string
		want ID
	}{
		{`{"id": "q-12"}`, "q-12"},
		{`{"id": 12}`, "12"},
		{`{"id": null}`, ""},
		{`{}`, ""},
	}
	for _, tt := range tests {
		var it Item
		if err := json.Unmarshal([]byte(tt.in), &it); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.in, err)
		}
		if it.ID != tt.want {
			t.Fatalf("id from %s: got %q want %q", tt.in, it.ID, tt.want)
		}
	}
}

func TestEffectiveDomain(t *testing.T) {
	it := Item{Domain: "安全", ProjectCategory: "房建"}
	if got := it.EffectiveDomain(); got != "安全" {
		t.Fatalf("领域 must win: got %q", got)
	}
	it = Item{ProjectCategory: " 房建 "}
	if got := it.EffectiveDomain(); got != "房建" {
		t.Fatalf("fallback to 工程类别: got %q", got)
	}
}
