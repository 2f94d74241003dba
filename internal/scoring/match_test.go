package scoring

import "testing"

func TestCorrectSingle(t *testing.T) {
	tests := []struct {
		truth, pred         string
		correct, comparable bool
	}{
		{"A", "A", true, true},
		{"a", " A ", true, true},
		{"A", "B", false, true},
		{"A", "", false, false},
		{"", "A", false, false},
	}
	for _, tt := range tests {
		correct, comparable := correctSingle(tt.truth, tt.pred)
		if correct != tt.correct || comparable != tt.comparable {
			t.Fatalf("correctSingle(%q, %q): got (%v, %v) want (%v, %v)",
				tt.truth, tt.pred, correct, comparable, tt.correct, tt.comparable)
		}
	}
}

func TestCorrectMultiOrderInsensitive(t *testing.T) {
	correct, comparable := correctMulti("ABD", "D、B、A")
	if !comparable || !correct {
		t.Fatalf("set equality should ignore order and separators, got (%v, %v)", correct, comparable)
	}

	correct, comparable = correctMulti("ABD", "AB")
	if !comparable || correct {
		t.Fatalf("missing letter must not be correct, got (%v, %v)", correct, comparable)
	}
}

func TestCorrectMultiEmptySet(t *testing.T) {
	if _, comparable := correctMulti("ABD", "以上都不对"); comparable {
		t.Fatal("prediction with no option letters must not be comparable")
	}
	if _, comparable := correctMulti("", "AB"); comparable {
		t.Fatal("empty ground truth must not be comparable")
	}
}

func TestCorrectTrueFalseNormalization(t *testing.T) {
	correct, comparable := correctTrueFalse("正确", "是")
	if !comparable || !correct {
		t.Fatalf("是 should normalize to 正确, got (%v, %v)", correct, comparable)
	}

	correct, comparable = correctTrueFalse("正确", "否")
	if !comparable || correct {
		t.Fatalf("否 must not match 正确, got (%v, %v)", correct, comparable)
	}

	if _, comparable := correctTrueFalse("正确", ""); comparable {
		t.Fatal("empty prediction must not be comparable")
	}
}

func TestNormalizeBoolPassthrough(t *testing.T) {
	if got := normalizeBool("大概吧"); got != "大概吧" {
		t.Fatalf("unknown token should pass through, got %q", got)
	}
}
