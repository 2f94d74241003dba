package scoring

import "strings"

// Type-specific correctness rules. Each returns (correct, comparable);
// an item with an empty ground truth or an empty prediction is not
// comparable and stays out of the accuracy denominator.

func correctSingle(truth, pred string) (bool, bool) {
	gt := strings.ToUpper(strings.TrimSpace(truth))
	p := strings.ToUpper(strings.TrimSpace(pred))
	if gt == "" || p == "" {
		return false, false
	}
	return gt == p, true
}

func correctMulti(truth, pred string) (bool, bool) {
	gt := letterSet(truth)
	p := letterSet(pred)
	if len(gt) == 0 || len(p) == 0 {
		return false, false
	}
	if len(gt) != len(p) {
		return false, true
	}
	for l := range gt {
		if !p[l] {
			return false, true
		}
	}
	return true, true
}

func correctTrueFalse(truth, pred string) (bool, bool) {
	gt := strings.TrimSpace(truth)
	p := strings.TrimSpace(pred)
	if gt == "" || p == "" {
		return false, false
	}
	return normalizeBool(gt) == normalizeBool(p), true
}

func letterSet(s string) map[rune]bool {
	out := make(map[rune]bool)
	for _, r := range strings.ToUpper(s) {
		if r >= 'A' && r <= 'Z' {
			out[r] = true
		}
	}
	return out
}

var (
	trueTokens  = map[string]bool{"正确": true, "对": true, "是": true, "true": true, "True": true}
	falseTokens = map[string]bool{"错误": true, "错": true, "否": true, "false": true, "False": true}
)

// normalizeBool folds the accepted spellings onto the canonical 正确/错误
// tokens; anything else passes through unchanged.
func normalizeBool(s string) string {
	s = strings.TrimSpace(s)
	if trueTokens[s] {
		return "正确"
	}
	if falseTokens[s] {
		return "错误"
	}
	return s
}
