package judge

import "strconv"

// ParseScore scans the judge's raw answer for digit characters, concatenates
// them, and parses the result as an integer clamped to [0,100]. No digits
// means no score.
func ParseScore(s string) (int, bool) {
	digits := make([]rune, 0, 8)
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) == 0 {
		return 0, false
	}
	// Anything longer than a few digits is already out of range; keep Atoi
	// from overflowing.
	if len(digits) > 9 {
		digits = digits[:9]
	}
	v, err := strconv.Atoi(string(digits))
	if err != nil {
		return 0, false
	}
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return v, true
}
