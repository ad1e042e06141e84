package core

import (
	"strconv"
	"strings"
)

// Money is an amount in whole yen. Yen has no minor unit, so all sums across
// the aggregation chain stay exact integer arithmetic.
type Money struct {
	Yen int64
}

func (m Money) Validate() error {
	if m.Yen <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// FormatYen renders an amount as "¥1,234" with a leading minus for negative
// values. Display only; calculations stay on Yen.
func FormatYen(yen int64) string {
	neg := yen < 0
	if neg {
		yen = -yen
	}
	digits := strconv.FormatInt(yen, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("¥")
	pre := len(digits) % 3
	if pre > 0 {
		b.WriteString(digits[:pre])
		if len(digits) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

// RoundPercent computes part/whole as an integer percentage with half-up
// rounding. A zero whole yields 0 rather than dividing by zero.
func RoundPercent(part, whole int64) int {
	if whole == 0 {
		return 0
	}
	return int((part*100 + whole/2) / whole)
}
