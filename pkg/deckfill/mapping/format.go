package mapping

import (
	"strconv"
	"strings"
)

// ValueKind controls how a raw cell value is rendered into the deck.
type ValueKind string

const (
	// KindText writes the value unchanged.
	KindText ValueKind = "text"
	// KindPercent renders numeric values with two decimals and a % suffix.
	KindPercent ValueKind = "percent"
	// KindInteger renders numeric values with thousands separators.
	KindInteger ValueKind = "integer"
)

// Format renders a raw cell value as display text. Non-numeric input passes
// through unchanged for the numeric kinds, matching the source sheets that
// sometimes carry pre-rendered strings like "92%".
func (k ValueKind) Format(raw string) string {
	raw = strings.TrimSpace(raw)
	switch k {
	case KindPercent:
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return strconv.FormatFloat(v, 'f', 2, 64) + "%"
		}
	case KindInteger:
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return groupThousands(int64(v))
		}
	}
	return raw
}

// groupThousands formats n with comma separators ("1234567" -> "1,234,567").
func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
