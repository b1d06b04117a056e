package viewer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatCurrency formats v as US dollars with 2 to 6 decimals and thousands
// separators, e.g. $50,000.00 or $0.000123.
func FormatCurrency(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	s := strconv.FormatFloat(v, 'f', 6, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	frac = strings.TrimRight(frac, "0")
	for len(frac) < 2 {
		frac += "0"
	}

	return sign + "$" + groupThousands(intPart) + "." + frac
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatMarketCap abbreviates large values as $x.xxT, $x.xxB or $x.xxM and
// falls back to FormatCurrency below a million.
func FormatMarketCap(v float64) string {
	switch {
	case v >= 1e12:
		return fmt.Sprintf("$%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	default:
		return FormatCurrency(v)
	}
}

// FormatPercentage formats a 24h change with an explicit sign. An unknown
// change renders as +0.00%.
func FormatPercentage(v *float64) string {
	if v == nil || math.IsNaN(*v) {
		return "+0.00%"
	}
	return fmt.Sprintf("%+.2f%%", *v)
}

// FormatTimestamp formats the last-updated time, or "Never".
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "Never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
