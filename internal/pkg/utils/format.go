package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatUSD formats a dollar value with two decimal places and thousands
// separators. Example: 1234567.891 => "$1,234,567.89".
func FormatUSD(v float64) string {
	return "$" + FormatThousands(v)
}

// FormatThousands renders a float with two decimals and comma separators
// in the integer part. Negative values keep the leading minus sign.
func FormatThousands(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String() + "." + fracPart
	if neg {
		out = "-" + out
	}
	return out
}

// FormatSignedPercent renders a 24h change with an explicit sign.
// Example: 1.254 => "+1.25%", -0.5 => "-0.50%".
func FormatSignedPercent(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+%.2f%%", v)
	}
	return fmt.Sprintf("%.2f%%", v)
}

// ParseAmount parses a user-entered holdings string. Anything that does
// not parse as a number counts as zero; the raw string is kept elsewhere
// for display.
func ParseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// FormatClock renders a timestamp as a 12-hour wall clock, the way the
// "last updated" label shows it.
func FormatClock(t time.Time) string {
	return t.Format("03:04:05 PM")
}

// LastN returns the trailing n samples of a series, or the whole series
// when it is shorter than n.
func LastN(samples []float64, n int) []float64 {
	if n <= 0 || len(samples) <= n {
		return samples
	}
	return samples[len(samples)-n:]
}
