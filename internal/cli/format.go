package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatCurrency formats an amount as US dollars with thousands separators,
// e.g. "$1,234.56" or "-$0.50".
func FormatCurrency(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := strconv.FormatFloat(amount, 'f', 2, 64)
	intPart, decPart, _ := strings.Cut(str, ".")

	result := "$" + groupThousands(intPart) + "." + decPart
	if negative && result != "$0.00" {
		result = "-" + result
	}
	return result
}

// groupThousands inserts a comma every three digits from the right.
func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}

	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

var compactUnits = []struct {
	scale  float64
	suffix string
}{
	{1e12, "T"},
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

// FormatCompactNumber abbreviates large numbers with K, M, B or T suffixes.
// Values under ten of a unit keep one decimal ("1.2B"), larger ones are
// rounded to whole units ("45M", "123K").
func FormatCompactNumber(value float64) string {
	sign := ""
	if value < 0 {
		sign = "-"
		value = -value
	}

	for i, u := range compactUnits {
		if value < u.scale {
			continue
		}
		scaled := compactRound(value / u.scale)
		// 999.6K rounds up into the next unit
		if scaled >= 1000 && i > 0 {
			next := compactUnits[i-1]
			return sign + trimZeros(compactRound(value/next.scale)) + next.suffix
		}
		return sign + trimZeros(scaled) + u.suffix
	}
	if math.Round(value) >= 1000 {
		return sign + "1K"
	}
	return sign + strconv.FormatFloat(math.Round(value), 'f', 0, 64)
}

func compactRound(v float64) float64 {
	if v >= 10 {
		return math.Round(v)
	}
	return math.Round(v*10) / 10
}

func trimZeros(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0")
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatChange formats a price change with its percentage.
func FormatChange(change, changePct float64) string {
	sign := ""
	if change > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f (%s%.2f%%)", sign, change, sign, changePct)
}

// FormatShares formats a share count with thousands separators.
func FormatShares(n int64) string {
	if n < 0 {
		return "-" + groupThousands(strconv.FormatInt(-n, 10))
	}
	return groupThousands(strconv.FormatInt(n, 10))
}

// FormatTime formats a time in the local zone.
func FormatTime(t time.Time) string {
	return t.Local().Format("15:04:05")
}

// TruncateString truncates a string to max length with ellipsis.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
