package cli

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"stockdash/internal/models"
)

var currencyPattern = regexp.MustCompile(`^-?\$\d{1,3}(,\d{3})*\.\d{2}$`)

// For any amount, FormatCurrency produces a grouped dollar string that
// parses back to the amount rounded to cents.
func TestProperty_CurrencyFormatting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("FormatCurrency has dollar shape", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatCurrency(amount)
			if !currencyPattern.MatchString(formatted) {
				t.Logf("FormatCurrency(%f) = %q", amount, formatted)
				return false
			}
			return true
		},
		gen.Float64Range(-1e12, 1e12),
	))

	properties.Property("FormatCurrency preserves value", prop.ForAll(
		func(amount float64) bool {
			parsed := parseCurrency(FormatCurrency(amount))
			return math.Abs(parsed-amount) <= 0.005+1e-9*math.Abs(amount)
		},
		gen.Float64Range(-1e12, 1e12),
	))

	properties.Property("FormatCompactNumber stays within rounding error", prop.ForAll(
		func(value float64) bool {
			formatted := FormatCompactNumber(value)
			parsed, ok := parseCompact(formatted)
			if !ok {
				t.Logf("FormatCompactNumber(%f) = %q does not parse", value, formatted)
				return false
			}
			return math.Abs(parsed-value)/value <= 0.051
		},
		gen.Float64Range(1000, 1e15),
	))

	properties.Property("FormatPercent carries a sign for gains", prop.ForAll(
		func(pct float64) bool {
			formatted := FormatPercent(pct)
			if !strings.HasSuffix(formatted, "%") {
				return false
			}
			if pct > 0 {
				return strings.HasPrefix(formatted, "+")
			}
			return !strings.HasPrefix(formatted, "+")
		},
		gen.Float64Range(-100, 100),
	))

	properties.TestingRun(t)
}

func parseCurrency(s string) float64 {
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	if negative {
		return -v
	}
	return v
}

func parseCompact(s string) (float64, bool) {
	scales := map[string]float64{"K": 1e3, "M": 1e6, "B": 1e9, "T": 1e12}
	if len(s) == 0 {
		return 0, false
	}
	scale, ok := scales[s[len(s)-1:]]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(s[:len(s)-1], 64)
	if err != nil {
		return 0, false
	}
	return v * scale, true
}

func TestFormatCurrencyExamples(t *testing.T) {
	testCases := []struct {
		amount   float64
		expected string
	}{
		{0, "$0.00"},
		{1, "$1.00"},
		{999.999, "$1,000.00"},
		{1000, "$1,000.00"},
		{150.25, "$150.25"},
		{1234567.891, "$1,234,567.89"},
		{-1234.56, "-$1,234.56"},
		{-0.001, "$0.00"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			if got := FormatCurrency(tc.amount); got != tc.expected {
				t.Errorf("FormatCurrency(%f) = %s, want %s", tc.amount, got, tc.expected)
			}
		})
	}
}

func TestFormatCompactNumberExamples(t *testing.T) {
	testCases := []struct {
		value    float64
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{999.6, "1K"},
		{1234, "1.2K"},
		{-1500, "-1.5K"},
		{123456, "123K"},
		{999600, "1M"},
		{23456789, "23M"},
		{45000000, "45M"},
		{2345678901, "2.3B"},
		{3e12, "3T"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			if got := FormatCompactNumber(tc.value); got != tc.expected {
				t.Errorf("FormatCompactNumber(%f) = %s, want %s", tc.value, got, tc.expected)
			}
		})
	}
}

func TestFormatPercentExamples(t *testing.T) {
	testCases := []struct {
		value    float64
		expected string
	}{
		{0, "0.00%"},
		{1.5, "+1.50%"},
		{-2.5, "-2.50%"},
		{6.55, "+6.55%"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			if got := FormatPercent(tc.value); got != tc.expected {
				t.Errorf("FormatPercent(%f) = %s, want %s", tc.value, got, tc.expected)
			}
		})
	}
}

func TestFormatShares(t *testing.T) {
	if got := FormatShares(1234567); got != "1,234,567" {
		t.Errorf("FormatShares = %s", got)
	}
	if got := FormatShares(42); got != "42" {
		t.Errorf("FormatShares = %s", got)
	}
}

func TestSparkline(t *testing.T) {
	points := []models.HistoricalPoint{{Price: 10}, {Price: 15}, {Price: 20}}
	if got := Sparkline(points); got != "▁▄█" {
		t.Errorf("Sparkline = %q, want ▁▄█", got)
	}

	flat := []models.HistoricalPoint{{Price: 5}, {Price: 5}}
	if got := Sparkline(flat); got != "▅▅" {
		t.Errorf("flat Sparkline = %q, want ▅▅", got)
	}

	if Sparkline(nil) != "" {
		t.Error("empty series should render nothing")
	}
}
