// Package format turns exchange payloads into human-readable text blocks.
package format

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const defaultDecimals = 8

// Number formats with up to 8 decimals for values below 1.
func Number(v float64) string {
	return NumberDecimals(v, defaultDecimals)
}

// NumberDecimals renders zero and non-finite values as "0", values below 1 in
// magnitude with the given decimals, values of 1000 and above with thousands
// separators and at most 2 decimals, and everything else with at most 2
// decimals. Trailing zeros are always stripped.
func NumberDecimals(v float64, decimals int) string {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	abs := math.Abs(v)
	switch {
	case abs < 1:
		return normalizeZero(trimZeros(strconv.FormatFloat(v, 'f', decimals, 64)))
	case abs >= 1000:
		return groupThousands(trimZeros(strconv.FormatFloat(v, 'f', 2, 64)))
	default:
		return trimZeros(strconv.FormatFloat(v, 'f', 2, 64))
	}
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func normalizeZero(s string) string {
	if s == "-0" {
		return "0"
	}
	return s
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	if hasFrac {
		return sign + b.String() + "." + frac
	}
	return sign + b.String()
}

// Price appends " USDT" when the symbol is quoted in USDT.
func Price(p float64, symbol string) string {
	s := NumberDecimals(p, 2)
	if strings.Contains(symbol, "USDT") {
		return s + " USDT"
	}
	return s
}

func Quantity(q float64, asset string) string {
	s := NumberDecimals(q, defaultDecimals)
	if asset == "" {
		return s
	}
	return s + " " + asset
}

// Percentage prefixes non-negative values with "+".
func Percentage(p float64) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		p = 0
	}
	s := strconv.FormatFloat(p, 'f', 2, 64)
	if p >= 0 {
		return "+" + s + "%"
	}
	return s + "%"
}

// Timestamp renders epoch milliseconds as "YYYY-MM-DD HH:MM:SS UTC".
func Timestamp(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04:05") + " UTC"
}

func signed(v float64) string {
	if v >= 0 {
		return "+"
	}
	return ""
}

func ratioPct(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den * 100
}
