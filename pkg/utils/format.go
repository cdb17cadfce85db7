package utils

import (
	"fmt"
	"math"
)

// FormatVolume formats a quantity with Chinese units (万 / 亿).
// e.g., 123456 → "12.35万", 321000000 → "3.21亿"
func FormatVolume(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = math.Abs(v)
	}
	switch {
	case v >= 1e8:
		return fmt.Sprintf("%s%.2f亿", sign, v/1e8)
	case v >= 1e4:
		return fmt.Sprintf("%s%.2f万", sign, v/1e4)
	default:
		return fmt.Sprintf("%s%.0f", sign, v)
	}
}

// FormatSignedPct formats a percentage with an explicit sign, e.g. "+1.25%".
func FormatSignedPct(p float64) string {
	if p > 0 {
		return fmt.Sprintf("+%.2f%%", p)
	}
	return fmt.Sprintf("%.2f%%", p)
}
