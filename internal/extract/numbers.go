package extract

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// numberPattern matches an optional dollar sign followed by either a comma-grouped
// amount (1,250,000.50) or a plain run of digits (1500, 3.5).
var numberPattern = func() *regexp.Regexp {
	re := regexp.MustCompile(`\$?(\d{1,3}(?:,\d{3})*(?:\.\d+)?|\d+(?:\.\d+)?)`)
	// Leftmost-longest: a plain run like "1500" or "$500000" stays one number
	// instead of stopping after the grouped branch's first three digits.
	re.Longest()
	return re
}()

// Numbers extracts every numeric token from text, in text order.
// Repeated values are kept; each occurrence is its own entry.
func Numbers(text string) []float64 {
	matches := numberPattern.FindAllString(text, -1)

	nums := make([]float64, 0, len(matches))
	for _, m := range matches {
		cleaned := cleanNumber(m)
		if cleaned == "" {
			continue
		}

		// Out-of-range tokens keep the ±Inf ParseFloat returns; they can never be grounded
		value, err := strconv.ParseFloat(cleaned, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			continue
		}
		nums = append(nums, value)
	}

	return nums
}

// cleanNumber drops everything except digits and the decimal point
func cleanNumber(token string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, token)
}
