package extract

import (
	"strings"

	"github.com/ppiankov/factlock/internal/model"
)

// Addresses returns the addresses of comparables referenced in text.
// A comparable counts as referenced when its first two space-separated address tokens
// (street number and first word of the street name) appear in the text, case-insensitively.
// Addresses with fewer than two tokens never match.
func Addresses(text string, comps []model.Comparable) []string {
	lower := strings.ToLower(text)

	found := []string{}
	for _, comp := range comps {
		parts := strings.Split(comp.Address, " ")
		if len(parts) < 2 {
			continue
		}

		snippet := strings.ToLower(parts[0] + " " + parts[1])
		if strings.Contains(lower, snippet) {
			found = append(found, comp.Address)
		}
	}

	return found
}
