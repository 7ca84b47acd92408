package verify

import (
	"strings"

	"github.com/ppiankov/factlock/internal/model"
	"github.com/samber/lo"
)

// DefaultToxicRemarks are listing-remark phrases that mark a sale as non-arm's-length
// or distressed, which makes it useless as a pricing anchor.
var DefaultToxicRemarks = []string{
	"cash only",
	"needs tlc",
	"gut rehab",
	"sold to family",
	"handyman special",
}

// ScreenComparables drops comparables whose remarks contain a toxic phrase
// (case-insensitive) and returns at most limit survivors in input order.
// A limit of zero or less keeps every survivor.
func ScreenComparables(comps []model.Comparable, toxic []string, limit int) []model.Comparable {
	kept := make([]model.Comparable, 0, len(comps))

	for _, comp := range comps {
		if isToxic(comp.Remarks, toxic) {
			continue
		}
		kept = append(kept, comp)
		if limit > 0 && len(kept) == limit {
			break
		}
	}

	return kept
}

func isToxic(remarks string, toxic []string) bool {
	lower := strings.ToLower(remarks)
	return lo.ContainsBy(toxic, func(phrase string) bool {
		return strings.Contains(lower, strings.ToLower(phrase))
	})
}
