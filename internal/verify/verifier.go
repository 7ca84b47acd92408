package verify

import (
	"math"
	"strconv"
	"strings"

	"github.com/ppiankov/factlock/internal/extract"
	"github.com/ppiankov/factlock/internal/model"
	"github.com/samber/lo"
)

// Verifier classifies drafted numbers against verified ground truth.
// It holds no state beyond its rules and is safe for concurrent use.
type Verifier struct {
	rules Rules
}

// NewVerifier creates a verifier with the given rules
func NewVerifier(rules Rules) *Verifier {
	return &Verifier{rules: rules}
}

// Rules returns the verifier's matching rules
func (v *Verifier) Rules() Rules {
	return v.rules
}

// Verify checks a draft pair using the default rules
func Verify(drafts model.DraftPair, comps []model.Comparable, targetPrice float64) model.Verdict {
	return NewVerifier(DefaultRules()).Verify(drafts, comps, targetPrice)
}

// Verify extracts every number from the drafts and classifies it against the allowed
// set and the per-comparable deltas. Any unmatched number halts the draft.
func (v *Verifier) Verify(drafts model.DraftPair, comps []model.Comparable, targetPrice float64) model.Verdict {
	combined := drafts.Combined()

	// 1. Extract drafted numbers
	drafted := extract.Numbers(combined)

	// 2. Build allowed set
	allowed := BuildAllowed(targetPrice, comps, v.rules.Whitelist)

	// 3. Classify
	findings := v.Classify(drafted, allowed, comps, targetPrice)

	var hallucinations []float64
	for _, f := range findings {
		if f.Match == model.MatchHallucinated {
			hallucinations = append(hallucinations, f.Value)
		}
	}
	hallucinations = lo.Uniq(hallucinations)

	// 4. Advisory address check (never gates)
	addresses := extract.Addresses(combined, comps)

	if len(hallucinations) > 0 {
		return model.Verdict{
			Status:           model.StatusHalt,
			Reason:           haltReason(hallucinations),
			Hallucinations:   hallucinations,
			MatchedAddresses: addresses,
			Findings:         findings,
		}
	}

	return model.Verdict{
		Status:           model.StatusVerified,
		Reason:           model.VerifiedReason,
		MatchedAddresses: addresses,
		Findings:         findings,
	}
}

// Classify returns one finding per drafted number, in input order
func (v *Verifier) Classify(drafted []float64, allowed *AllowedSet, comps []model.Comparable, targetPrice float64) []model.Finding {
	findings := make([]model.Finding, 0, len(drafted))

	for _, n := range drafted {
		if a, ok := allowed.Match(n, v.rules.Tolerance); ok {
			findings = append(findings, model.Finding{Value: n, Match: model.MatchDirect, Against: a})
			continue
		}

		if !v.rules.isWhitelisted(n) {
			if d, ok := v.matchDelta(n, comps, targetPrice); ok {
				findings = append(findings, model.Finding{
					Value:   n,
					Match:   model.MatchDelta,
					Against: d.Value,
					Comp:    d.Comp,
					Field:   d.Field,
				})
				continue
			}
		}

		findings = append(findings, model.Finding{Value: n, Match: model.MatchHallucinated})
	}

	return findings
}

// matchDelta returns the first per-comparable delta strictly within tolerance of n
func (v *Verifier) matchDelta(n float64, comps []model.Comparable, targetPrice float64) (Delta, bool) {
	for _, comp := range comps {
		for _, d := range deltas(comp, targetPrice, v.rules) {
			if within(n, d.Value, v.rules.Tolerance) {
				return d, true
			}
		}
	}
	return Delta{}, false
}

// haltReason names the offending values, e.g. "Hallucinated numbers detected: [999999.0]"
func haltReason(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatNumber(v)
	}
	return "Hallucinated numbers detected: [" + strings.Join(parts, ", ") + "]"
}

// formatNumber renders a float in its shortest form, always with a decimal point
// (999999 -> "999999.0", 3.5 -> "3.5"). Overflowed values render as "inf".
func formatNumber(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

// FormatNumber is exported for renderers that list values the way verdict reasons do
func FormatNumber(v float64) string {
	return formatNumber(v)
}

