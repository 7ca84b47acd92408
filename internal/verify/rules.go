package verify

import (
	"fmt"
	"math"
	"strings"

	"github.com/ppiankov/factlock/internal/model"
)

// Revision identifies the extraction and classification behavior.
// Bump it whenever either changes; cached verdicts are scoped to it.
const Revision = "2"

// Default matching constants
const (
	// DefaultTolerance is absolute, not relative: it absorbs formatting and rounding
	// noise from generation at every magnitude.
	DefaultTolerance = 0.1

	// DefaultSqftReference is the baseline sqft deltas are measured from
	DefaultSqftReference = 1000.0

	// DefaultLotAcresReference is the baseline lot-size deltas are measured from
	DefaultLotAcresReference = 1.0

	// HoursInDay and ReplyMinutes are numbers the drafting prompt itself puts in the copy
	// ("24 hours", "5 minutes").
	HoursInDay   = 24.0
	ReplyMinutes = 5.0
)

// Rules holds the constants the verifier matches with
type Rules struct {
	Tolerance         float64
	Whitelist         []float64
	SqftReference     float64
	LotAcresReference float64
}

// DefaultRules returns the standard fact-lock rules
func DefaultRules() Rules {
	return Rules{
		Tolerance:         DefaultTolerance,
		Whitelist:         []float64{HoursInDay, ReplyMinutes},
		SqftReference:     DefaultSqftReference,
		LotAcresReference: DefaultLotAcresReference,
	}
}

// RulesFromConfig converts model.RulesConfig to Rules
func RulesFromConfig(cfg model.RulesConfig) Rules {
	whitelist := make([]float64, len(cfg.Whitelist))
	copy(whitelist, cfg.Whitelist)

	return Rules{
		Tolerance:         cfg.Tolerance,
		Whitelist:         whitelist,
		SqftReference:     cfg.SqftReference,
		LotAcresReference: cfg.LotAcresReference,
	}
}

// Fingerprint identifies the rules for cache keys
func (r Rules) Fingerprint() string {
	parts := make([]string, 0, len(r.Whitelist))
	for _, w := range r.Whitelist {
		parts = append(parts, formatNumber(w))
	}
	return fmt.Sprintf("tol=%s;wl=%s;sqft=%s;lot=%s",
		formatNumber(r.Tolerance), strings.Join(parts, ","),
		formatNumber(r.SqftReference), formatNumber(r.LotAcresReference))
}

// isWhitelisted reports exact membership in the whitelist
func (r Rules) isWhitelisted(n float64) bool {
	for _, w := range r.Whitelist {
		if n == w {
			return true
		}
	}
	return false
}

// within reports |a - b| < tolerance (strict)
func within(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}
