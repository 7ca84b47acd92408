package model

import "time"

// Status is the externally observable classification of a draft pair
type Status string

const (
	StatusVerified Status = "VERIFIED" // Every drafted number is grounded; safe to send
	StatusHalt     Status = "HALT"     // At least one hallucinated number; discard or regenerate
	StatusError    Status = "ERROR"    // Inputs were malformed; fix and retry, never send
)

// VerifiedReason is the compliance statement attached to a VERIFIED verdict
const VerifiedReason = "100% Mathematically verified, brand-safe payload."

// Verdict is the result of verifying one draft pair
type Verdict struct {
	Status Status `json:"status"`
	Reason string `json:"reason"`

	// Hallucinations lists the distinct ungrounded values, in first-seen order.
	// Consumers must treat it as a set.
	Hallucinations []float64 `json:"hallucinations,omitempty"`

	// MatchedAddresses is advisory only and never changes Status
	MatchedAddresses []string `json:"matched_addresses"`

	Findings []Finding `json:"findings,omitempty"` // Per-number classification, in text order
}

// Halted reports whether the verdict blocks sending
func (v Verdict) Halted() bool {
	return v.Status == StatusHalt
}

// Finding records how a single drafted number was classified
type Finding struct {
	Value   float64   `json:"value"`
	Match   MatchKind `json:"match"`
	Against float64   `json:"against,omitempty"` // Allowed value or delta that matched
	Comp    string    `json:"comp,omitempty"`    // Address of the comparable a delta came from
	Field   string    `json:"field,omitempty"`   // price, sqft or lotAcres for delta matches
}

// MatchKind classifies how a drafted number was grounded
type MatchKind string

const (
	MatchDirect       MatchKind = "direct"       // Within tolerance of an allowed value
	MatchDelta        MatchKind = "delta"        // Within tolerance of a per-comparable delta
	MatchHallucinated MatchKind = "hallucinated" // No grounding found
)

// Outcome is what the boundary reports for one invocation: a verdict or an input error
type Outcome struct {
	Status  Status   `json:"status"`
	Reason  string   `json:"reason,omitempty"`
	Error   string   `json:"error,omitempty"`
	Verdict *Verdict `json:"verdict,omitempty"`
}

// OutcomeFromVerdict wraps a verdict for reporting
func OutcomeFromVerdict(v Verdict) Outcome {
	return Outcome{
		Status:  v.Status,
		Reason:  v.Reason,
		Verdict: &v,
	}
}

// OutcomeFromError reports malformed input; it is never conflated with HALT
func OutcomeFromError(err error) Outcome {
	return Outcome{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// Report is the complete record of one fact-lock check
type Report struct {
	ID          string       `json:"id"`                   // Unique report ID
	CaseID      string       `json:"case_id,omitempty"`    // Caller-supplied case identifier
	Subject     string       `json:"subject,omitempty"`    // Subject property address, if known
	CheckedAt   time.Time    `json:"checked_at"`           // When the check ran
	TargetPrice float64      `json:"target_price"`         // Price the drafts were checked against
	Comparables []Comparable `json:"comparables"`          // Ground truth supplied
	Drafts      DraftPair    `json:"drafts"`               // Texts that were verified
	Verdict     Verdict      `json:"verdict"`              // Result
	Cached      bool         `json:"cached"`               // Verdict served from cache
	Generation  *Generation  `json:"generation,omitempty"` // Present when drafts were generated here
}

// Generation describes how the drafts were produced when factlock drafted them itself
type Generation struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	TokensUsed int    `json:"tokens_used,omitempty"`
}
