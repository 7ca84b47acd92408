package payload

import (
	"fmt"

	"github.com/ppiankov/factlock/internal/model"
	"github.com/ppiankov/factlock/internal/verify"
)

// Evaluate parses the three raw inputs of one invocation and verifies them.
// Malformed input yields an ERROR outcome, never a HALT, and nothing panics past
// this function.
func Evaluate(v *verify.Verifier, draftsJSON, compsJSON, target string) (out model.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = model.OutcomeFromError(fmt.Errorf("internal error: %v", r))
		}
	}()

	c, err := ParseArgs(draftsJSON, compsJSON, target)
	if err != nil {
		return model.OutcomeFromError(err)
	}

	return model.OutcomeFromVerdict(v.Verify(c.Drafts, c.Comps, c.TargetPrice))
}

// ParseArgs parses the three raw inputs of one invocation into a case
func ParseArgs(draftsJSON, compsJSON, target string) (Case, error) {
	drafts, err := ParseDrafts([]byte(draftsJSON))
	if err != nil {
		return Case{}, err
	}

	comps, err := ParseComparables([]byte(compsJSON))
	if err != nil {
		return Case{}, err
	}

	targetPrice, err := ParseTarget(target)
	if err != nil {
		return Case{}, err
	}

	return Case{TargetPrice: targetPrice, Drafts: drafts, Comps: comps}, nil
}
