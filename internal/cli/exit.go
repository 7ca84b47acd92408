package cli

import (
	"fmt"

	"github.com/ppiankov/factlock/internal/model"
)

// Exit codes
const (
	ExitOK     = 0
	ExitError  = 1 // Malformed input or a failed run
	ExitHalted = 2 // A draft was halted and --strict-exit was set
)

// ExitCodeError asks main to exit with Code after the command's output was written
type ExitCodeError struct {
	Code   int
	Reason string
}

// Error implements the error interface
func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit %d: %s", e.Code, e.Reason)
}

// exitFor maps an outcome status to the process exit status
func exitFor(status model.Status, strict bool) error {
	switch status {
	case model.StatusError:
		return &ExitCodeError{Code: ExitError, Reason: "invalid input"}
	case model.StatusHalt:
		if strict {
			return &ExitCodeError{Code: ExitHalted, Reason: "draft halted"}
		}
	}
	return nil
}
