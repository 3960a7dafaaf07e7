package partition

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvariantViolation reports that a token-partition tree broke one of its structural invariants:
// parent-child range equality, sibling continuity, or the Inline/AlreadyFormatted parent-child
// contract. It is fatal to the one file being formatted, not to the process: callers should abort
// formatting that file and report the error rather than panic.
type InvariantViolation struct {
	Reason string
}

func (e *InvariantViolation) Error() string {
	return "invariant violation: " + e.Reason
}

// newInvariantViolation builds an InvariantViolation wrapped with a stack trace via
// github.com/pkg/errors, so callers debugging a malformed tree can see where the check failed.
func newInvariantViolation(format string, args ...any) error {
	return errors.WithStack(&InvariantViolation{Reason: fmt.Sprintf(format, args...)})
}

// NewInvariantViolation builds an InvariantViolation for collaborators outside this package (the
// layout optimizer's reconstructor and policy dispatcher) that enforce this package's own
// structural contracts over a Tree they were handed.
func NewInvariantViolation(format string, args ...any) error {
	return newInvariantViolation(format, args...)
}

// IsInvariantViolation reports whether err is, or wraps, an *InvariantViolation.
func IsInvariantViolation(err error) bool {
	var iv *InvariantViolation
	return errors.As(err, &iv)
}
