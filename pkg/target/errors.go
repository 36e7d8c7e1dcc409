package target

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// IncompatibleTarget is raised by bit-descriptor writers and by
// Recalibrate when a compatibility predicate rejects a tuple (§7).
// The Permutator swallows it: the point is skipped, neither simulated
// nor reported, and only tallied in the run's skipped-point count.
type IncompatibleTarget struct {
	Reason string
}

func (e *IncompatibleTarget) Error() string {
	return "incompatible target: " + e.Reason
}

// NewIncompatibleTarget wraps reason in an IncompatibleTarget, adding a
// stack trace via pkg/errors so a failing permutation point can be
// diagnosed from a single error value.
func NewIncompatibleTarget(reason string) error {
	return errors.WithStack(&IncompatibleTarget{Reason: reason})
}

// IsIncompatibleTarget reports whether err is (or wraps) an
// IncompatibleTarget.
func IsIncompatibleTarget(err error) bool {
	var it *IncompatibleTarget
	return stderrors.As(err, &it)
}
