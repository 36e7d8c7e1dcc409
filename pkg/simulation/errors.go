package simulation

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// PredicateNotSatisfied is raised by Context.Predicate when a guard
// evaluates to zero probability. It aborts only the branch currently
// being explored; the Simulator catches it at the DFS frame that
// issued the call and backtracks (§4.3, "zero-probability guard aborts
// only that branch unless allow-impossible is set").
type PredicateNotSatisfied struct {
	Name string
	Args []string
}

func (e *PredicateNotSatisfied) Error() string {
	msg := "predicate not satisfied: " + e.Name
	for _, a := range e.Args {
		msg += " " + a
	}
	return msg
}

// newPredicateNotSatisfied wraps the failure with a stack trace so a
// skipped branch can still be traced back to the guard that killed it
// when tracking is enabled.
func newPredicateNotSatisfied(name string, args []string) error {
	return errors.WithStack(&PredicateNotSatisfied{Name: name, Args: args})
}

// IsPredicateNotSatisfied reports whether err is (or wraps) a
// PredicateNotSatisfied.
func IsPredicateNotSatisfied(err error) bool {
	var pns *PredicateNotSatisfied
	return stderrors.As(err, &pns)
}

// PredicateName extracts the guard name from a PredicateNotSatisfied
// error, so the Simulator can record which guard killed an aborted
// branch (§7: "an abort reason names a predicate that belongs to the
// last attempted transition's effect").
func PredicateName(err error) (string, bool) {
	var pns *PredicateNotSatisfied
	if !stderrors.As(err, &pns) {
		return "", false
	}
	return pns.Name, true
}
