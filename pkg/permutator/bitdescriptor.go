// Package permutator iterates the cartesian product of a scenario's
// configured field values, constructs and recalibrates a Target per
// point, runs the Simulator, and hands the resulting
// GlobalSimulationContext to an external Reporter (spec.md §4.4).
package permutator

import (
	"math/bits"

	"github.com/xsimrunner/xsim/pkg/target"
)

// Kind distinguishes an enumerated-symbol field from a tri-state
// boolean field (§4.4: "boolean mapped to 3-value enum {unset, true,
// false}").
type Kind int

const (
	KindEnum Kind = iota
	KindBool
)

// boolValues is the fixed 3-value domain every boolean bit-descriptor
// is packed into.
var boolValues = []string{"unset", "true", "false"}

// BitDescriptor is one field writer in the registry that drives both
// CSV serialisation and permutation (§9): a name, a value domain, the
// bit-width needed to index that domain, and the setter that applies
// one indexed value to a Target.
type BitDescriptor struct {
	Name   string
	Kind   Kind
	Values []string
	Bits   int

	// Set applies values[index] to tgt. It may return an
	// IncompatibleTarget error (e.g. assigning an ASLR-only field to
	// an OS that doesn't support ASLR); the Permutator skips the point
	// rather than treating it as fatal.
	Set func(tgt *target.Target, index int) error

	// Get renders tgt's current value for this field, used to build
	// the point's target-descriptor map for the reporter.
	Get func(tgt *target.Target) string

	// setByValue applies one symbolic value directly (rather than an
	// index into Values), the primitive WithValues restricts the
	// cartesian domain over without losing the underlying writer
	// (§6: "run [OUTPUT_DIR] [FIELD=VAL,VAL,...]").
	setByValue func(tgt *target.Target, value string) error

	// Verify is an optional hook called once every descriptor in a
	// scenario has been Set against a point, before the Target is
	// recalibrated (§4.4: "an optional verify(ctx) called after the
	// full point is assigned"). A descriptor whose compatibility with
	// another field can only be judged once the whole point exists
	// uses this instead of Set; returning an IncompatibleTarget error
	// here skips the point the same way a Set error does. Nil unless a
	// descriptor needs it — no built-in descriptor currently does.
	Verify func(tgt *target.Target) error
}

// WithValues returns a copy of d restricted to a caller-chosen subset
// (or reordering) of its value domain — the CLI's `field=VAL,VAL,...`
// override narrows what the Permutator enumerates for this field
// without changing how a chosen value is applied.
func (d *BitDescriptor) WithValues(values []string) *BitDescriptor {
	cp := &BitDescriptor{
		Name:       d.Name,
		Kind:       d.Kind,
		Values:     append([]string(nil), values...),
		Bits:       bitsFor(len(values)),
		Get:        d.Get,
		setByValue: d.setByValue,
		Verify:     d.Verify,
	}
	cp.Set = func(tgt *target.Target, index int) error {
		if index < 0 || index >= len(cp.Values) {
			return target.NewIncompatibleTarget(cp.Name + ": index out of range")
		}
		return cp.setByValue(tgt, cp.Values[index])
	}
	return cp
}

func bitsFor(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// newEnumDescriptor builds a descriptor over a plain symbolic-name
// domain (hardware/OS/application/flaw profile keys).
func newEnumDescriptor(name string, values []string, set func(tgt *target.Target, value string) error, get func(tgt *target.Target) string) *BitDescriptor {
	return &BitDescriptor{
		Name:   name,
		Kind:   KindEnum,
		Values: values,
		Bits:   bitsFor(len(values)),
		Set: func(tgt *target.Target, index int) error {
			if index < 0 || index >= len(values) {
				return target.NewIncompatibleTarget(name + ": index out of range")
			}
			return set(tgt, values[index])
		},
		Get:        get,
		setByValue: set,
	}
}

// newOverrideBoolDescriptor builds a descriptor over the {unset, true,
// false} domain whose "true"/"false" values invoke apply directly
// against the Target, rather than recording a Target-level assumption
// key. "unset" is always a no-op, leaving whatever the field's owning
// profile already assigned untouched.
func newOverrideBoolDescriptor(name string, get func(tgt *target.Target) string, apply func(tgt *target.Target, value bool) error) *BitDescriptor {
	setByValue := func(tgt *target.Target, value string) error {
		switch value {
		case "true":
			return apply(tgt, true)
		case "false":
			return apply(tgt, false)
		case "unset":
		default:
			return target.NewIncompatibleTarget(name + ": unknown boolean value " + value)
		}
		return nil
	}
	return &BitDescriptor{
		Name:   name,
		Kind:   KindBool,
		Values: boolValues,
		Bits:   2,
		Set: func(tgt *target.Target, index int) error {
			if index < 0 || index >= len(boolValues) {
				return target.NewIncompatibleTarget(name + ": index out of range")
			}
			return setByValue(tgt, boolValues[index])
		},
		Get:        get,
		setByValue: setByValue,
	}
}
