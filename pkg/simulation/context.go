package simulation

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/xsimrunner/xsim/pkg/target"
)

// Mode names the exploration mode of a run (§4.3). It is carried on
// every SimulationContext, but no guard or predicate reads it: every
// mode explores the same branches and resolves predicates to the same
// values.
type Mode int

const (
	// ModeNormal is the default mode.
	ModeNormal Mode = iota
	// ModeAttackFavor names attacker-favorable exploration; it does not
	// change predicate resolution.
	ModeAttackFavor
	// ModeDefenseFavor names defender-favorable exploration; it does
	// not change predicate resolution.
	ModeDefenseFavor
	// ModePublicOnly names public-techniques-only exploration; no
	// technique is marked non-public and nothing is excluded.
	ModePublicOnly
)

// SimulationContext is the mutable state threaded through one DFS
// branch of exploration (§3). It is cloned at every transition so
// sibling branches never observe each other's assumptions.
type SimulationContext struct {
	Target *target.Target

	Exploitability float64
	Desirability   float64
	Likelihood     float64

	Mode Mode

	// Aborted and AbortReason are set by the Simulator on the specific
	// clone whose effect raised PredicateNotSatisfied, for the report's
	// aborted/aborted_predicate columns (§6).
	Aborted     bool
	AbortReason string

	// Debug and Tracking are per-branch flags, both off by default.
	// The Simulator does not read them: the per-transition trace is
	// always recorded and no per-predicate logging is emitted.
	Debug    bool
	Tracking bool

	assumptions *assumptionTable
	techniques  mapset.Set[string]

	// transitions is the ordered list of transition identities taken
	// so far in this branch, used both to render the final report row
	// and, by the Simulator, as the cycle-prevention stack (§4.3,
	// Design Note 6).
	transitions []string

	// Global accumulates per-equivalence-class statistics across every
	// branch explored for the current target point. It is shared by
	// every SimulationContext cloned from the same root.
	Global *GlobalSimulationContext
}

// NewContext builds the root SimulationContext for one target point.
func NewContext(tgt *target.Target, mode Mode, global *GlobalSimulationContext) *SimulationContext {
	return &SimulationContext{
		Target:         tgt,
		Exploitability: 1.0,
		Desirability:   1.0,
		Likelihood:     1.0,
		Mode:           mode,
		assumptions:    newAssumptionTable(),
		techniques:     mapset.NewThreadUnsafeSet[string](),
		Global:         global,
	}
}

// Clone duplicates the context for a sibling branch: the assumption
// table, technique set, and transition stack are all deep-copied so
// mutating the clone never affects the parent (§4.3).
func (c *SimulationContext) Clone() *SimulationContext {
	return &SimulationContext{
		Target:         c.Target.Clone(),
		Exploitability: c.Exploitability,
		Desirability:   c.Desirability,
		Likelihood:     c.Likelihood,
		Mode:           c.Mode,
		Debug:          c.Debug,
		Tracking:       c.Tracking,
		assumptions:    c.assumptions.clone(),
		techniques:     c.techniques.Clone(),
		transitions:    append([]string(nil), c.transitions...),
		Global:         c.Global,
	}
}

// Fitness is the product of Exploitability, Desirability, and
// Likelihood (§3, "fitness = product of the three running metrics").
func (c *SimulationContext) Fitness() float64 {
	return c.Exploitability * c.Desirability * c.Likelihood
}

// Techniques returns the accumulated technique-tag set.
func (c *SimulationContext) Techniques() mapset.Set[string] { return c.techniques }

// Transitions returns the ordered transition-identity list taken so
// far in this branch.
func (c *SimulationContext) Transitions() []string {
	return append([]string(nil), c.transitions...)
}

// HasTransition reports whether id already appears on this branch's
// transition trace — the cycle-prevention check the Simulator runs
// before trying a transition (§4.3: "the transition stack doubles as
// cycle prevention; a transition may appear at most once on any
// branch").
func (c *SimulationContext) HasTransition(id string) bool {
	for _, t := range c.transitions {
		if t == id {
			return true
		}
	}
	return false
}

// RecordTransition appends id to the branch's transition trace. The
// Simulator calls this once per hop, independent of whatever
// predicate/assume/technique calls that hop's effect makes.
func (c *SimulationContext) RecordTransition(id string) {
	c.transitions = append(c.transitions, id)
}

// assumptionKey renders a predicate/assume invocation as the flat
// symbolic key spec.md's assumption table is keyed on, e.g.
// `can_find_address(:stack)`.
func assumptionKey(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + "(" + strings.Join(args, ",") + ")"
}

// Predicate evaluates a named, cacheable probability guard. The first
// call for a given (name, args) computes the value with compute and
// records it; every later call with the same key returns the cached
// value without recomputing or re-multiplying it into the running
// Exploitability, so repeated guards along a branch are idempotent.
//
// A zero-valued (or explicitly false, for boolean-shaped predicates)
// outcome returns PredicateNotSatisfied after recording the zero and
// setting Exploitability to 0, so the Simulator can report which guard
// killed the branch.
func (c *SimulationContext) Predicate(transition, event, name string, args []string, compute func() float64) (float64, error) {
	key := assumptionKey(name, args)

	if explicit, ok := c.Target.ExplicitAssumption(key); ok {
		v := 0.0
		if explicit {
			v = 1.0
		}
		rec := c.assumptions.set(key, v, transition, event, true, true)
		rec.Used = true
		if v == 0.0 {
			c.Exploitability = 0
			return 0, newPredicateNotSatisfied(name, args)
		}
		return v, nil
	}

	if existing, ok := c.assumptions.get(key); ok {
		existing.Used = true
		if existing.Value == 0.0 {
			c.Exploitability = 0
			return 0, newPredicateNotSatisfied(name, args)
		}
		return existing.Value, nil
	}

	v := compute()
	rec := c.assumptions.set(key, v, transition, event, true, false)
	rec.Used = true
	if v <= 0.0 {
		c.Exploitability = 0
		return 0, newPredicateNotSatisfied(name, args)
	}
	c.Exploitability *= v
	return v, nil
}

// Assume records a boolean fact derived by an effect (as opposed to a
// predicate guard): it never aborts the branch, it only narrows which
// future predicate/assume calls with the same key see a cached value
// (§4.3). An explicit Target-level assumption for the same key
// overrides whatever value is passed in.
func (c *SimulationContext) Assume(transition, event, name string, args []string, value bool) bool {
	key := assumptionKey(name, args)

	if explicit, ok := c.Target.ExplicitAssumption(key); ok {
		value = explicit
	} else if existing, ok := c.assumptions.get(key); ok {
		existing.Used = true
		return existing.Value != 0.0
	}

	v := 0.0
	if value {
		v = 1.0
	}
	c.assumptions.set(key, v, transition, event, false, false)
	return value
}

// ExplicitlyAssume looks up name as a Target-level explicit assumption,
// falling back to def when the caller never assumed it one way or the
// other, and records the resolved value exactly as Assume does.
func (c *SimulationContext) ExplicitlyAssume(transition, event, name string, def bool) bool {
	if explicit, ok := c.Target.ExplicitAssumption(name); ok {
		return c.Assume(transition, event, name, nil, explicit)
	}
	return c.Assume(transition, event, name, nil, def)
}

// Desire multiplies the running Desirability factor by v (§Glossary:
// "a subjective ease-of-attack factor... modulated by desirability
// calls in effects").
func (c *SimulationContext) Desire(v float64) { c.Desirability *= v }

// Likely multiplies the running Likelihood factor by v.
func (c *SimulationContext) Likely(v float64) { c.Likelihood *= v }

// Technique tags the branch as having used the named exploitation
// technique. Technique sets (not the raw transition trace) are the
// key that equivalence-class deduplication groups branches by (§5).
func (c *SimulationContext) Technique(tag string) {
	c.techniques.Add(tag)
}

// UsedAssumptions returns every recorded assumption whose Used bit is
// set, in insertion order — the "minimal branch" set spec.md requires
// every pre-exploitation transition to have contributed to (§8).
func (c *SimulationContext) UsedAssumptions() []*Assumption {
	out := make([]*Assumption, 0, len(c.assumptions.order))
	for _, a := range c.assumptions.ordered() {
		if a.Used {
			out = append(out, a)
		}
	}
	return out
}

// AllAssumptions returns every recorded assumption in insertion order.
func (c *SimulationContext) AllAssumptions() []*Assumption {
	return c.assumptions.ordered()
}
