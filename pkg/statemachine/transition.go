package statemachine

import "github.com/xsimrunner/xsim/pkg/simulation"

// EffectFunc is the closure a Transition runs against a branch's
// SimulationContext. It returns a non-nil error (always a
// simulation.PredicateNotSatisfied) when a guard aborted the branch.
type EffectFunc func(ctx *simulation.SimulationContext) error

// Transition is (source-state, event-name, destination-state,
// effect-closure) (§4.3).
type Transition struct {
	Source State
	Event  string
	Dest   State
	Effect EffectFunc
}

// ID is the transition's identity for cycle prevention and for the
// report's one-hot transition columns: source/event/dest uniquely
// distinguishes transitions that share an event name but not an
// endpoint (e.g. the two `trigger_flaw` transitions).
func (t *Transition) ID() string {
	return string(t.Source) + "/" + t.Event + "/" + string(t.Dest)
}

func noopEffect(ctx *simulation.SimulationContext) error { return nil }

// selfLoopID renders a preparing_environment self-loop's transition
// id without needing a *Transition in scope, so effect closures can
// record an OriginTransition that matches what the Simulator's
// minimal-branch check looks up by id.
func selfLoopID(event string) string {
	return string(StatePreparingEnvironment) + "/" + event + "/" + string(StatePreparingEnvironment)
}
