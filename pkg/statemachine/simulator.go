package statemachine

import (
	"github.com/xsimrunner/xsim/pkg/simulation"
	"github.com/xsimrunner/xsim/pkg/target"
)

// Options configures one Simulator.Run invocation (§4.3, §7).
type Options struct {
	// AllowImpossible disables the "zero aborts the branch" rule: a
	// zero-probability predicate is recorded but the walk continues
	// past it anyway. Off by default.
	AllowImpossible bool

	// TrackImpossible records aborted branches into the
	// GlobalSimulationContext's statistics instead of silently
	// discarding them.
	TrackImpossible bool

	// TrackMinimalOnly discards completed branches that are not
	// minimal (§4.3) before they reach the GlobalSimulationContext.
	TrackMinimalOnly bool

	// TrackEquivalentOnly collapses every completed branch into its
	// equivalence class's representative record plus a membership
	// count, instead of keeping a Record per branch (§3 glossary
	// "Equivalence class", §8 scenario 6).
	TrackEquivalentOnly bool
}

// DefaultOptions matches the engine's normal, non-exhaustive-debug
// posture: aborted branches and every completed branch are recorded,
// minimality is not enforced.
func DefaultOptions() Options {
	return Options{TrackImpossible: true}
}

// Simulator walks the FSM depth-first from its initial state,
// branching a fresh SimulationContext clone per outgoing transition
// (§4.3). It owns no mutable state of its own beyond the machine
// definition and run options, so one Simulator can run many target
// points sequentially.
type Simulator struct {
	Machine *StateMachine
	Options Options
}

// NewSimulator builds a Simulator over the standard exploitation FSM.
func NewSimulator(opts Options) *Simulator {
	return &Simulator{Machine: New(), Options: opts}
}

// Run explores every guard-satisfying path from the initial state for
// one target, folding completed and aborted branches into global.
func (s *Simulator) Run(tgt *target.Target, mode simulation.Mode, global *simulation.GlobalSimulationContext) {
	global.TrackEquivalentOnly = s.Options.TrackEquivalentOnly
	root := simulation.NewContext(tgt, mode, global)
	s.explore(root, Initial)
}

func (s *Simulator) explore(ctx *simulation.SimulationContext, state State) {
	if state == Terminal {
		if s.Options.TrackMinimalOnly && !s.isMinimal(ctx) {
			return
		}
		ctx.Global.RecordCompleted(ctx)
		return
	}

	for _, tr := range s.Machine.From(state) {
		id := tr.ID()
		if ctx.HasTransition(id) {
			continue
		}

		branch := ctx.Clone()
		branch.RecordTransition(id)

		err := tr.Effect(branch)
		if err != nil {
			if !simulation.IsPredicateNotSatisfied(err) {
				continue
			}
			if s.Options.AllowImpossible {
				s.explore(branch, tr.Dest)
				continue
			}
			branch.Aborted = true
			if name, ok := simulation.PredicateName(err); ok {
				branch.AbortReason = name
			}
			if s.Options.TrackImpossible {
				ctx.Global.RecordAborted(branch)
			}
			continue
		}

		s.explore(branch, tr.Dest)
	}
}

// isMinimal implements §4.3's "minimal branch" property: every
// pre-exploitation transition taken (one whose source state is
// preparing_environment) must have contributed at least one
// assumption whose used bit was later set.
func (s *Simulator) isMinimal(ctx *simulation.SimulationContext) bool {
	for _, id := range ctx.Transitions() {
		tr, ok := s.Machine.ByID(id)
		if !ok || tr.Source != StatePreparingEnvironment {
			continue
		}
		if !anyAssumptionFromTransitionUsed(ctx, id) {
			return false
		}
	}
	return true
}

func anyAssumptionFromTransitionUsed(ctx *simulation.SimulationContext, transitionID string) bool {
	for _, a := range ctx.AllAssumptions() {
		if a.OriginTransition == transitionID && a.Used {
			return true
		}
	}
	return false
}
