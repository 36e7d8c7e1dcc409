package statemachine

import (
	"github.com/xsimrunner/xsim/pkg/profile"
	"github.com/xsimrunner/xsim/pkg/simulation"
)

// predicateBool wraps a plain bool-producing guard as a
// simulation.Predicate call, the common case for flaw-assertion-style
// guards that are deterministically true or false for a given target.
func predicateBool(ctx *simulation.SimulationContext, transition, event, name string, args []string, compute func() bool) (bool, error) {
	v, err := ctx.Predicate(transition, event, name, args, func() float64 {
		if compute() {
			return 1.0
		}
		return 0.0
	})
	return v != 0, err
}

// corruptEffect builds the `flaw_triggered -> control_of_*` family of
// effects: guard on the flaw's asserted capability, tag the
// corresponding technique.
func corruptEffect(assertName, technique string) EffectFunc {
	return func(ctx *simulation.SimulationContext) error {
		flaw := ctx.Target.Derivable.Flaw
		_, err := predicateBool(ctx, "flaw_triggered", "corrupt_"+assertName, assertName, nil, func() bool {
			return flaw.Assert(assertName)
		})
		if err != nil {
			return err
		}
		ctx.Technique(technique)
		return nil
	}
}

// gainInstructionPointerControl builds the generic
// `control_of_* -> control_of_instruction_pointer` effect used by
// every corruption family except the return-address path, which
// carries its own stack-protection guard below.
func gainInstructionPointerControl() EffectFunc {
	return func(ctx *simulation.SimulationContext) error {
		ctx.Assume("", "gain_instruction_pointer_control", "control_of_instruction_pointer_reached", nil, true)
		return nil
	}
}

// effectReturnFromFunction implements `control_of_return_address ->
// control_of_instruction_pointer` via `return_from_function` (§4.3):
// guard on `can_bypass_stack_protection`, then assume
// `can_control_stack_pointer`.
func effectReturnFromFunction() EffectFunc {
	return func(ctx *simulation.SimulationContext) error {
		_, err := ctx.Predicate("control_of_return_address", "return_from_function", "can_bypass_stack_protection", nil, func() float64 {
			return canBypassStackProtection(ctx.Target)
		})
		if err != nil {
			return err
		}
		ctx.Assume("control_of_return_address", "return_from_function", "can_control_stack_pointer", nil, true)
		return nil
	}
}

// effectBypassSehFrame guards the SEH-hijack path on the corrected
// `can_bypass_sehop` predicate (§9) before granting instruction
// pointer control.
func effectBypassSehFrame() EffectFunc {
	return func(ctx *simulation.SimulationContext) error {
		app := ctx.Target.Derivable.Application
		if app.SEHOPPolicy.Bool(false) {
			_, err := ctx.Predicate("control_of_seh_frame", "unwind_via_seh", "can_bypass_sehop", nil, func() float64 {
				return canBypassSehop(ctx.Target)
			})
			if err != nil {
				return err
			}
		}
		ctx.Assume("control_of_seh_frame", "unwind_via_seh", "can_control_stack_pointer", nil, true)
		return nil
	}
}

// preparingSelfLoop builds one `preparing_environment ->
// preparing_environment` self-loop: guard on `possible`, then assume
// the discovered/prepared fact (§4.3).
func preparingSelfLoop(event, assumptionName string, possible func(*simulation.SimulationContext) (float64, error)) EffectFunc {
	return func(ctx *simulation.SimulationContext) error {
		if _, err := possible(ctx); err != nil {
			return err
		}
		ctx.Assume(selfLoopID(event), event, assumptionName, nil, true)
		return nil
	}
}

func discoverRegion(region profile.Region, assumptionArg, event string) func(*simulation.SimulationContext) (float64, error) {
	return func(ctx *simulation.SimulationContext) (float64, error) {
		return ctx.Predicate(selfLoopID(event), event, "can_find_address", []string{assumptionArg}, func() float64 {
			return canFindAddress(ctx.Target, region)
		})
	}
}

func nxBypassTechnique(name, technique string) EffectFunc {
	return func(ctx *simulation.SimulationContext) error {
		_, err := ctx.Predicate("bypassing_nx", name, "can_execute_at_address", []string{":data"}, func() float64 {
			return canFindAddress(ctx.Target, profile.RegionData)
		})
		if err != nil {
			return err
		}
		ctx.Technique(technique)
		return nil
	}
}
