package statemachine

import (
	"sort"

	"github.com/xsimrunner/xsim/pkg/profile"
	"github.com/xsimrunner/xsim/pkg/simulation"
)

// StateMachine is the exploitation FSM: every transition keyed by its
// source state, plus a flat id index used by the Simulator's minimal-
// branch check.
type StateMachine struct {
	from map[State][]*Transition
	byID map[string]*Transition
}

func newMachine() *StateMachine {
	return &StateMachine{from: make(map[State][]*Transition), byID: make(map[string]*Transition)}
}

func (m *StateMachine) add(t *Transition) {
	m.from[t.Source] = append(m.from[t.Source], t)
	m.byID[t.ID()] = t
}

// From returns every transition declared out of state, in declaration
// order (§5: "branches fork in the order of transition declaration at
// each state").
func (m *StateMachine) From(state State) []*Transition { return m.from[state] }

// ByID looks up a transition by its ID() for report rendering and the
// minimal-branch check.
func (m *StateMachine) ByID(id string) (*Transition, bool) {
	t, ok := m.byID[id]
	return t, ok
}

// AllStates returns the lex-sorted union of every source and dest
// state name declared in the machine, the fixed one-hot "transition"
// column set the CSV report header is built from (§6).
func (m *StateMachine) AllStates() []string {
	seen := make(map[string]bool)
	for _, t := range m.byID {
		seen[string(t.Source)] = true
		seen[string(t.Dest)] = true
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// AllEvents returns the lex-sorted union of every event name declared
// in the machine, the fixed one-hot event column set (§6).
func (m *StateMachine) AllEvents() []string {
	seen := make(map[string]bool)
	for _, t := range m.byID {
		seen[t.Event] = true
	}
	out := make([]string, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// New builds the exploitation FSM described in spec.md §4.3.
func New() *StateMachine {
	m := newMachine()

	m.add(&Transition{Source: StateTargetDefined, Event: "prepare_environment", Dest: StatePreparingEnvironment, Effect: noopEffect})

	m.add(&Transition{Source: StatePreparingEnvironment, Event: "load_non_aslr_image", Dest: StatePreparingEnvironment,
		Effect: preparingSelfLoop("load_non_aslr_image", "can_find_address(image)", func(ctx *simulation.SimulationContext) (float64, error) {
			return ctx.Predicate("preparing_environment", "load_non_aslr_image", "attacker_can_load_non_aslr_image", nil, func() float64 {
				return triStateToProb(ctx.Target.Derivable.Capabilities.CanLoadNonASLRImage)
			})
		}),
	})
	m.add(&Transition{Source: StatePreparingEnvironment, Event: "load_non_aslr_non_safeseh_image", Dest: StatePreparingEnvironment,
		Effect: preparingSelfLoop("load_non_aslr_non_safeseh_image", "can_bypass_sehop", func(ctx *simulation.SimulationContext) (float64, error) {
			return ctx.Predicate("preparing_environment", "load_non_aslr_non_safeseh_image", "attacker_can_load_non_aslr_non_safeseh_image", nil, func() float64 {
				return triStateToProb(ctx.Target.Derivable.Capabilities.CanLoadNonASLRNonSafeSEHImage)
			})
		}),
	})
	m.add(&Transition{Source: StatePreparingEnvironment, Event: "spray_data", Dest: StatePreparingEnvironment,
		Effect: preparingSelfLoop("spray_data", "can_find_address(:data)", func(ctx *simulation.SimulationContext) (float64, error) {
			return ctx.Predicate("preparing_environment", "spray_data", "can_spray_data_bottom_up", nil, func() float64 {
				return triStateToProb(ctx.Target.Derivable.Capabilities.CanSprayDataBottomUp)
			})
		}),
	})
	m.add(&Transition{Source: StatePreparingEnvironment, Event: "spray_code", Dest: StatePreparingEnvironment,
		Effect: preparingSelfLoop("spray_code", "can_find_address(:code)", func(ctx *simulation.SimulationContext) (float64, error) {
			return ctx.Predicate("preparing_environment", "spray_code", "can_spray_code_bottom_up", nil, func() float64 {
				return triStateToProb(ctx.Target.Derivable.Capabilities.CanSprayCodeBottomUp)
			})
		}),
	})
	m.add(&Transition{Source: StatePreparingEnvironment, Event: "massage_heap", Dest: StatePreparingEnvironment,
		Effect: preparingSelfLoop("massage_heap", "heap_massaged", func(ctx *simulation.SimulationContext) (float64, error) {
			v, err := ctx.Predicate("preparing_environment", "massage_heap", "can_massage_heap", nil, func() float64 {
				return triStateToProb(ctx.Target.Derivable.Capabilities.CanMassageHeap)
			})
			if err == nil {
				ctx.Desire(0.9)
			}
			return v, err
		}),
	})
	m.add(&Transition{Source: StatePreparingEnvironment, Event: "map_null_page", Dest: StatePreparingEnvironment,
		Effect: func(ctx *simulation.SimulationContext) error {
			id := selfLoopID("map_null_page")
			_, err := predicateBool(ctx, id, "map_null_page", "is_local_kernel_flaw", nil, func() bool {
				return isLocalKernelFlaw(ctx.Target)
			})
			if err != nil {
				return err
			}
			_, err = ctx.Predicate(id, "map_null_page", "can_map_null_page", nil, func() float64 {
				return canMapNullPage(ctx.Target)
			})
			if err != nil {
				return err
			}
			ctx.Assume(id, "map_null_page", "null_page_mapped", nil, true)
			return nil
		},
	})
	m.add(&Transition{Source: StatePreparingEnvironment, Event: "discover_stack_address", Dest: StatePreparingEnvironment,
		Effect: preparingSelfLoop("discover_stack_address", "can_find_address(:stack)", discoverRegion(profile.RegionStack, ":stack", "discover_stack_address")),
	})
	m.add(&Transition{Source: StatePreparingEnvironment, Event: "discover_heap_address", Dest: StatePreparingEnvironment,
		Effect: preparingSelfLoop("discover_heap_address", "can_find_address(:heap)", discoverRegion(profile.RegionHeap, ":heap", "discover_heap_address")),
	})
	m.add(&Transition{Source: StatePreparingEnvironment, Event: "discover_peb_address", Dest: StatePreparingEnvironment,
		Effect: preparingSelfLoop("discover_peb_address", "can_find_address(:peb)", discoverRegion(profile.RegionPEB, ":peb", "discover_peb_address")),
	})
	m.add(&Transition{Source: StatePreparingEnvironment, Event: "discover_image_address", Dest: StatePreparingEnvironment,
		Effect: preparingSelfLoop("discover_image_address", "can_find_address(image)", discoverRegion(profile.RegionImage, "image", "discover_image_address")),
	})
	m.add(&Transition{Source: StatePreparingEnvironment, Event: "discover_vtguard_cookie", Dest: StatePreparingEnvironment,
		Effect: preparingSelfLoop("discover_vtguard_cookie", "vtguard_cookie_discovered", func(ctx *simulation.SimulationContext) (float64, error) {
			vg := ctx.Target.Derivable.Application.DefaultVTableGuard
			return ctx.Predicate(selfLoopID("discover_vtguard_cookie"), "discover_vtguard_cookie", "can_find_vtguard_cookie", nil, func() float64 {
				if !vg.Enabled.Bool(false) {
					return 1.0
				}
				return canFindAddress(ctx.Target, profile.RegionImage)
			})
		}),
	})

	m.add(&Transition{Source: StatePreparingEnvironment, Event: "finish_preparing_environment", Dest: StateEnvironmentPrepared, Effect: noopEffect})

	m.add(&Transition{Source: StateEnvironmentPrepared, Event: "trigger_flaw", Dest: StateFlawTriggered, Effect: noopEffect})
	m.add(&Transition{Source: StateNextFlawTriggered, Event: "trigger_flaw", Dest: StateFlawTriggered, Effect: noopEffect})

	m.add(&Transition{Source: StateFlawTriggered, Event: "corrupt_return_address", Dest: StateControlOfReturnAddress,
		Effect: func(ctx *simulation.SimulationContext) error {
			flaw := ctx.Target.Derivable.Flaw
			for _, name := range []string{"can_corrupt_stack_memory", "can_find_stack_frame_address", "can_corrupt_return_address"} {
				if _, err := predicateBool(ctx, "flaw_triggered", "corrupt_return_address", name, nil, func() bool { return flaw.Assert(name) }); err != nil {
					return err
				}
			}
			ctx.Technique(TechniqueReturnAddressOverwrite)
			return nil
		},
	})
	m.add(&Transition{Source: StateFlawTriggered, Event: "corrupt_frame_pointer", Dest: StateControlOfFramePointer,
		Effect: corruptEffect("can_corrupt_frame_pointer", TechniqueFramePointerOverwrite)})
	m.add(&Transition{Source: StateFlawTriggered, Event: "corrupt_seh_frame", Dest: StateControlOfSEHFrame,
		Effect: corruptEffect("can_corrupt_seh_frame", TechniqueSEHFrameOverwrite)})
	m.add(&Transition{Source: StateFlawTriggered, Event: "corrupt_function_pointer", Dest: StateControlOfFunctionPointer,
		Effect: corruptEffect("can_corrupt_function_pointer", TechniqueFunctionPointerOverwrite)})
	m.add(&Transition{Source: StateFlawTriggered, Event: "corrupt_write_target", Dest: StateControlOfWriteTargetPointer,
		Effect: corruptEffect("can_corrupt_write_target", TechniqueWriteTargetOverwrite)})
	m.add(&Transition{Source: StateFlawTriggered, Event: "corrupt_in_use_object", Dest: StateControlOfInUseObjectState,
		Effect: corruptEffect("can_corrupt_in_use_object", TechniqueInUseObjectCorruption)})
	m.add(&Transition{Source: StateFlawTriggered, Event: "corrupt_lfh_linkoffset", Dest: StateControlOfLFHLinkOffset,
		Effect: corruptEffect("can_corrupt_lfh_linkoffset", TechniqueLFHLinkOffsetCorruption)})
	m.add(&Transition{Source: StateFlawTriggered, Event: "corrupt_heap_free_links", Dest: StateControlOfHeapEntryFreeLinks,
		Effect: corruptEffect("can_corrupt_heap_entry_free_links", TechniqueHeapFreeListUnlinkCorruption)})
	m.add(&Transition{Source: StateFlawTriggered, Event: "corrupt_heap_handle", Dest: StateControlOfHeapHandle,
		Effect: corruptEffect("can_corrupt_heap_handle", TechniqueHeapHandleCorruption)})
	m.add(&Transition{Source: StateFlawTriggered, Event: "corrupt_vtable", Dest: StateControlOfCppObjectVTable,
		Effect: corruptEffect("can_corrupt_vtable", TechniqueVTableCorruption)})

	m.add(&Transition{Source: StateFlawTriggered, Event: "AbsoluteWrite", Dest: StateNextFlawTriggered,
		Effect: func(ctx *simulation.SimulationContext) error {
			flaw := ctx.Target.Derivable.Flaw
			if _, err := predicateBool(ctx, "flaw_triggered", "AbsoluteWrite", "can_corrupt_arbitrary_address", nil, func() bool {
				return flaw.Assert("can_corrupt_arbitrary_address")
			}); err != nil {
				return err
			}
			// Cycle prevention already guarantees this exact transition
			// is taken at most once per branch; this predicate names
			// the guard spec.md calls out explicitly (§8 scenario 3)
			// rather than leaving the suppression implicit.
			if _, err := ctx.Predicate("flaw_triggered", "AbsoluteWrite", "have_not_triggered_write_anywhere", nil, func() float64 { return 1.0 }); err != nil {
				return err
			}
			ctx.Technique(TechniqueAbsoluteWriteRecursion)
			grantEnabledFlawAsserts(ctx)
			return nil
		},
	})

	m.add(&Transition{Source: StateControlOfReturnAddress, Event: "return_from_function", Dest: StateControlOfInstructionPointer, Effect: effectReturnFromFunction()})
	m.add(&Transition{Source: StateControlOfFramePointer, Event: "gain_instruction_pointer_control", Dest: StateControlOfInstructionPointer, Effect: gainInstructionPointerControl()})
	m.add(&Transition{Source: StateControlOfSEHFrame, Event: "unwind_via_seh", Dest: StateControlOfInstructionPointer, Effect: effectBypassSehFrame()})
	m.add(&Transition{Source: StateControlOfFunctionPointer, Event: "gain_instruction_pointer_control", Dest: StateControlOfInstructionPointer, Effect: gainInstructionPointerControl()})
	m.add(&Transition{Source: StateControlOfWriteTargetPointer, Event: "gain_instruction_pointer_control", Dest: StateControlOfInstructionPointer, Effect: gainInstructionPointerControl()})
	m.add(&Transition{Source: StateControlOfInUseObjectState, Event: "gain_instruction_pointer_control", Dest: StateControlOfInstructionPointer, Effect: gainInstructionPointerControl()})
	m.add(&Transition{Source: StateControlOfLFHLinkOffset, Event: "gain_instruction_pointer_control", Dest: StateControlOfInstructionPointer, Effect: gainInstructionPointerControl()})
	m.add(&Transition{Source: StateControlOfHeapEntryFreeLinks, Event: "gain_instruction_pointer_control", Dest: StateControlOfInstructionPointer, Effect: gainInstructionPointerControl()})
	m.add(&Transition{Source: StateControlOfHeapHandle, Event: "gain_instruction_pointer_control", Dest: StateControlOfInstructionPointer, Effect: gainInstructionPointerControl()})
	m.add(&Transition{Source: StateControlOfCppObjectVTable, Event: "gain_instruction_pointer_control", Dest: StateControlOfInstructionPointer, Effect: gainInstructionPointerControl()})

	m.add(&Transition{Source: StateControlOfInstructionPointer, Event: "transfer_to_attacker_controlled_code", Dest: StateControlOfCodeExecution,
		Effect: func(ctx *simulation.SimulationContext) error {
			_, err := ctx.Predicate("control_of_instruction_pointer", "transfer_to_attacker_controlled_code", "can_find_address", []string{":data"}, func() float64 {
				return canFindAddress(ctx.Target, profile.RegionData)
			})
			if err != nil {
				return err
			}
			ctx.Technique(TechniqueTransferToAttackerControlledCode)
			return nil
		},
	})
	m.add(&Transition{Source: StateControlOfInstructionPointer, Event: "transfer_to_data", Dest: StateControlOfCodeExecution,
		Effect: func(ctx *simulation.SimulationContext) error {
			_, err := predicateBool(ctx, "control_of_instruction_pointer", "transfer_to_data", "user_nx_enabled_at_data", nil, func() bool {
				return !userNxEnabled(ctx.Target)
			})
			if err != nil {
				return err
			}
			ctx.Technique(TechniqueTransferToData)
			return nil
		},
	})
	m.add(&Transition{Source: StateControlOfInstructionPointer, Event: "pivot_stack_pointer", Dest: StateControlOfStackPointer,
		Effect: func(ctx *simulation.SimulationContext) error {
			ctx.Assume("control_of_instruction_pointer", "pivot_stack_pointer", "can_find_stack_pivot_gadget", nil, true)
			ctx.Technique(TechniquePivotStackPointer)
			return nil
		},
	})
	m.add(&Transition{Source: StateControlOfInstructionPointer, Event: "bypass_nx", Dest: StateBypassingNX,
		Effect: func(ctx *simulation.SimulationContext) error {
			_, err := predicateBool(ctx, "control_of_instruction_pointer", "bypass_nx", "user_nx_enabled", nil, func() bool {
				return userNxEnabled(ctx.Target)
			})
			return err
		},
	})

	m.add(&Transition{Source: StateControlOfStackPointer, Event: "execute_self_contained_rop_payload", Dest: StateControlOfCodeExecution,
		Effect: func(ctx *simulation.SimulationContext) error {
			_, err := ctx.Predicate("control_of_stack_pointer", "execute_self_contained_rop_payload", "can_execute_self_contained_rop_payload", nil, func() float64 { return 1.0 })
			if err != nil {
				return err
			}
			ctx.Technique(TechniqueCodeExecutionViaSelfContainedRop)
			return nil
		},
	})

	m.add(&Transition{Source: StateBypassingNX, Event: "bypass_via_ntsetinformationprocess", Dest: StateControlOfInstructionPointer,
		Effect: nxBypassTechnique("bypass_via_ntsetinformationprocess", TechniqueNtSetInformationProcessBypass)})
	m.add(&Transition{Source: StateBypassingNX, Event: "bypass_via_stage_to_crt_heap", Dest: StateControlOfInstructionPointer,
		Effect: nxBypassTechnique("bypass_via_stage_to_crt_heap", TechniqueStageToCRTHeapBypass)})
	m.add(&Transition{Source: StateBypassingNX, Event: "bypass_via_virtualprotect", Dest: StateControlOfInstructionPointer,
		Effect: nxBypassTechnique("bypass_via_virtualprotect", TechniqueVirtualProtectBypass)})
	m.add(&Transition{Source: StateBypassingNX, Event: "bypass_via_rop_to_virtualprotect", Dest: StateControlOfInstructionPointer,
		Effect: nxBypassTechnique("bypass_via_rop_to_virtualprotect", TechniqueROPToVirtualProtectBypass)})

	return m
}

// grantEnabledFlawAsserts folds the capability asserts of every flaw
// variant named in the current flaw's Enables list into the target's
// flaw, so the `next_flaw_triggered` recursion actually unlocks the
// corruption primitives it conceptually represents (§3 "enables"),
// rather than leaving the recursive flaw_triggered visit stuck with
// only the transitions the original flaw already granted.
func grantEnabledFlawAsserts(ctx *simulation.SimulationContext) {
	flaw := ctx.Target.Derivable.Flaw
	store := ctx.Target.Store()
	for _, enabledName := range store.FlawEnables(flaw.Name) {
		enabled, ok := store.Flaw(enabledName)
		if !ok {
			continue
		}
		for k, v := range enabled.Asserts {
			if v {
				flaw.Asserts[k] = true
			}
		}
	}
}

// triStateToProb maps an attacker-capability tri-state to the
// [0,1] value a predicate call expects: Unset defaults to "not yet
// proven possible" (0), matching the conservative normal-mode default
// for an attacker capability the profile never asserted.
func triStateToProb(t profile.TriState) float64 {
	if t.Bool(false) {
		return 1.0
	}
	return 0.0
}
