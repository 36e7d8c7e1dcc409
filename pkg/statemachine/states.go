// Package statemachine defines the exploitation FSM (states,
// transitions, guards, effects) and the depth-first Simulator that
// explores every guard-satisfying path through it (spec.md §4.3).
package statemachine

// State is one node of the exploitation FSM.
type State string

const (
	StateTargetDefined                 State = "target_defined"
	StatePreparingEnvironment           State = "preparing_environment"
	StateEnvironmentPrepared           State = "environment_prepared"
	StateFlawTriggered                 State = "flaw_triggered"
	StateNextFlawTriggered             State = "next_flaw_triggered"
	StateControlOfReturnAddress        State = "control_of_return_address"
	StateControlOfFramePointer         State = "control_of_frame_pointer"
	StateControlOfSEHFrame             State = "control_of_seh_frame"
	StateControlOfFunctionPointer      State = "control_of_function_pointer"
	StateControlOfWriteTargetPointer   State = "control_of_write_target_pointer"
	StateControlOfInUseObjectState     State = "control_of_in_use_object_state"
	StateControlOfLFHLinkOffset        State = "control_of_lfh_linkoffset"
	StateControlOfHeapEntryFreeLinks   State = "control_of_heap_entry_free_links"
	StateControlOfHeapHandle           State = "control_of_heap_handle"
	StateControlOfCppObjectVTable      State = "control_of_cpp_object_vtable"
	StateControlOfInstructionPointer   State = "control_of_instruction_pointer"
	StateControlOfStackPointer         State = "control_of_stack_pointer"
	StateBypassingNX                   State = "bypassing_nx"
	StateControlOfCodeExecution        State = "control_of_code_execution"
)

// Initial and Terminal name the FSM's single entry and success states
// (§4.3).
const (
	Initial  = StateTargetDefined
	Terminal = StateControlOfCodeExecution
)
