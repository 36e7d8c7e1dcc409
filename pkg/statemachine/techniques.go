package statemachine

// Technique tags name the exploitation primitive a branch used to
// cross one hop of the FSM. The accumulated tag set (not the raw
// transition trace) is half of an equivalence class's identity (§5).
const (
	TechniqueReturnAddressOverwrite          = "ReturnAddressOverwrite"
	TechniqueFramePointerOverwrite           = "FramePointerOverwrite"
	TechniqueSEHFrameOverwrite               = "SEHFrameOverwrite"
	TechniqueFunctionPointerOverwrite        = "FunctionPointerOverwrite"
	TechniqueWriteTargetOverwrite            = "WriteTargetOverwrite"
	TechniqueInUseObjectCorruption           = "InUseObjectCorruption"
	TechniqueLFHLinkOffsetCorruption         = "LFHLinkOffsetCorruption"
	TechniqueHeapFreeListUnlinkCorruption    = "HeapFreeListUnlinkCorruption"
	TechniqueHeapHandleCorruption            = "HeapHandleCorruption"
	TechniqueVTableCorruption                = "VTableCorruption"
	TechniquePivotStackPointer               = "PivotStackPointer"
	TechniqueTransferToAttackerControlledCode = "TransferToAttackerControlledCode"
	TechniqueTransferToData                  = "TransferToData"
	TechniqueCodeExecutionViaSelfContainedRop = "CodeExecutionViaSelfContainedRopPayload"
	TechniqueNtSetInformationProcessBypass    = "NtSetInformationProcessBypass"
	TechniqueStageToCRTHeapBypass             = "StageToCRTHeapBypass"
	TechniqueVirtualProtectBypass             = "VirtualProtectBypass"
	TechniqueROPToVirtualProtectBypass        = "ROPToVirtualProtectBypass"
	TechniqueAbsoluteWriteRecursion           = "AbsoluteWriteRecursion"
)
