package profile

// Flaw describes one memory-safety defect variant.
type Flaw struct {
	Name string

	RootCause        RootCause
	MemoryAccess      MemoryAccess
	CorruptionRegion  CorruptionRegion
	Displacement      Displacement
	Direction         Direction
	PositionAdjacent  bool
	LengthControlled  bool

	// Local is true for flaws only reachable by a local (non-remote)
	// attacker; it feeds the entropy-reduction model in
	// aslr_inhibition_degree (§4.3).
	Local bool

	StackProtection StackProtection
	VTableGuard     VTableGuard

	// Asserts is the set of boolean capability predicates this flaw
	// variant grants outright, e.g. can_corrupt_return_address,
	// can_corrupt_seh_frame. Re-architected from the source's
	// string-keyed method dispatch into a plain map (Design Note 4).
	Asserts map[string]bool

	// Enables names other flaw variants reachable from this one via
	// the next_flaw_triggered recursion (§4.3, §8 scenario 3).
	Enables []string

	// CoreVariant marks flaws kept in the ProfileStore's "core flaws"
	// subset, excluding second-order derived variants (§4.1).
	CoreVariant bool

	Callbacks []RecalibrateFunc
}

func (f *Flaw) Clone() *Flaw {
	cp := *f
	cp.Asserts = make(map[string]bool, len(f.Asserts))
	for k, v := range f.Asserts {
		cp.Asserts[k] = v
	}
	cp.Enables = append([]string(nil), f.Enables...)
	cp.Callbacks = append([]RecalibrateFunc(nil), f.Callbacks...)
	return &cp
}

// Assert reports whether the flaw's capability set asserts name.
func (f *Flaw) Assert(name string) bool {
	return f.Asserts[name]
}

// recalibrateFlawStackProtectionInherit implements "flaw's per-function
// stack-protection settings inherit from the application's when unset"
// (§4.2), and the local-flaw entropy-reduction override (entropy=17).
func recalibrateFlawStackProtectionInherit(d *Derivable) {
	if d.Flaw == nil || d.Application == nil {
		return
	}
	sp := &d.Flaw.StackProtection
	if !sp.Enabled.IsSet() {
		sp.Enabled = d.Application.DefaultStackProtection.Enabled
	}
	if sp.Version == 0 {
		sp.Version = d.Application.DefaultStackProtection.Version
	}
	if d.Flaw.Local {
		sp.Entropy = 17
	} else if sp.Entropy == 0 {
		sp.Entropy = d.Application.DefaultStackProtection.Entropy
	}
}

func recalibrateFlawVTableGuardInherit(d *Derivable) {
	if d.Flaw == nil || d.Application == nil {
		return
	}
	if !d.Flaw.VTableGuard.Enabled.IsSet() {
		d.Flaw.VTableGuard.Enabled = d.Application.DefaultVTableGuard.Enabled
		d.Flaw.VTableGuard.Level = d.Application.DefaultVTableGuard.Level
	}
}

func builtinFlaws() map[string]*Flaw {
	baseStages := []RecalibrateFunc{recalibrateFlawStackProtectionInherit, recalibrateFlawVTableGuardInherit}

	m := map[string]*Flaw{
		"relative_stack_corruption_forward_adjacent": {
			Name: "relative_stack_corruption_forward_adjacent",
			RootCause: RootCauseMemoryCorruption,
			MemoryAccess: AccessWrite,
			CorruptionRegion: CorruptionRegionStack,
			Displacement: DisplacementRelative, Direction: DirectionForward,
			PositionAdjacent: true, LengthControlled: true,
			Asserts: map[string]bool{
				"can_corrupt_stack_memory":     true,
				"can_find_stack_frame_address": true,
				"can_corrupt_return_address":   true,
				"can_corrupt_frame_pointer":    true,
			},
			CoreVariant: true,
		},
		"relative_heap_corruption_forward_adjacent": {
			Name: "relative_heap_corruption_forward_adjacent",
			RootCause: RootCauseMemoryCorruption,
			MemoryAccess: AccessWrite,
			CorruptionRegion: CorruptionRegionHeap,
			Displacement: DisplacementRelative, Direction: DirectionForward,
			PositionAdjacent: true, LengthControlled: true,
			Asserts: map[string]bool{
				"can_corrupt_heap_entry_free_links": true,
				"can_corrupt_lfh_linkoffset":        true,
				"can_corrupt_heap_handle":           true,
			},
			CoreVariant: true,
		},
		"null_deref_kernel": {
			Name: "null_deref_kernel",
			RootCause: RootCauseNullDeref,
			MemoryAccess: AccessRead | AccessControlTransfer,
			CorruptionRegion: CorruptionRegionNone,
			Asserts: map[string]bool{
				"can_corrupt_function_pointer": true,
			},
			CoreVariant: true,
		},
		"absolute_write": {
			Name: "absolute_write",
			RootCause: RootCauseMemoryCorruption,
			MemoryAccess: AccessWrite,
			CorruptionRegion: CorruptionRegionAny,
			Displacement: DisplacementAbsolute, Direction: DirectionForward,
			PositionAdjacent: false, LengthControlled: true,
			Asserts: map[string]bool{
				"can_corrupt_arbitrary_address": true,
				"can_corrupt_write_target":      true,
			},
			Enables:     []string{"relative_heap_corruption_forward_adjacent"},
			CoreVariant: true,
		},
		"type_confusion_vtable": {
			Name: "type_confusion_vtable",
			RootCause: RootCauseTypeConfusion,
			MemoryAccess: AccessRead | AccessWrite | AccessControlTransfer,
			CorruptionRegion: CorruptionRegionHeap,
			Displacement: DisplacementRelative, Direction: DirectionForward,
			PositionAdjacent: true,
			Asserts: map[string]bool{
				"can_corrupt_in_use_object": true,
				"can_corrupt_vtable":        true,
			},
		},
		"double_free": {
			Name: "double_free",
			RootCause: RootCauseDoubleFree,
			MemoryAccess: AccessWrite,
			CorruptionRegion: CorruptionRegionHeap,
			Asserts: map[string]bool{
				"can_corrupt_heap_handle":           true,
				"can_corrupt_heap_entry_free_links": true,
			},
		},
		"uninitialized_use": {
			Name: "uninitialized_use",
			RootCause: RootCauseUninitializedUse,
			MemoryAccess: AccessRead | AccessWrite,
			CorruptionRegion: CorruptionRegionHeap,
			Asserts: map[string]bool{
				"can_corrupt_in_use_object": true,
			},
		},
		"format_string_write": {
			Name: "format_string_write",
			RootCause: RootCauseFormatString,
			MemoryAccess: AccessWrite,
			CorruptionRegion: CorruptionRegionDataSeg,
			Displacement: DisplacementAbsolute,
			Asserts: map[string]bool{
				"can_corrupt_write_target": true,
				"can_corrupt_seh_frame":    true,
			},
		},
		"relative_stack_corruption_forward_adjacent_local": {
			Name: "relative_stack_corruption_forward_adjacent_local",
			RootCause: RootCauseMemoryCorruption,
			MemoryAccess: AccessWrite,
			CorruptionRegion: CorruptionRegionStack,
			Displacement: DisplacementRelative, Direction: DirectionForward,
			PositionAdjacent: true, LengthControlled: true,
			Local: true,
			Asserts: map[string]bool{
				"can_corrupt_stack_memory":     true,
				"can_find_stack_frame_address": true,
				"can_corrupt_return_address":   true,
			},
		},
	}
	for _, f := range m {
		f.Callbacks = append([]RecalibrateFunc(nil), baseStages...)
	}
	return m
}

// coreFlawNames returns the subset of builtinFlaws marked CoreVariant,
// excluding second-order derived variants (§4.1).
func coreFlawNames(all map[string]*Flaw) []string {
	var names []string
	for name, f := range all {
		if f.CoreVariant {
			names = append(names, name)
		}
	}
	return names
}
