package profile

import "strings"

// Compatibility predicates are pure functions of the variants under
// test (Design Note 2). Incompatible triples are dropped by the
// Permutator/Target, never treated as an error condition in their own
// right (§3 invariant).
//
// §9 flags that several compatibility checks in the original source
// read as `if (A) or (B) C` with a missing `or`, so the trailing
// clause runs unconditionally as its own statement rather than
// joining the disjunction. Go has no such "dangling statement"
// ambiguity — every clause below is an explicit, fully-parenthesized
// conjunction/disjunction, so each predicate requires every named
// clause to hold; this is the chosen resolution of that open
// question, recorded here rather than silently guessed at.

// OSCompatibleWithHardware reports whether os may be paired with hw.
func OSCompatibleWithHardware(os *OperatingSystem, hw *Hardware) bool {
	if os == nil || hw == nil {
		return false
	}
	if os.Arch != hw.Arch {
		return false
	}
	if os.AddressWidth == 64 && hw.AddressWidth == 32 {
		return false
	}
	return true
}

// ApplicationCompatibleWithTarget reports whether app may be paired
// with hw+os.
func ApplicationCompatibleWithTarget(app *Application, hw *Hardware, os *OperatingSystem) bool {
	if app == nil || hw == nil || os == nil {
		return false
	}
	if app.Arch != hw.Arch {
		return false
	}
	if app.AddressWidth == 64 && os.AddressWidth == 32 {
		return false
	}
	if app.Kernel && !os.Kernel {
		return false
	}
	return true
}

// FlawCompatibleWithTarget reports whether flaw may be paired with
// hw+os+app.
func FlawCompatibleWithTarget(flaw *Flaw, hw *Hardware, os *OperatingSystem, app *Application) bool {
	if flaw == nil || hw == nil || os == nil || app == nil {
		return false
	}
	wantsKernel := strings.Contains(flaw.Name, "kernel")
	if wantsKernel != app.Kernel {
		return false
	}
	if flaw.Local && app.Kernel {
		// local kernel flaws still require a kernel-capable OS; no
		// additional hardware constraint beyond OS/hw compatibility.
		return os.Kernel
	}
	return true
}
