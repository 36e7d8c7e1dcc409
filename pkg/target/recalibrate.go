package target

import "github.com/xsimrunner/xsim/pkg/profile"

// Recalibrate runs every component's registered adjustment callback
// chain in order hw -> os -> app -> flaw -> capabilities (§4.2), then
// re-checks the pairwise compatibility invariants; an incoherent tuple
// fails with IncompatibleTarget rather than being silently accepted.
//
// Recalibration is idempotent on an already-coherent target: every
// stage only ever fills in unset fields or forces a field to a value
// implied by an already-settled input, so re-running the whole chain
// on its own output is a no-op (§8).
//
// A target with no capability set gets the store's "default_attacker"
// bundle before the chain runs, so the guards that read capabilities
// always have one.
func (t *Target) Recalibrate() error {
	if t.Derivable.Hardware == nil || t.Derivable.OS == nil ||
		t.Derivable.Application == nil || t.Derivable.Flaw == nil {
		return NewIncompatibleTarget("target is missing a required profile dimension")
	}
	if t.Derivable.Capabilities == nil && t.store != nil {
		if c, ok := t.store.Capabilities("default_attacker"); ok {
			t.Derivable.Capabilities = c
		}
	}

	profile.Recalibrate(&t.Derivable)

	if !profile.OSCompatibleWithHardware(t.Derivable.OS, t.Derivable.Hardware) {
		return NewIncompatibleTarget("OS/hardware incompatible after recalibration")
	}
	if !profile.ApplicationCompatibleWithTarget(t.Derivable.Application, t.Derivable.Hardware, t.Derivable.OS) {
		return NewIncompatibleTarget("application/target incompatible after recalibration")
	}
	if !profile.FlawCompatibleWithTarget(t.Derivable.Flaw, t.Derivable.Hardware, t.Derivable.OS, t.Derivable.Application) {
		return NewIncompatibleTarget("flaw/target incompatible after recalibration")
	}
	return nil
}
