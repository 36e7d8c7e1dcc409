// Package target holds the mutable (hardware, OS, application, flaw,
// capabilities) aggregate under analysis and the recalibration pass
// that keeps it coherent (spec.md §4.2).
package target

import "github.com/xsimrunner/xsim/pkg/profile"

// Target is one coherent tuple under analysis.
type Target struct {
	Derivable profile.Derivable

	store *profile.Store

	// explicitAssumptions holds assume_true/assume_false calls made
	// directly on the Target before simulation starts. Explicit
	// assumptions dominate later implicit ones derived by guards
	// during exploration (§4.2).
	explicitAssumptions map[string]bool
}

// New creates an empty Target bound to store. Names must be assigned
// with Set* before Recalibrate is meaningful.
func New(store *profile.Store) *Target {
	return &Target{
		store:               store,
		explicitAssumptions: make(map[string]bool),
	}
}

// Clone returns a deep copy of t, including its explicit-assumption
// table, independent of the original.
func (t *Target) Clone() *Target {
	cp := &Target{store: t.store}
	if t.Derivable.Hardware != nil {
		cp.Derivable.Hardware = t.Derivable.Hardware.Clone()
	}
	if t.Derivable.OS != nil {
		cp.Derivable.OS = t.Derivable.OS.Clone()
	}
	if t.Derivable.Application != nil {
		cp.Derivable.Application = t.Derivable.Application.Clone()
	}
	if t.Derivable.Flaw != nil {
		cp.Derivable.Flaw = t.Derivable.Flaw.Clone()
	}
	if t.Derivable.Capabilities != nil {
		cp.Derivable.Capabilities = t.Derivable.Capabilities.Clone()
	}
	cp.explicitAssumptions = make(map[string]bool, len(t.explicitAssumptions))
	for k, v := range t.explicitAssumptions {
		cp.explicitAssumptions[k] = v
	}
	return cp
}

// SetHardware clones name from the store and assigns it.
func (t *Target) SetHardware(name string) error {
	h, ok := t.store.Hardware(name)
	if !ok {
		return NewIncompatibleTarget("unknown hardware profile: " + name)
	}
	t.Derivable.Hardware = h
	return nil
}

// SetOS clones name from the store, checks it is compatible with the
// currently-assigned hardware, and assigns it.
func (t *Target) SetOS(name string) error {
	o, ok := t.store.OS(name)
	if !ok {
		return NewIncompatibleTarget("unknown OS profile: " + name)
	}
	if t.Derivable.Hardware != nil && !profile.OSCompatibleWithHardware(o, t.Derivable.Hardware) {
		return NewIncompatibleTarget("OS " + name + " incompatible with hardware " + t.Derivable.Hardware.Name)
	}
	t.Derivable.OS = o
	return nil
}

// SetApplication clones name from the store, checks compatibility with
// the current hardware+OS, and assigns it.
func (t *Target) SetApplication(name string) error {
	a, ok := t.store.Application(name)
	if !ok {
		return NewIncompatibleTarget("unknown application profile: " + name)
	}
	if t.Derivable.Hardware != nil && t.Derivable.OS != nil &&
		!profile.ApplicationCompatibleWithTarget(a, t.Derivable.Hardware, t.Derivable.OS) {
		return NewIncompatibleTarget("application " + name + " incompatible with target")
	}
	t.Derivable.Application = a
	return nil
}

// SetFlaw clones name from the store, checks compatibility with the
// current hardware+OS+application, and assigns it.
func (t *Target) SetFlaw(name string) error {
	f, ok := t.store.Flaw(name)
	if !ok {
		return NewIncompatibleTarget("unknown flaw profile: " + name)
	}
	if t.Derivable.Hardware != nil && t.Derivable.OS != nil && t.Derivable.Application != nil &&
		!profile.FlawCompatibleWithTarget(f, t.Derivable.Hardware, t.Derivable.OS, t.Derivable.Application) {
		return NewIncompatibleTarget("flaw " + name + " incompatible with target")
	}
	t.Derivable.Flaw = f
	return nil
}

// SetCapabilities clones name from the store and assigns it.
func (t *Target) SetCapabilities(name string) error {
	c, ok := t.store.Capabilities(name)
	if !ok {
		return NewIncompatibleTarget("unknown capabilities profile: " + name)
	}
	t.Derivable.Capabilities = c
	return nil
}

// AssumeTrue records an explicit initial assumption that name holds.
func (t *Target) AssumeTrue(name string) {
	t.explicitAssumptions[name] = true
}

// AssumeFalse records an explicit initial assumption that name does
// not hold.
func (t *Target) AssumeFalse(name string) {
	t.explicitAssumptions[name] = false
}

// ExplicitAssumption looks up an explicit assume_true/assume_false
// call, returning ok=false if name was never explicitly assumed.
func (t *Target) ExplicitAssumption(name string) (value bool, ok bool) {
	v, ok := t.explicitAssumptions[name]
	return v, ok
}

// Population is the relative population weight of this tuple's
// hardware/OS/application combination, the product of each
// dimension's independent population weight (spec.md §7: "population
// = hw.population x os.population x app.population"). Zero until all
// three dimensions are assigned.
func (t *Target) Population() float64 {
	if t.Derivable.Hardware == nil || t.Derivable.OS == nil || t.Derivable.Application == nil {
		return 0
	}
	return t.Derivable.Hardware.Population * t.Derivable.OS.Population * t.Derivable.Application.Population
}

// Store returns the ProfileStore this Target was built from, so
// derived components (the Simulator's predicate helpers, the
// Permutator) can resolve further names without threading the store
// through every call.
func (t *Target) Store() *profile.Store { return t.store }
