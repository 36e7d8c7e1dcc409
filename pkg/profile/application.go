package profile

// Application describes one application (or kernel-mode component)
// that can host a flaw.
type Application struct {
	Name         string
	Kernel       bool
	AddressWidth int
	Arch         ArchFamily

	NXPolicy    TriState
	NXPermanent bool

	SEHOPPolicy TriState

	ForceRelocation TriState
	BottomUpASLR    TriState
	HeapASLR        TriState
	StackASLR       TriState

	HeapFrontend        HeapFrontend
	HeapFrontendVersion int
	HeapTermination     TriState // true = heap corruption triggers fail-fast

	DefaultStackProtection StackProtection
	DefaultVTableGuard     VTableGuard

	Plugins []string

	Population float64

	Callbacks []RecalibrateFunc
}

func (a *Application) Clone() *Application {
	cp := *a
	cp.Plugins = append([]string(nil), a.Plugins...)
	cp.Callbacks = append([]RecalibrateFunc(nil), a.Callbacks...)
	return &cp
}

// recalibrateAppNXPermanent implements "on Windows 64-bit applications,
// NX is forced permanent" (§4.2).
func recalibrateAppNXPermanent(d *Derivable) {
	if d.Application == nil || d.OS == nil {
		return
	}
	if d.OS.Family == "windows" && d.Application.AddressWidth == 64 {
		d.Application.NXPolicy = True
		d.Application.NXPermanent = true
	}
}

// recalibrateAppNXFromHardware implements "if hardware NX is off,
// force user NX off" (§4.2).
func recalibrateAppNXFromHardware(d *Derivable) {
	if d.Application == nil || d.Hardware == nil {
		return
	}
	if !d.Hardware.NXEnabled.Bool(true) {
		d.Application.NXPolicy = False
	}
}

// recalibrateWin8ArmAppMitigations forces every user-mode mitigation on
// for ARM Windows-8 applications except force-relocation and SEHOP
// (§4.2, REDESIGN and testable-property boundary case).
func recalibrateWin8ArmAppMitigations(d *Derivable) {
	if d.Application == nil || d.Hardware == nil {
		return
	}
	if d.Hardware.Arch != ArchARM || d.OS == nil || d.OS.Version != "8" {
		return
	}
	d.Application.BottomUpASLR = True
	d.Application.HeapASLR = True
	d.Application.StackASLR = True
	d.Application.HeapTermination = True
	d.Application.DefaultVTableGuard.Enabled = True
	// Explicitly NOT forced on:
	//   d.Application.ForceRelocation
	//   d.Application.SEHOPPolicy
}

// recalibrateAppStackProtectionInherit implements "application's
// default stack-protection settings inherit from the OS's when unset".
// Where the OS leaves enable or version unset as well, they fall back
// to enabled and version 1.
func recalibrateAppStackProtectionInherit(d *Derivable) {
	if d.Application == nil || d.OS == nil {
		return
	}
	sp := &d.Application.DefaultStackProtection
	if !sp.Enabled.IsSet() {
		sp.Enabled = d.OS.DefaultStackProtection.Enabled
	}
	if !sp.Enabled.IsSet() {
		sp.Enabled = True
	}
	if sp.Version == 0 {
		sp.Version = d.OS.DefaultStackProtection.Version
	}
	if sp.Version == 0 {
		sp.Version = 1
	}
	if sp.Entropy == 0 {
		sp.Entropy = d.OS.DefaultStackProtection.Entropy
	}
}

func builtinApplications() map[string]*Application {
	baseStages := []RecalibrateFunc{
		recalibrateAppNXFromHardware,
		recalibrateAppNXPermanent,
		recalibrateWin8ArmAppMitigations,
		recalibrateAppStackProtectionInherit,
	}

	m := map[string]*Application{
		"ie8_x64": {
			Name: "ie8_x64", AddressWidth: 64, Arch: ArchX64,
			NXPolicy: True, SEHOPPolicy: True,
			ForceRelocation: False, BottomUpASLR: False, HeapASLR: True, StackASLR: True,
			HeapFrontend: HeapFrontendLFH, HeapFrontendVersion: 1,
			HeapTermination: False,
			Population:      0.3,
		},
		"ie10_x64": {
			Name: "ie10_x64", AddressWidth: 64, Arch: ArchX64,
			NXPolicy: True, SEHOPPolicy: True,
			ForceRelocation: True, BottomUpASLR: False, HeapASLR: True, StackASLR: True,
			HeapFrontend: HeapFrontendLFH, HeapFrontendVersion: 2,
			HeapTermination: True,
			Population:      0.25,
		},
		"office11_x86": {
			Name: "office11_x86", AddressWidth: 32, Arch: ArchX86,
			NXPolicy: Unset, SEHOPPolicy: Unset,
			ForceRelocation: False, BottomUpASLR: False, HeapASLR: False, StackASLR: False,
			HeapFrontend: HeapFrontendLookaside, HeapFrontendVersion: 1,
			HeapTermination: False,
			Population:      0.1,
		},
		"generic_kernel_driver_x64": {
			Name: "generic_kernel_driver_x64", Kernel: true, AddressWidth: 64, Arch: ArchX64,
			NXPolicy: True, SEHOPPolicy: Unset,
			ForceRelocation: Unset, BottomUpASLR: Unset, HeapASLR: Unset, StackASLR: Unset,
			HeapFrontend: HeapFrontendNone,
			Population:   0.15,
		},
		"generic_app_x86": {
			Name: "generic_app_x86", AddressWidth: 32, Arch: ArchX86,
			NXPolicy: Unset, SEHOPPolicy: Unset,
			HeapFrontend: HeapFrontendLookaside,
			Population:   0.05,
		},
	}
	// IE10-64 forces bottom-up spray surfaces off (§8 scenario 4).
	// No application field carries that rule: the capability-layer
	// stage in capabilities.go keys off the application's name.
	for _, app := range m {
		app.Callbacks = append([]RecalibrateFunc(nil), baseStages...)
	}
	return m
}
