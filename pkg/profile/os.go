package profile

// OperatingSystem describes one Windows version/service-pack
// combination and the mitigation policies it ships with.
type OperatingSystem struct {
	Name         string
	Family       string // "windows"
	Version      string // e.g. "7", "8"
	ServicePack  string
	AddressWidth int
	Arch         ArchFamily // compatible hardware family (§3 invariant)
	Kernel       bool       // true for server/kernel-mode OS variants used by kernel flaws

	NXPolicy map[Region]TriState // per-region NX policy
	ASLR     map[Region]ASLRPolicy

	KernelSMEPPolicy           TriState
	KernelNullDerefPrevention  TriState
	UserHeapLFHEnabled         TriState
	UserHeapSafeUnlinking      TriState

	DefaultStackProtection StackProtection

	Population float64

	Callbacks []RecalibrateFunc
}

func (o *OperatingSystem) Clone() *OperatingSystem {
	cp := *o
	cp.NXPolicy = cloneRegionTriState(o.NXPolicy)
	cp.ASLR = cloneRegionASLR(o.ASLR)
	cp.Callbacks = append([]RecalibrateFunc(nil), o.Callbacks...)
	return &cp
}

func cloneRegionTriState(m map[Region]TriState) map[Region]TriState {
	cp := make(map[Region]TriState, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

func cloneRegionASLR(m map[Region]ASLRPolicy) map[Region]ASLRPolicy {
	cp := make(map[Region]ASLRPolicy, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// composeStages concatenates a base stage list with additional stages,
// the Design Note 1 replacement for "Windows-8 inherits Windows-7's
// callbacks which inherit Vista's": each version's stage list is the
// previous version's stage list plus its own additions, applied in
// that order.
func composeStages(base []RecalibrateFunc, extra ...RecalibrateFunc) []RecalibrateFunc {
	out := make([]RecalibrateFunc, 0, len(base)+len(extra))
	out = append(out, base...)
	out = append(out, extra...)
	return out
}

// recalibrateOSNXForcing forces every OS per-region NX policy to off
// when the hardware's NX is off or unsupported (§4.2). The OS itself
// has no OS-wide NX setting, so nothing at the OS level triggers it.
func recalibrateOSNXForcing(d *Derivable) {
	if d.OS == nil {
		return
	}
	if d.Hardware != nil && !d.Hardware.NXEnabled.Bool(true) {
		for r := range d.OS.NXPolicy {
			d.OS.NXPolicy[r] = False
		}
		return
	}
}

// recalibrateXPStackEntropy sets the XP/2003-era cookie entropy default.
func recalibrateXPStackEntropy(d *Derivable) {
	if d.OS == nil {
		return
	}
	if d.OS.DefaultStackProtection.Entropy == 0 {
		d.OS.DefaultStackProtection.Entropy = 16
	}
}

// recalibrateVistaPlusStackEntropy sets the Vista+ cookie entropy
// defaults: 32 bits for 32-bit processes, 48 for 64-bit (§4.2).
func recalibrateVistaPlusStackEntropy(d *Derivable) {
	if d.OS == nil {
		return
	}
	if d.OS.AddressWidth == 64 {
		d.OS.DefaultStackProtection.Entropy = 48
	} else {
		d.OS.DefaultStackProtection.Entropy = 32
	}
}

// recalibrateVistaPlusHeap enables the low-fragmentation heap frontend
// and free-list safe unlinking introduced in Vista.
func recalibrateVistaPlusHeap(d *Derivable) {
	if d.OS == nil {
		return
	}
	d.OS.UserHeapLFHEnabled = True
	d.OS.UserHeapSafeUnlinking = True
}

// recalibrateWin8ArmForceMitigations implements the ARM Windows-8
// special case: all user mitigations are forced on except
// force-relocation and SEHOP (§4.2). It only touches the OS-level
// per-region ASLR and NX defaults here; the application-level opt-ins are forced in
// application.go's Win8 stage, since force-relocation/SEHOP are
// application-level settings.
func recalibrateWin8ArmForceMitigations(d *Derivable) {
	if d.OS == nil || d.Hardware == nil {
		return
	}
	if d.Hardware.Arch != ArchARM {
		return
	}
	for r := range d.OS.ASLR {
		pol := d.OS.ASLR[r]
		pol.Enabled = True
		d.OS.ASLR[r] = pol
	}
	for r := range d.OS.NXPolicy {
		d.OS.NXPolicy[r] = True
	}
}

func builtinOS() map[string]*OperatingSystem {
	xpStages := []RecalibrateFunc{recalibrateOSNXForcing, recalibrateXPStackEntropy}
	vistaStages := composeStages(xpStages, recalibrateVistaPlusStackEntropy, recalibrateVistaPlusHeap)
	win7Stages := composeStages(vistaStages)
	win8Stages := composeStages(win7Stages, recalibrateWin8ArmForceMitigations)

	noASLR := func(width int) map[Region]ASLRPolicy {
		return map[Region]ASLRPolicy{
			RegionImage: {Enabled: False},
			RegionStack: {Enabled: False},
			RegionHeap:  {Enabled: False},
			RegionPEB:   {Enabled: False},
		}
	}
	aslrOn := func(bits int) map[Region]ASLRPolicy {
		return map[Region]ASLRPolicy{
			RegionImage: {Enabled: True, EntropyBits: bits},
			RegionStack: {Enabled: True, EntropyBits: bits},
			RegionHeap:  {Enabled: True, EntropyBits: bits},
			RegionPEB:   {Enabled: True, EntropyBits: 4},
		}
	}
	nxOn := func() map[Region]TriState {
		return map[Region]TriState{RegionImage: True, RegionStack: True, RegionHeap: True, RegionData: True}
	}

	m := map[string]*OperatingSystem{
		"winxp_sp2": {
			Name: "winxp_sp2", Family: "windows", Version: "xp", ServicePack: "sp2",
			AddressWidth: 32, Arch: ArchX86,
			NXPolicy: nxOn(), ASLR: noASLR(32),
			KernelSMEPPolicy: Unset, KernelNullDerefPrevention: False,
			UserHeapLFHEnabled: False, UserHeapSafeUnlinking: False,
			Population: 0.05,
			Callbacks:  xpStages,
		},
		"win7_rtm_x64": {
			Name: "win7_rtm_x64", Family: "windows", Version: "7", ServicePack: "rtm",
			AddressWidth: 64, Arch: ArchX64,
			NXPolicy: nxOn(), ASLR: aslrOn(8),
			KernelSMEPPolicy: False, KernelNullDerefPrevention: False,
			UserHeapLFHEnabled: True, UserHeapSafeUnlinking: True,
			Population: 0.2,
			Callbacks:  win7Stages,
		},
		"win8_client_x64": {
			Name: "win8_client_x64", Family: "windows", Version: "8", ServicePack: "rtm",
			AddressWidth: 64, Arch: ArchX64,
			NXPolicy: nxOn(), ASLR: aslrOn(24),
			KernelSMEPPolicy: True, KernelNullDerefPrevention: True,
			UserHeapLFHEnabled: True, UserHeapSafeUnlinking: True,
			Population: 0.25,
			Callbacks:  win8Stages,
		},
		"win8_server_x64": {
			Name: "win8_server_x64", Family: "windows", Version: "8", ServicePack: "rtm",
			AddressWidth: 64, Arch: ArchX64, Kernel: true,
			NXPolicy: nxOn(), ASLR: aslrOn(24),
			KernelSMEPPolicy: True, KernelNullDerefPrevention: True,
			UserHeapLFHEnabled: True, UserHeapSafeUnlinking: True,
			Population: 0.1,
			Callbacks:  win8Stages,
		},
		"win8_arm": {
			Name: "win8_arm", Family: "windows", Version: "8", ServicePack: "rtm",
			AddressWidth: 32, Arch: ArchARM,
			NXPolicy: nxOn(), ASLR: aslrOn(16),
			KernelSMEPPolicy: Unset, KernelNullDerefPrevention: True,
			UserHeapLFHEnabled: True, UserHeapSafeUnlinking: True,
			Population: 0.05,
			Callbacks:  win8Stages,
		},
	}
	return m
}
