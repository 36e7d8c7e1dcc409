package profile

// Capabilities is the named attacker-discoverability bag (§3):
// which addresses the attacker can discover or brute-force, and which
// memory-shaping primitives (spraying, heap massaging, non-ASLR image
// loading) are available to them. It is a profile dimension of its own,
// paired onto a Target like hardware/OS/application/flaw.
type Capabilities struct {
	Name string

	CanDiscoverStackAddress TriState
	CanDiscoverHeapAddress  TriState
	CanDiscoverImageAddress TriState
	CanDiscoverPEBAddress   TriState
	CanDiscoverNtdllAddress TriState

	CanSprayDataBottomUp TriState
	CanSprayCodeBottomUp TriState
	CanMassageHeap       TriState

	CanLoadNonASLRImage          TriState
	CanLoadNonASLRNonSafeSEHImage TriState

	Callbacks []RecalibrateFunc
}

func (c *Capabilities) Clone() *Capabilities {
	cp := *c
	cp.Callbacks = append([]RecalibrateFunc(nil), c.Callbacks...)
	return &cp
}

// recalibrateIE10NoBottomUpSpray is the IE10-64/Windows-8 recalibration
// named in §8 scenario 4: bottom-up data/code spray is forced off for
// this application, regardless of the capability bundle paired onto
// the target.
func recalibrateIE10NoBottomUpSpray(d *Derivable) {
	if d.Application == nil || d.Capabilities == nil {
		return
	}
	if d.Application.Name != "ie10_x64" {
		return
	}
	d.Capabilities.CanSprayDataBottomUp = False
	d.Capabilities.CanSprayCodeBottomUp = False
}

// recalibrateNonASLRImageImpliesImageDiscovery implements the
// round-trip law in §8: attacker_can_load_non_aslr_image=true implies
// can_discover_image_address=true after recalibrate.
func recalibrateNonASLRImageImpliesImageDiscovery(d *Derivable) {
	if d.Capabilities == nil {
		return
	}
	if d.Capabilities.CanLoadNonASLRImage == True {
		d.Capabilities.CanDiscoverImageAddress = True
	}
}

func builtinCapabilities() map[string]*Capabilities {
	m := map[string]*Capabilities{
		"default_attacker": {
			Name: "default_attacker",
			CanDiscoverStackAddress: Unset,
			CanDiscoverHeapAddress:  Unset,
			CanDiscoverImageAddress: Unset,
			CanDiscoverPEBAddress:   Unset,
			CanDiscoverNtdllAddress: Unset,
			CanSprayDataBottomUp:    True,
			CanSprayCodeBottomUp:    True,
			CanMassageHeap:          True,
			CanLoadNonASLRImage:          False,
			CanLoadNonASLRNonSafeSEHImage: False,
		},
		"remote_web_attacker": {
			Name: "remote_web_attacker",
			CanDiscoverStackAddress: False,
			CanDiscoverHeapAddress:  Unset,
			CanDiscoverImageAddress: Unset,
			CanDiscoverPEBAddress:   False,
			CanDiscoverNtdllAddress: False,
			CanSprayDataBottomUp:    True,
			CanSprayCodeBottomUp:    True,
			CanMassageHeap:          True,
			CanLoadNonASLRImage:          True,
			CanLoadNonASLRNonSafeSEHImage: False,
		},
		"local_privileged_attacker": {
			Name: "local_privileged_attacker",
			CanDiscoverStackAddress: True,
			CanDiscoverHeapAddress:  True,
			CanDiscoverImageAddress: True,
			CanDiscoverPEBAddress:   True,
			CanDiscoverNtdllAddress: True,
			CanSprayDataBottomUp:    True,
			CanSprayCodeBottomUp:    True,
			CanMassageHeap:          True,
			CanLoadNonASLRImage:          True,
			CanLoadNonASLRNonSafeSEHImage: True,
		},
		"constrained_kernel_attacker": {
			Name: "constrained_kernel_attacker",
			CanDiscoverStackAddress: False,
			CanDiscoverHeapAddress:  False,
			CanDiscoverImageAddress: Unset,
			CanDiscoverPEBAddress:   False,
			CanDiscoverNtdllAddress: Unset,
			CanSprayDataBottomUp:    False,
			CanSprayCodeBottomUp:    False,
			CanMassageHeap:          False,
			CanLoadNonASLRImage:          False,
			CanLoadNonASLRNonSafeSEHImage: False,
		},
	}
	for _, c := range m {
		c.Callbacks = []RecalibrateFunc{recalibrateIE10NoBottomUpSpray, recalibrateNonASLRImageImpliesImageDiscovery}
	}
	return m
}
