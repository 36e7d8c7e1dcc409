package statemachine

import (
	"math"

	"github.com/xsimrunner/xsim/pkg/profile"
	"github.com/xsimrunner/xsim/pkg/target"
)

// aslrInhibitionDegree is the ASLR probability helper (§4.3): the
// fraction of the address space an attacker cannot account for,
// unless the region is brute-forceable or the flaw is local, in which
// case ASLR contributes no inhibition at all.
func aslrInhibitionDegree(tgt *target.Target, region profile.Region) float64 {
	if tgt.Derivable.Flaw != nil && tgt.Derivable.Flaw.Local {
		return 0
	}
	pol, ok := tgt.Derivable.OS.ASLR[region]
	if !ok || !pol.Enabled.Bool(false) {
		return 0
	}
	entropy := pol.EntropyBits
	if entropy <= 8 && !pol.AutoRestart {
		return 0
	}
	return 1 - math.Pow(2, -float64(entropy))
}

// regionCapability resolves the Capabilities-bag field backing a
// region's explicit discoverability, distinct from the probabilistic
// ASLR-inhibition fallback.
func regionCapability(cap *profile.Capabilities, region profile.Region) (profile.TriState, bool) {
	if cap == nil {
		return profile.Unset, false
	}
	switch region {
	case profile.RegionStack:
		return cap.CanDiscoverStackAddress, true
	case profile.RegionHeap:
		return cap.CanDiscoverHeapAddress, true
	case profile.RegionPEB:
		return cap.CanDiscoverPEBAddress, true
	case profile.RegionImage:
		return cap.CanDiscoverImageAddress, true
	default:
		return profile.Unset, false
	}
}

// canFindAddress is the `can_find_address(va)` helper (§4.3): 1.0 when
// an explicit attacker capability already asserts discovery or the
// region is brute-forceable, else `1 - aslrInhibitionDegree(region)`.
// The `data` region aliases whichever of heap/stack/peb is most
// discoverable, matching "some regions alias" in the spec.
func canFindAddress(tgt *target.Target, region profile.Region) float64 {
	if region == profile.RegionData {
		best := 0.0
		for _, r := range []profile.Region{profile.RegionHeap, profile.RegionStack, profile.RegionPEB} {
			if v := canFindAddress(tgt, r); v > best {
				best = v
			}
		}
		return best
	}
	if pol, ok := regionCapability(tgt.Derivable.Capabilities, region); ok && pol.IsSet() {
		if pol.Bool(false) {
			return 1.0
		}
	}
	return 1 - aslrInhibitionDegree(tgt, region)
}

// canFindNtdllAddress resolves the ntdll-specific capability bit
// before falling back to image-region discoverability.
func canFindNtdllAddress(tgt *target.Target) float64 {
	cap := tgt.Derivable.Capabilities
	if cap != nil && cap.CanDiscoverNtdllAddress.IsSet() {
		if cap.CanDiscoverNtdllAddress.Bool(false) {
			return 1.0
		}
	}
	return canFindAddress(tgt, profile.RegionImage)
}

// canBypassStackProtection implements §4.3's `can_bypass_stack_protection`:
// 1/2^entropy when protection is enabled and the corruption is
// adjacent; 1.0 in every other case (non-adjacent corruption, an
// outright cookie leak asserted by the flaw, or protection disabled).
// Cookie entropy (DefaultStackProtection.Entropy, a guessing-resistance
// figure) is a distinct quantity from a region's ASLR entropy bits, so
// this deliberately does not fall back to canFindAddress.
func canBypassStackProtection(tgt *target.Target) float64 {
	flaw := tgt.Derivable.Flaw
	sp := flaw.StackProtection
	if !sp.Enabled.Bool(false) {
		return 1.0
	}
	if !flaw.PositionAdjacent {
		return 1.0
	}
	if flaw.Assert("can_leak_stack_cookie") {
		return 1.0
	}
	entropy := sp.Entropy
	if entropy <= 0 {
		entropy = 32
	}
	return 1.0 / math.Pow(2, float64(entropy))
}

// canBypassSehop is the corrected form of §9's flagged
// `can_bypass_sehop` operator-precedence bug: the original evaluated
// `can_find_address 'image:ntdll' == false`, which (given the source
// language's precedence) compares the string literal to false rather
// than negating the call. The reimplementation computes the intended
// conjunction directly.
func canBypassSehop(tgt *target.Target) float64 {
	return canFindNtdllAddress(tgt) * canFindAddress(tgt, profile.RegionStack)
}

// userNxEnabled implements `user_nx_enabled`: the AND of application,
// OS, and hardware NX state, short-circuiting on any explicit off
// (§4.3; recalibration has already propagated an off hardware
// setting down into the application field, so this mostly re-derives
// what recalibrate already forced, but is evaluated independently so
// a caller never needs to trust recalibration having run).
func userNxEnabled(tgt *target.Target) bool {
	hw, os, app := tgt.Derivable.Hardware, tgt.Derivable.OS, tgt.Derivable.Application
	if !hw.NXEnabled.Bool(true) {
		return false
	}
	if pol, ok := os.NXPolicy[profile.RegionData]; ok && !pol.Bool(true) {
		return false
	}
	if !app.NXPolicy.Bool(true) {
		return false
	}
	return true
}

// isLocalKernelFlaw implements scenario 2's `is_local_kernel_flaw`
// guard on `map_null_page`.
func isLocalKernelFlaw(tgt *target.Target) bool {
	flaw, app := tgt.Derivable.Flaw, tgt.Derivable.Application
	return flaw.RootCause == profile.RootCauseNullDeref && app.Kernel
}

// canMapNullPage implements scenario 2's `can_map_null_page`: blocked
// outright once the OS's kernel null-dereference prevention mitigation
// is enabled.
func canMapNullPage(tgt *target.Target) float64 {
	if tgt.Derivable.OS.KernelNullDerefPrevention.Bool(false) {
		return 0
	}
	return 1
}
