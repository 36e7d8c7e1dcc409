// Package profile holds the immutable base profiles (hardware, OS,
// application, flaw, capabilities) that describe one dimension of a
// simulated environment, plus the registry of recalibration callbacks
// and compatibility predicates that bind them together.
package profile

// TriState models an optional boolean: a policy that can be left unset
// so a later recalibration stage can fill it in from a parent profile.
type TriState int

const (
	Unset TriState = iota
	True
	False
)

// Bool returns the tri-state as a plain bool, with def used when unset.
func (t TriState) Bool(def bool) bool {
	switch t {
	case True:
		return true
	case False:
		return false
	default:
		return def
	}
}

// IsSet reports whether the tri-state carries an explicit value.
func (t TriState) IsSet() bool { return t != Unset }

// ArchFamily enumerates the hardware architecture families the engine
// reasons about.
type ArchFamily int

const (
	ArchX86 ArchFamily = iota
	ArchX64
	ArchARM
)

func (a ArchFamily) String() string {
	switch a {
	case ArchX86:
		return "x86"
	case ArchX64:
		return "x64"
	case ArchARM:
		return "arm"
	default:
		return "unknown"
	}
}

// Region enumerates the memory regions ASLR/NX policy is tracked per.
type Region int

const (
	RegionImage Region = iota
	RegionStack
	RegionHeap
	RegionPEB
	RegionData
	RegionCode
)

func (r Region) String() string {
	switch r {
	case RegionImage:
		return "image"
	case RegionStack:
		return "stack"
	case RegionHeap:
		return "heap"
	case RegionPEB:
		return "peb"
	case RegionData:
		return "data"
	case RegionCode:
		return "code"
	default:
		return "unknown"
	}
}

// CorruptionRegion enumerates where a flaw's memory corruption lands.
type CorruptionRegion int

const (
	CorruptionRegionStack CorruptionRegion = iota
	CorruptionRegionHeap
	CorruptionRegionDataSeg
	CorruptionRegionAny
	CorruptionRegionNone
)

// Displacement and Direction describe how a corrupting write reaches
// its target relative to the flaw's trigger point.
type Displacement int

const (
	DisplacementRelative Displacement = iota
	DisplacementAbsolute
)

type Direction int

const (
	DirectionForward Direction = iota
	DirectionReverse
)

// RootCause enumerates the flaw taxonomy from spec.md §3.
type RootCause int

const (
	RootCauseFormatString RootCause = iota
	RootCauseNullDeref
	RootCauseTypeConfusion
	RootCauseUninitializedUse
	RootCauseDoubleFree
	RootCauseArbitraryFree
	RootCauseMemoryCorruption
)

func (r RootCause) String() string {
	switch r {
	case RootCauseFormatString:
		return "format-string"
	case RootCauseNullDeref:
		return "null-deref"
	case RootCauseTypeConfusion:
		return "type-confusion"
	case RootCauseUninitializedUse:
		return "uninitialized-use"
	case RootCauseDoubleFree:
		return "double-free"
	case RootCauseArbitraryFree:
		return "arbitrary-free"
	case RootCauseMemoryCorruption:
		return "memory-corruption"
	default:
		return "unknown"
	}
}

// MemoryAccess is a bitmask of the access classes a flaw grants.
type MemoryAccess uint8

const (
	AccessRead MemoryAccess = 1 << iota
	AccessWrite
	AccessExecute
	AccessControlTransfer
)

func (m MemoryAccess) Has(a MemoryAccess) bool { return m&a != 0 }

// HeapFrontend enumerates the user-mode heap allocator front ends the
// engine models.
type HeapFrontend int

const (
	HeapFrontendNone HeapFrontend = iota
	HeapFrontendLookaside
	HeapFrontendLFH
	HeapFrontendSegmentHeap
)

// StackProtection describes /GS-style cookie protection on a function
// or application default.
type StackProtection struct {
	Enabled TriState
	Version int // 0 = unset
	Entropy int // 0 = unset; bits of cookie entropy
}

// VTableGuard describes C++ object vtable-guard protection.
type VTableGuard struct {
	Enabled TriState
	Level   int
}

// ASLRPolicy bundles a region's ASLR opt-in state with its entropy.
type ASLRPolicy struct {
	Enabled      TriState
	EntropyBits  int
	AutoRestart  bool // restart on crash resets the address (no brute force)
}
