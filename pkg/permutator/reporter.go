package permutator

import "github.com/xsimrunner/xsim/pkg/simulation"

// PointResult is everything a Reporter needs to render one permutation
// point: the field values that produced it, the accumulated summary
// statistics, and the full branch record list (§4.5).
type PointResult struct {
	// Index is the point's position in the cartesian enumeration,
	// `[0, 2^TotalBits)`.
	Index int

	// Fields holds each descriptor's rendered value for this point,
	// keyed by descriptor name (hw_base_profile, os_base_profile, ...).
	Fields map[string]string

	Summary simulation.Summary
	Records []simulation.Record
}

// Reporter receives one PointResult per simulated permutation point.
// The Permutator never writes output itself; pkg/report's CSV/text
// writer is the default implementation, but any consumer (a test
// double, a JSON sink) can observe a run by implementing this (§4.5).
type Reporter interface {
	ReportPoint(PointResult) error
}
