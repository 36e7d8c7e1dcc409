package permutator

import (
	"github.com/rs/zerolog"

	"github.com/xsimrunner/xsim/pkg/profile"
	"github.com/xsimrunner/xsim/pkg/simulation"
	"github.com/xsimrunner/xsim/pkg/statemachine"
	"github.com/xsimrunner/xsim/pkg/target"
)

// Permutator walks every point in a Scenario's cartesian product,
// recalibrates a fresh Target per point, runs the Simulator, and hands
// the result to a Reporter (§4.4). Points whose field assignment or
// recalibration is incompatible are skipped and counted, never fatal.
type Permutator struct {
	Store     *profile.Store
	Simulator *statemachine.Simulator
	Mode      simulation.Mode
	Filter    *Filter
	Log       zerolog.Logger
}

// New builds a Permutator over store using the default exploration
// options and mode.
func New(store *profile.Store, log zerolog.Logger) *Permutator {
	return &Permutator{
		Store:     store,
		Simulator: statemachine.NewSimulator(statemachine.DefaultOptions()),
		Mode:      simulation.ModeNormal,
		Log:       log,
	}
}

// Stats summarizes one full Run across every point in the scenario.
type Stats struct {
	TotalPoints     int
	SkippedPoints   int
	SimulatedPoints int
	ReportedPoints  int
}

// Run enumerates every point of scenario in index order, `[0,
// 2^TotalBits)`, applying each descriptor's slice of the point index
// in the order the descriptors were declared (§4.4, §9: "cartesian
// product computed by packing per-field indices into one integer via
// ceil(log2(n))-bit slices").
func (p *Permutator) Run(scenario *Scenario, reporter Reporter) Stats {
	total := 1 << uint(scenario.TotalBits())
	stats := Stats{TotalPoints: total}

	for index := 0; index < total; index++ {
		result, ok := p.simulateOne(scenario, index)
		if !ok {
			stats.SkippedPoints++
			continue
		}
		stats.SimulatedPoints++

		if p.Filter != nil && !p.Filter.Matches(result) {
			continue
		}
		if reporter != nil {
			if err := reporter.ReportPoint(result); err != nil {
				p.Log.Error().Err(err).Int("index", index).Msg("report point failed")
				continue
			}
		}
		stats.ReportedPoints++
	}

	return stats
}

// simulateOne decodes index into one field assignment, builds and
// recalibrates a Target, and runs the Simulator over it. ok is false
// when the point's fields (or the recalibrated tuple) are
// incompatible, in which case result is the zero value.
func (p *Permutator) simulateOne(scenario *Scenario, index int) (result PointResult, ok bool) {
	tgt := target.New(p.Store)

	shift := 0
	for _, d := range scenario.Descriptors {
		fieldIndex := (index >> uint(shift)) & ((1 << uint(d.Bits)) - 1)
		shift += d.Bits

		if err := d.Set(tgt, fieldIndex); err != nil {
			if target.IsIncompatibleTarget(err) {
				return PointResult{}, false
			}
			p.Log.Warn().Err(err).Str("field", d.Name).Msg("bit descriptor set failed")
			return PointResult{}, false
		}
	}

	for _, d := range scenario.Descriptors {
		if d.Verify == nil {
			continue
		}
		if err := d.Verify(tgt); err != nil {
			if target.IsIncompatibleTarget(err) {
				return PointResult{}, false
			}
			p.Log.Warn().Err(err).Str("field", d.Name).Msg("bit descriptor verify failed")
			return PointResult{}, false
		}
	}

	if err := tgt.Recalibrate(); err != nil {
		if target.IsIncompatibleTarget(err) {
			return PointResult{}, false
		}
		p.Log.Warn().Err(err).Msg("recalibration failed")
		return PointResult{}, false
	}

	global := simulation.NewGlobalSimulationContext()
	p.Simulator.Run(tgt, p.Mode, global)

	fields := make(map[string]string, len(scenario.Descriptors))
	for _, d := range scenario.Descriptors {
		fields[d.Name] = d.Get(tgt)
	}

	return PointResult{
		Index:   index,
		Fields:  fields,
		Summary: global.Summary(),
		Records: global.Records(),
	}, true
}
