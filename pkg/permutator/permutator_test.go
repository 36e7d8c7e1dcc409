package permutator

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xsimrunner/xsim/pkg/profile"
)

type recordingReporter struct {
	points []PointResult
}

func (r *recordingReporter) ReportPoint(p PointResult) error {
	r.points = append(r.points, p)
	return nil
}

// TestPermutationCountIsDeterministic covers §8 scenario 5: running
// the same scenario twice must enumerate the identical total point
// count, independent of map iteration order anywhere downstream.
func TestPermutationCountIsDeterministic(t *testing.T) {
	store := profile.NewStore()
	scenario := DefaultScenario(store)

	p := New(store, zerolog.Nop())
	reporter := &recordingReporter{}
	first := p.Run(scenario, reporter)

	p2 := New(store, zerolog.Nop())
	reporter2 := &recordingReporter{}
	second := p2.Run(scenario, reporter2)

	assert.Equal(t, first.TotalPoints, second.TotalPoints)
	assert.Equal(t, first.SimulatedPoints, second.SimulatedPoints)
	assert.Equal(t, first.SkippedPoints, second.SkippedPoints)
	assert.Equal(t, 1<<uint(scenario.TotalBits()), first.TotalPoints)
}

func TestIncompatiblePointsAreSkippedNotFatal(t *testing.T) {
	store := profile.NewStore()
	scenario := DefaultScenario(store)

	p := New(store, zerolog.Nop())
	reporter := &recordingReporter{}
	stats := p.Run(scenario, reporter)

	require.Equal(t, stats.TotalPoints, stats.SimulatedPoints+stats.SkippedPoints)
	assert.Positive(t, stats.SimulatedPoints)
}

func TestFilterGatesReportingWithoutChangingSimulation(t *testing.T) {
	store := profile.NewStore()
	scenario := DefaultScenario(store)

	filter, err := NewFilter("max_fitness > 1")
	require.NoError(t, err)

	p := New(store, zerolog.Nop())
	p.Filter = filter
	reporter := &recordingReporter{}
	stats := p.Run(scenario, reporter)

	assert.LessOrEqual(t, stats.ReportedPoints, stats.SimulatedPoints)
}
