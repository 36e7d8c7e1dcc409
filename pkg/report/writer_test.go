package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xsimrunner/xsim/pkg/permutator"
	"github.com/xsimrunner/xsim/pkg/simulation"
)

func TestHeaderOrderIsFixedAndStable(t *testing.T) {
	dir := t.TempDir()
	fields := []string{"hw_base_profile", "os_base_profile"}
	states := []string{"control_of_code_execution", "flaw_triggered"}
	events := []string{"corrupt_return_address", "trigger_flaw"}

	w, err := NewWriter(dir, "default", fields, states, events)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	f, err := os.Open(filepath.Join(dir, "simulations.csv"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	expected := append([]string{}, metricColumns...)
	expected = append(expected, fields...)
	expected = append(expected, states...)
	expected = append(expected, events...)
	assert.Equal(t, expected, rows[0])
}

func TestReportPointWritesTextFileAndCSVRows(t *testing.T) {
	dir := t.TempDir()
	fields := []string{"hw_base_profile"}
	states := []string{"flaw_triggered", "control_of_return_address"}
	events := []string{"corrupt_return_address"}

	w, err := NewWriter(dir, "default", fields, states, events)
	require.NoError(t, err)

	result := permutator.PointResult{
		Index:  0,
		Fields: map[string]string{"hw_base_profile": "x64_generic"},
		Summary: simulation.Summary{
			TotalBranches: 2, EquivalenceClasses: 1,
			MaxFitness: 0.5, AvgFitness: 0.25,
		},
		Records: []simulation.Record{
			{
				Transitions: []string{"flaw_triggered/corrupt_return_address/control_of_return_address"},
				Fitness:     0.5, Exploitability: 0.5, Desirability: 1, Likelihood: 1,
			},
			{Aborted: true, AbortReason: "can_bypass_stack_protection"},
		},
	}

	require.NoError(t, w.ReportPoint(result))
	require.NoError(t, w.Close())

	textPath := filepath.Join(dir, "default-0.txt")
	_, err = os.Stat(textPath)
	assert.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, "simulations.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + 2 records

	assert.Equal(t, "false", rows[1][7]) // aborted column
	assert.Equal(t, "true", rows[2][7])

	for _, m := range summaryMetrics {
		_, err := os.Stat(filepath.Join(dir, "tab_metric_"+m+".csv"))
		assert.NoError(t, err)
	}
	_, err = os.Stat(filepath.Join(dir, "tab_scenario.csv"))
	assert.NoError(t, err)
}
