package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestExporterObserveSetsGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := &Exporter{
		log: zerolog.Nop(),
		totalBranches: prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "t"}, []string{"scenario"}),
		abortedBranches: prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "a"}, []string{"scenario"}),
		classes: prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "c"}, []string{"scenario"}),
		avgFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "f"}, []string{"scenario"}),
		maxFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "mf"}, []string{"scenario"}),
		avgExploit: prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "e"}, []string{"scenario"}),
	}
	reg.MustRegister(e.totalBranches, e.abortedBranches, e.classes, e.avgFitness, e.maxFitness, e.avgExploit)

	e.Observe("default", Summary{TotalBranches: 10, AbortedBranches: 3, EquivalenceClasses: 2, AvgFitness: 0.5, MaxFitness: 0.9, AvgExploitability: 0.4})

	assert.Equal(t, float64(10), testutil.ToFloat64(e.totalBranches.WithLabelValues("default")))
	assert.Equal(t, float64(3), testutil.ToFloat64(e.abortedBranches.WithLabelValues("default")))
	assert.Equal(t, float64(2), testutil.ToFloat64(e.classes.WithLabelValues("default")))
}
