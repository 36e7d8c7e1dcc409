package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const metricPrefix = "xsim_"

// Exporter publishes one permutation point's summary statistics as
// Prometheus gauges, labeled by scenario only, mirrored on
// PerfSpect's cmd/metrics Prometheus integration.
type Exporter struct {
	log zerolog.Logger

	totalBranches   *prometheus.GaugeVec
	abortedBranches *prometheus.GaugeVec
	classes         *prometheus.GaugeVec
	avgFitness      *prometheus.GaugeVec
	maxFitness      *prometheus.GaugeVec
	avgExploit      *prometheus.GaugeVec
}

// NewExporter builds and registers the gauge vectors. Call Serve to
// expose them over HTTP.
func NewExporter(log zerolog.Logger) *Exporter {
	labels := []string{"scenario"}
	e := &Exporter{
		log: log,
		totalBranches: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metricPrefix + "total_branches",
			Help: "Total branches explored for the most recent permutation point.",
		}, labels),
		abortedBranches: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metricPrefix + "aborted_branches",
			Help: "Branches aborted by a zero-probability predicate guard.",
		}, labels),
		classes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metricPrefix + "equivalence_classes",
			Help: "Distinct (fitness, technique-set) equivalence classes found.",
		}, labels),
		avgFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metricPrefix + "avg_fitness",
			Help: "Average fitness across completed branches.",
		}, labels),
		maxFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metricPrefix + "max_fitness",
			Help: "Maximum fitness across completed branches.",
		}, labels),
		avgExploit: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metricPrefix + "avg_exploitability",
			Help: "Average exploitability across completed branches.",
		}, labels),
	}

	prometheus.MustRegister(
		e.totalBranches, e.abortedBranches, e.classes,
		e.avgFitness, e.maxFitness, e.avgExploit,
	)
	return e
}

// Summary is the subset of simulation.Summary the exporter renders;
// kept as plain fields rather than importing pkg/simulation directly
// so the metrics package stays a leaf dependency.
type Summary struct {
	TotalBranches      int
	AbortedBranches    int
	EquivalenceClasses int
	AvgFitness         float64
	MaxFitness         float64
	AvgExploitability  float64
}

// Observe updates every gauge for scenario from s.
func (e *Exporter) Observe(scenario string, s Summary) {
	e.totalBranches.WithLabelValues(scenario).Set(float64(s.TotalBranches))
	e.abortedBranches.WithLabelValues(scenario).Set(float64(s.AbortedBranches))
	e.classes.WithLabelValues(scenario).Set(float64(s.EquivalenceClasses))
	e.avgFitness.WithLabelValues(scenario).Set(s.AvgFitness)
	e.maxFitness.WithLabelValues(scenario).Set(s.MaxFitness)
	e.avgExploit.WithLabelValues(scenario).Set(s.AvgExploitability)
}

// Serve starts the /metrics HTTP endpoint in a background goroutine.
func (e *Exporter) Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	e.log.Info().Str("addr", addr).Msg("starting prometheus metrics server")
	go func() {
		server := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 3 * time.Second,
		}
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			e.log.Error().Err(err).Msg("prometheus metrics server stopped")
		}
	}()
}
