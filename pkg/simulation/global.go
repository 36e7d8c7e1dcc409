package simulation

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// EquivalenceClass groups every branch explored for one target point
// that reached the same fitness value via the same technique set
// (§5). Two branches that took different transition paths but ended
// up here are considered the same finding.
type EquivalenceClass struct {
	Fitness    float64
	Techniques []string

	// Members counts how many explored branches landed in this class.
	Members int

	// ExemplarTransitions is the transition trace of the first branch
	// that landed in this class, kept as the representative path for
	// reporting.
	ExemplarTransitions []string
}

// classKey renders an equivalence class's (fitness, technique-set)
// identity as a stable map key. Fitness is rounded to avoid two
// branches differing only in float accumulation order from splitting
// into spurious classes.
func classKey(fitness float64, techniques []string) string {
	sorted := append([]string(nil), techniques...)
	sort.Strings(sorted)
	return fmt.Sprintf("%.12g|%s", fitness, strings.Join(sorted, ","))
}

// metricStats tracks the running min/max/average of one scalar metric
// across every completed (non-aborted) branch.
type metricStats struct {
	min, max, sum float64
	n             int
}

func (m *metricStats) observe(v float64) {
	if m.n == 0 {
		m.min, m.max = v, v
	} else {
		if v < m.min {
			m.min = v
		}
		if v > m.max {
			m.max = v
		}
	}
	m.sum += v
	m.n++
}

func (m *metricStats) average() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}

// Record is one branch's full report-ready snapshot: the ordered
// transition list, the ordered assumption list with values and used
// bits, the technique tag set, and the aborted/abort-reason pair
// (§4.5 — what an external Reporter consumes per simulation).
type Record struct {
	Transitions    []string
	Assumptions    []*Assumption
	Techniques     []string
	Aborted        bool
	AbortReason    string
	Exploitability float64
	Desirability   float64
	Likelihood     float64
	Fitness        float64
	Homogeneity    float64
}

// GlobalSimulationContext accumulates equivalence classes and summary
// statistics across every branch the Simulator explores for a single
// target point (§3). It is not safe for concurrent use by more than
// one in-flight DFS walk; the Permutator gives each target point its
// own instance.
type GlobalSimulationContext struct {
	classes    map[string]*EquivalenceClass
	classOrder []string

	records []Record

	TotalBranches   int
	AbortedBranches int
	AbortedByGuard  map[string]int

	exploitability metricStats
	desirability   metricStats
	likelihood     metricStats
	fitness        metricStats
	homogeneity    metricStats

	// exploitabilityBuckets counts completed branches per
	// order-of-magnitude exploitability bucket. The counts are kept
	// here only: Summary does not include them and no report renders
	// them.
	exploitabilityBuckets map[string]int

	// TrackEquivalentOnly switches RecordCompleted to keep one
	// representative Record per equivalence class plus its membership
	// count, instead of a Record per completed branch (glossary
	// "Equivalence class", §8 scenario 6). Metric statistics and
	// TotalBranches still fold in every completed branch regardless.
	TrackEquivalentOnly bool
}

// NewGlobalSimulationContext returns an empty accumulator for one
// target point.
func NewGlobalSimulationContext() *GlobalSimulationContext {
	return &GlobalSimulationContext{
		classes:               make(map[string]*EquivalenceClass),
		AbortedByGuard:        make(map[string]int),
		exploitabilityBuckets: make(map[string]int),
	}
}

// RecordAborted registers a branch that failed a predicate guard,
// counted under the guard named by ctx.AbortReason. Aborted branches never contribute to the metric
// statistics or to any equivalence class, but are kept as a Record for
// the reporter's aborted/aborted_predicate columns.
func (g *GlobalSimulationContext) RecordAborted(ctx *SimulationContext) {
	g.TotalBranches++
	g.AbortedBranches++
	g.AbortedByGuard[ctx.AbortReason]++
	g.records = append(g.records, Record{
		Transitions: ctx.Transitions(),
		Assumptions: ctx.AllAssumptions(),
		Techniques:  ctx.Techniques().ToSlice(),
		Aborted:     true,
		AbortReason: ctx.AbortReason,
	})
}

// RecordCompleted registers a branch that reached a terminal state
// without being aborted, folding it into its equivalence class and
// the running metric statistics.
func (g *GlobalSimulationContext) RecordCompleted(ctx *SimulationContext) {
	g.TotalBranches++

	g.exploitability.observe(ctx.Exploitability)
	g.desirability.observe(ctx.Desirability)
	g.likelihood.observe(ctx.Likelihood)
	fitness := ctx.Fitness()
	g.fitness.observe(fitness)
	homogeneity := ctx.Target.Population() * ctx.Exploitability
	g.homogeneity.observe(homogeneity)
	g.exploitabilityBuckets[exploitabilityBucket(ctx.Exploitability)]++

	techniques := ctx.Techniques().ToSlice()
	key := classKey(fitness, techniques)
	cls, existed := g.classes[key]
	if !existed {
		sorted := append([]string(nil), techniques...)
		sort.Strings(sorted)
		cls = &EquivalenceClass{
			Fitness:             fitness,
			Techniques:          sorted,
			ExemplarTransitions: ctx.Transitions(),
		}
		g.classes[key] = cls
		g.classOrder = append(g.classOrder, key)
	}
	cls.Members++

	// Under TrackEquivalentOnly, every branch still folds into the
	// class's Members count above, but only the class's first branch
	// becomes a stored Record — the rest are represented by that one
	// Record plus Classes()'s membership count (glossary "Equivalence
	// class", testable property: |simulations_sorted| with
	// track_equivalent_only=true equals the distinct (fitness,
	// techniques) tuple count).
	if g.TrackEquivalentOnly && existed {
		return
	}

	g.records = append(g.records, Record{
		Transitions:    ctx.Transitions(),
		Assumptions:    ctx.AllAssumptions(),
		Techniques:     techniques,
		Exploitability: ctx.Exploitability,
		Desirability:   ctx.Desirability,
		Likelihood:     ctx.Likelihood,
		Fitness:        fitness,
		Homogeneity:    homogeneity,
	})
}

// Records returns every branch recorded so far (completed and
// aborted), in the order the Simulator visited them.
func (g *GlobalSimulationContext) Records() []Record {
	return g.records
}

// exploitabilityBucket labels v's order-of-magnitude bucket: "0" for
// an exact zero (should not occur for a completed branch, since a
// zero exploitability guard aborts instead), otherwise the floor of
// log10(v) as a "1e-N" label.
func exploitabilityBucket(v float64) string {
	if v <= 0 {
		return "0"
	}
	exp := int(math.Floor(math.Log10(v)))
	return fmt.Sprintf("1e%d", exp)
}

// Classes returns every equivalence class discovered so far, in
// first-seen order.
func (g *GlobalSimulationContext) Classes() []*EquivalenceClass {
	out := make([]*EquivalenceClass, 0, len(g.classOrder))
	for _, k := range g.classOrder {
		out = append(out, g.classes[k])
	}
	return out
}

// Summary is the snapshot of running statistics a reporter renders
// into a target point's summary row (§6).
type Summary struct {
	TotalBranches   int
	AbortedBranches int

	MinExploitability, MaxExploitability, AvgExploitability float64
	MinDesirability, MaxDesirability, AvgDesirability       float64
	MinLikelihood, MaxLikelihood, AvgLikelihood             float64
	MinFitness, MaxFitness, AvgFitness                      float64
	MinHomogeneity, MaxHomogeneity, AvgHomogeneity          float64

	EquivalenceClasses int
}

// Summary renders the current accumulator state.
func (g *GlobalSimulationContext) Summary() Summary {
	return Summary{
		TotalBranches:      g.TotalBranches,
		AbortedBranches:    g.AbortedBranches,
		MinExploitability:  g.exploitability.min,
		MaxExploitability:  g.exploitability.max,
		AvgExploitability:  g.exploitability.average(),
		MinDesirability:    g.desirability.min,
		MaxDesirability:    g.desirability.max,
		AvgDesirability:    g.desirability.average(),
		MinLikelihood:      g.likelihood.min,
		MaxLikelihood:      g.likelihood.max,
		AvgLikelihood:      g.likelihood.average(),
		MinFitness:         g.fitness.min,
		MaxFitness:         g.fitness.max,
		AvgFitness:         g.fitness.average(),
		MinHomogeneity:     g.homogeneity.min,
		MaxHomogeneity:     g.homogeneity.max,
		AvgHomogeneity:     g.homogeneity.average(),
		EquivalenceClasses: len(g.classes),
	}
}
