package permutator

import (
	"github.com/casbin/govaluate"
	"github.com/pkg/errors"
)

// Filter decides, from a point's rendered summary statistics, whether
// that point is worth emitting. A Filter never changes which points
// are simulated — every point in the cartesian product is always
// walked and folded into its GlobalSimulationContext — it only gates
// what reaches the Reporter (§4.4: "filtering is additive, applied
// after simulation").
type Filter struct {
	expr *govaluate.EvaluableExpression
}

// NewFilter compiles a govaluate boolean expression over the
// point-summary parameter names: total_branches, aborted_branches,
// min_exploitability, max_exploitability, avg_exploitability,
// min_desirability, max_desirability, avg_desirability,
// min_likelihood, max_likelihood, avg_likelihood, min_fitness,
// max_fitness, avg_fitness, min_homogeneity, max_homogeneity,
// avg_homogeneity, equivalence_classes, plus each scenario field name
// bound to the point's value for that field.
func NewFilter(expression string) (*Filter, error) {
	expr, err := govaluate.NewEvaluableExpression(expression)
	if err != nil {
		return nil, errors.Wrap(err, "compiling filter expression")
	}
	return &Filter{expr: expr}, nil
}

// Matches evaluates the compiled expression against result's summary,
// returning false (skip) on any evaluation error rather than panicking
// a run over one malformed point.
func (f *Filter) Matches(result PointResult) bool {
	if f == nil || f.expr == nil {
		return true
	}
	params := map[string]interface{}{
		"total_branches":      float64(result.Summary.TotalBranches),
		"aborted_branches":    float64(result.Summary.AbortedBranches),
		"min_exploitability":  result.Summary.MinExploitability,
		"max_exploitability":  result.Summary.MaxExploitability,
		"avg_exploitability":  result.Summary.AvgExploitability,
		"min_desirability":    result.Summary.MinDesirability,
		"max_desirability":    result.Summary.MaxDesirability,
		"avg_desirability":    result.Summary.AvgDesirability,
		"min_likelihood":      result.Summary.MinLikelihood,
		"max_likelihood":      result.Summary.MaxLikelihood,
		"avg_likelihood":      result.Summary.AvgLikelihood,
		"min_fitness":         result.Summary.MinFitness,
		"max_fitness":         result.Summary.MaxFitness,
		"avg_fitness":         result.Summary.AvgFitness,
		"min_homogeneity":     result.Summary.MinHomogeneity,
		"max_homogeneity":     result.Summary.MaxHomogeneity,
		"avg_homogeneity":     result.Summary.AvgHomogeneity,
		"equivalence_classes": float64(result.Summary.EquivalenceClasses),
	}
	for name, value := range result.Fields {
		params[name] = value
	}

	v, err := f.expr.Evaluate(params)
	if err != nil {
		return false
	}
	match, ok := v.(bool)
	return ok && match
}
