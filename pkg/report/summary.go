package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/xsimrunner/xsim/pkg/simulation"
)

// summaryMetrics names the per-point summary statistics a
// tab_metric_<metric>.csv table is produced for, one file per entry.
var summaryMetrics = []string{"exploitability", "desirability", "likelihood", "fitness", "homogeneity"}

// writeSummaryTables renders tab_metric_<metric>.csv (one row per
// point: point index, target-descriptor columns, min/max/avg of that
// metric) for every entry in summaryMetrics, plus tab_scenario.csv (one
// row per point: point index, target-descriptor columns, total and
// aborted branch counts, equivalence-class count).
func (w *Writer) writeSummaryTables() error {
	for _, metric := range summaryMetrics {
		if err := w.writeMetricTable(metric); err != nil {
			return err
		}
	}
	return w.writeScenarioTable()
}

func (w *Writer) writeMetricTable(metric string) error {
	path := filepath.Join(w.dir, "tab_metric_"+metric+".csv")
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := append([]string{"point"}, w.fields...)
	header = append(header, "min", "max", "avg")
	if err := cw.Write(header); err != nil {
		return errors.Wrapf(err, "writing %s header", path)
	}

	for _, pt := range w.points {
		min, max, avg := metricValues(metric, pt.summary)
		row := []string{strconv.Itoa(pt.index)}
		for _, name := range w.fields {
			row = append(row, pt.fields[name])
		}
		row = append(row, formatFloat(min), formatFloat(max), formatFloat(avg))
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "writing %s row", path)
		}
	}

	cw.Flush()
	return errors.Wrapf(cw.Error(), "flushing %s", path)
}

func metricValues(metric string, s simulation.Summary) (min, max, avg float64) {
	switch metric {
	case "exploitability":
		return s.MinExploitability, s.MaxExploitability, s.AvgExploitability
	case "desirability":
		return s.MinDesirability, s.MaxDesirability, s.AvgDesirability
	case "likelihood":
		return s.MinLikelihood, s.MaxLikelihood, s.AvgLikelihood
	case "fitness":
		return s.MinFitness, s.MaxFitness, s.AvgFitness
	case "homogeneity":
		return s.MinHomogeneity, s.MaxHomogeneity, s.AvgHomogeneity
	default:
		return 0, 0, 0
	}
}

func (w *Writer) writeScenarioTable() error {
	path := filepath.Join(w.dir, "tab_scenario.csv")
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := append([]string{"point"}, w.fields...)
	header = append(header, "total_branches", "aborted_branches", "equivalence_classes")
	if err := cw.Write(header); err != nil {
		return errors.Wrapf(err, "writing %s header", path)
	}

	for _, pt := range w.points {
		row := []string{strconv.Itoa(pt.index)}
		for _, name := range w.fields {
			row = append(row, pt.fields[name])
		}
		row = append(row,
			strconv.Itoa(pt.summary.TotalBranches),
			strconv.Itoa(pt.summary.AbortedBranches),
			strconv.Itoa(pt.summary.EquivalenceClasses),
		)
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "writing %s row", path)
		}
	}

	cw.Flush()
	return errors.Wrapf(cw.Error(), "flushing %s", path)
}
