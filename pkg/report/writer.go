// Package report implements the default permutator.Reporter: the
// per-point text summary, the cumulative simulations.csv, and the
// per-metric summary tables spec.md §4.5 and §6 describe as an
// external, swappable collaborator of the simulation core.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/xsimrunner/xsim/pkg/permutator"
	"github.com/xsimrunner/xsim/pkg/simulation"
)

// metricColumns is the fixed, ordered set of per-simulation metric
// columns that precede the target-descriptor and one-hot columns
// (§6: "simulation,scenario,fitness,exploitability,desirability,
// likelihood,homogeneity,aborted,aborted_predicate").
var metricColumns = []string{
	"simulation", "scenario", "fitness", "exploitability",
	"desirability", "likelihood", "homogeneity", "aborted", "aborted_predicate",
}

// Writer is the default text+CSV Reporter. One Writer owns one run's
// OUTPUT_DIR: it is not safe for concurrent ReportPoint calls from
// more than one goroutine, mirroring spec.md §7's "the CSV file
// handle is owned by the Permutator and written sequentially".
type Writer struct {
	dir      string
	scenario string

	fields []string
	states []string
	events []string

	csvFile   *os.File
	csvWriter *csv.Writer

	nextSimID int
	points    []pointSummary
}

type pointSummary struct {
	index   int
	fields  map[string]string
	summary simulation.Summary
}

// NewWriter creates dir if needed, opens simulations.csv, and writes
// its header once from the fixed column universe: the metric block,
// then fieldNames in scenario-declaration order, then the lex-sorted
// state and event one-hot columns. Every later row written by this
// Writer uses exactly this column order (§6: "fixed once at header
// emission and must match across all rows").
func NewWriter(dir, scenarioName string, fieldNames, states, events []string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating report output directory")
	}

	f, err := os.Create(filepath.Join(dir, "simulations.csv"))
	if err != nil {
		return nil, errors.Wrap(err, "creating simulations.csv")
	}

	w := &Writer{
		dir:       dir,
		scenario:  scenarioName,
		fields:    append([]string(nil), fieldNames...),
		states:    append([]string(nil), states...),
		events:    append([]string(nil), events...),
		csvFile:   f,
		csvWriter: csv.NewWriter(f),
	}

	header := append([]string(nil), metricColumns...)
	header = append(header, w.fields...)
	header = append(header, w.states...)
	header = append(header, w.events...)

	if err := w.csvWriter.Write(header); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "writing simulations.csv header")
	}
	w.csvWriter.Flush()
	if err := w.csvWriter.Error(); err != nil {
		return nil, errors.Wrap(err, "flushing simulations.csv header")
	}

	return w, nil
}

// ReportPoint implements permutator.Reporter: it writes the point's
// text summary file, appends one CSV row per branch record the point
// produced (completed or aborted), and retains the point's summary
// for the per-metric tables written by Close.
func (w *Writer) ReportPoint(p permutator.PointResult) error {
	if err := w.writeTextFile(p); err != nil {
		return err
	}
	for _, rec := range p.Records {
		if err := w.writeRow(p, rec); err != nil {
			return err
		}
	}
	w.points = append(w.points, pointSummary{index: p.Index, fields: p.Fields, summary: p.Summary})
	return nil
}

func (w *Writer) writeRow(p permutator.PointResult, rec simulation.Record) error {
	row := make([]string, 0, len(metricColumns)+len(w.fields)+len(w.states)+len(w.events))

	simID := w.nextSimID
	w.nextSimID++

	row = append(row,
		strconv.Itoa(simID),
		w.scenario,
		formatFloat(rec.Fitness),
		formatFloat(rec.Exploitability),
		formatFloat(rec.Desirability),
		formatFloat(rec.Likelihood),
		formatFloat(rec.Homogeneity),
		strconv.FormatBool(rec.Aborted),
		rec.AbortReason,
	)

	for _, name := range w.fields {
		row = append(row, p.Fields[name])
	}

	visitedStates, visitedEvents := visited(rec.Transitions)
	for _, s := range w.states {
		row = append(row, oneHot(visitedStates[s]))
	}
	for _, e := range w.events {
		row = append(row, oneHot(visitedEvents[e]))
	}

	if err := w.csvWriter.Write(row); err != nil {
		return errors.Wrap(err, "writing simulations.csv row")
	}
	w.csvWriter.Flush()
	return errors.Wrap(w.csvWriter.Error(), "flushing simulations.csv row")
}

// visited splits each "source/event/dest" transition identity into
// its state and event membership sets, for the one-hot columns.
func visited(transitions []string) (states, events map[string]bool) {
	states = make(map[string]bool)
	events = make(map[string]bool)
	for _, id := range transitions {
		parts := strings.SplitN(id, "/", 3)
		if len(parts) != 3 {
			continue
		}
		states[parts[0]] = true
		states[parts[2]] = true
		events[parts[1]] = true
	}
	return states, events
}

func oneHot(present bool) string {
	if present {
		return "1"
	}
	return "0"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// writeTextFile renders the point's human-readable summary to
// `<scenario>-<point-id>.txt` under dir (§6: "one text file per point
// with human-readable summaries").
func (w *Writer) writeTextFile(p permutator.PointResult) error {
	var b strings.Builder

	fmt.Fprintf(&b, "scenario: %s\n", w.scenario)
	fmt.Fprintf(&b, "point: %d\n\n", p.Index)

	fmt.Fprintln(&b, "target:")
	for _, name := range w.fields {
		fmt.Fprintf(&b, "  %s: %s\n", name, p.Fields[name])
	}

	fmt.Fprintln(&b, "\nsummary:")
	fmt.Fprintf(&b, "  total_branches:     %d\n", p.Summary.TotalBranches)
	fmt.Fprintf(&b, "  aborted_branches:   %d\n", p.Summary.AbortedBranches)
	fmt.Fprintf(&b, "  equivalence_classes: %d\n", p.Summary.EquivalenceClasses)
	fmt.Fprintf(&b, "  exploitability: min=%s max=%s avg=%s\n",
		formatFloat(p.Summary.MinExploitability), formatFloat(p.Summary.MaxExploitability), formatFloat(p.Summary.AvgExploitability))
	fmt.Fprintf(&b, "  desirability:   min=%s max=%s avg=%s\n",
		formatFloat(p.Summary.MinDesirability), formatFloat(p.Summary.MaxDesirability), formatFloat(p.Summary.AvgDesirability))
	fmt.Fprintf(&b, "  likelihood:     min=%s max=%s avg=%s\n",
		formatFloat(p.Summary.MinLikelihood), formatFloat(p.Summary.MaxLikelihood), formatFloat(p.Summary.AvgLikelihood))
	fmt.Fprintf(&b, "  fitness:        min=%s max=%s avg=%s\n",
		formatFloat(p.Summary.MinFitness), formatFloat(p.Summary.MaxFitness), formatFloat(p.Summary.AvgFitness))
	fmt.Fprintf(&b, "  homogeneity:    min=%s max=%s avg=%s\n",
		formatFloat(p.Summary.MinHomogeneity), formatFloat(p.Summary.MaxHomogeneity), formatFloat(p.Summary.AvgHomogeneity))

	fmt.Fprintln(&b, "\nrecords:")
	for i, rec := range p.Records {
		if rec.Aborted {
			fmt.Fprintf(&b, "  [%d] aborted at %s\n", i, rec.AbortReason)
			continue
		}
		fmt.Fprintf(&b, "  [%d] fitness=%s techniques=%s\n", i, formatFloat(rec.Fitness), strings.Join(rec.Techniques, "+"))
	}

	name := fmt.Sprintf("%s-%d.txt", w.scenario, p.Index)
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// Close flushes and closes simulations.csv and writes the per-metric
// and per-scenario summary tables (§6: "tab_metric_<metric>.csv /
// tab_scenario.csv").
func (w *Writer) Close() error {
	w.csvWriter.Flush()
	if err := w.csvWriter.Error(); err != nil {
		w.csvFile.Close()
		return errors.Wrap(err, "flushing simulations.csv")
	}
	if err := w.csvFile.Close(); err != nil {
		return errors.Wrap(err, "closing simulations.csv")
	}
	return w.writeSummaryTables()
}
