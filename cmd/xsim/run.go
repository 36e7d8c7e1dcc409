package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xsimrunner/xsim/pkg/permutator"
	"github.com/xsimrunner/xsim/pkg/profile"
	"github.com/xsimrunner/xsim/pkg/report"
	"github.com/xsimrunner/xsim/pkg/simulation"
	"github.com/xsimrunner/xsim/pkg/statemachine"
	"github.com/xsimrunner/xsim/pkg/telemetry"
)

var runCmd = &cobra.Command{
	Use:   "run [OUTPUT_DIR] [FIELD=VAL,VAL,... ...]",
	Short: "Run the permutator over a scenario and emit a report",
	Long: `Enumerates the cartesian product of the default (or field-restricted)
scenario, runs the simulation engine over every point, and writes the
per-point text summaries, the cumulative simulations.csv, and the
per-metric summary tables into OUTPUT_DIR (default "results").`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("mode", "normal", "exploration mode: normal|attack_favor|defense_favor|public_only")
	runCmd.Flags().Bool("allow-impossible", false, "continue past a zero-probability predicate instead of aborting the branch")
	runCmd.Flags().Bool("minimal-only", false, "discard completed branches that are not minimal")
	runCmd.Flags().Bool("equivalent-only", false, "keep one representative record per equivalence class instead of one per branch")
	runCmd.Flags().String("filter", "", "govaluate expression gating which points are reported")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	outputDir := cfg.Reporting.OutputDir
	fieldArgs := args
	if len(args) > 0 {
		outputDir = args[0]
		fieldArgs = args[1:]
	}

	overrides, err := parseFieldArgs(fieldArgs)
	if err != nil {
		return err
	}

	store := profile.NewStore()
	scenario := permutator.DefaultScenario(store)
	if len(overrides) > 0 {
		scenario, err = permutator.ApplyOverrides(scenario, overrides)
		if err != nil {
			return fmt.Errorf("applying field overrides: %w", err)
		}
	}

	modeFlag, _ := cmd.Flags().GetString("mode")
	if !cmd.Flags().Changed("mode") && cfg.Simulation.Mode != "" {
		modeFlag = cfg.Simulation.Mode
	}
	mode, err := parseMode(modeFlag)
	if err != nil {
		return err
	}

	allowImpossible, _ := cmd.Flags().GetBool("allow-impossible")
	minimalOnly, _ := cmd.Flags().GetBool("minimal-only")
	equivalentOnly, _ := cmd.Flags().GetBool("equivalent-only")
	filterExpr, _ := cmd.Flags().GetString("filter")
	if filterExpr == "" {
		filterExpr = cfg.Reporting.Filter
	}

	p := permutator.New(store, logger)
	p.Mode = mode
	p.Simulator = statemachine.NewSimulator(statemachine.Options{
		AllowImpossible:     allowImpossible || cfg.Simulation.AllowImpossible,
		TrackImpossible:     cfg.Simulation.TrackImpossible,
		TrackMinimalOnly:    minimalOnly || cfg.Simulation.TrackMinimalOnly,
		TrackEquivalentOnly: equivalentOnly || cfg.Simulation.TrackEquivalentOnly,
	})

	if filterExpr != "" {
		filter, err := permutator.NewFilter(filterExpr)
		if err != nil {
			return fmt.Errorf("compiling --filter expression: %w", err)
		}
		p.Filter = filter
	}

	machine := statemachine.New()
	fieldNames := make([]string, len(scenario.Descriptors))
	for i, d := range scenario.Descriptors {
		fieldNames[i] = d.Name
	}

	writer, err := report.NewWriter(outputDir, scenario.Name, fieldNames, machine.AllStates(), machine.AllEvents())
	if err != nil {
		return fmt.Errorf("creating report writer: %w", err)
	}

	var reporter permutator.Reporter = writer
	var exporter *telemetry.Exporter
	if cfg.Metrics.Enabled {
		exporter = telemetry.NewExporter(logger)
		exporter.Serve(cfg.Metrics.Addr)
		reporter = &metricsReporter{inner: writer, exporter: exporter, scenario: scenario.Name}
	}

	stats := p.Run(scenario, reporter)
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing report writer: %w", err)
	}

	logger.Info().
		Int("total_points", stats.TotalPoints).
		Int("simulated_points", stats.SimulatedPoints).
		Int("skipped_points", stats.SkippedPoints).
		Int("reported_points", stats.ReportedPoints).
		Msg("run complete")

	if stats.SimulatedPoints == 0 {
		return fmt.Errorf("no valid permutations: every point was incompatible")
	}
	return nil
}

// metricsReporter wraps the text/CSV Writer and mirrors each reported
// point's summary into the Prometheus exporter, keeping report and
// telemetry as independent collaborators of the Permutator (§4.4, §4.5).
type metricsReporter struct {
	inner    permutator.Reporter
	exporter *telemetry.Exporter
	scenario string
}

func (m *metricsReporter) ReportPoint(p permutator.PointResult) error {
	if err := m.inner.ReportPoint(p); err != nil {
		return err
	}
	m.exporter.Observe(m.scenario, telemetry.Summary{
		TotalBranches:      p.Summary.TotalBranches,
		AbortedBranches:    p.Summary.AbortedBranches,
		EquivalenceClasses: p.Summary.EquivalenceClasses,
		AvgFitness:         p.Summary.AvgFitness,
		MaxFitness:         p.Summary.MaxFitness,
		AvgExploitability:  p.Summary.AvgExploitability,
	})
	return nil
}

func parseMode(s string) (simulation.Mode, error) {
	switch s {
	case "normal":
		return simulation.ModeNormal, nil
	case "attack_favor":
		return simulation.ModeAttackFavor, nil
	case "defense_favor":
		return simulation.ModeDefenseFavor, nil
	case "public_only":
		return simulation.ModePublicOnly, nil
	default:
		return 0, fmt.Errorf("unknown --mode %q", s)
	}
}
