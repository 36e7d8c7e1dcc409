package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/xsimrunner/xsim/pkg/permutator"
	"github.com/xsimrunner/xsim/pkg/profile"
	"github.com/xsimrunner/xsim/pkg/report"
	"github.com/xsimrunner/xsim/pkg/statemachine"
)

var profileCmd = &cobra.Command{
	Use:   "profile [PROFILE_LOG] [OUTPUT_DIR]",
	Short: "Drive the simulator from a PROFILE: START/END log instead of a field scenario",
	Long: `Reads a PROFILE: START / PROFILE: <option>=<value> / PROFILE: END log
(from PROFILE_LOG, or stdin if omitted) and runs the permutator once per
block, each block pinning the default scenario's fields to the values
it names; fields a block does not name keep their default domain (§6).`,
	Args: cobra.MaximumNArgs(2),
	RunE: runProfile,
}

func runProfile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	outputDir := cfg.Reporting.OutputDir
	var input io.Reader = os.Stdin

	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening profile log %s: %w", args[0], err)
		}
		defer f.Close()
		input = f
	}
	if len(args) > 1 {
		outputDir = args[1]
	}

	data, err := io.ReadAll(input)
	if err != nil {
		return fmt.Errorf("reading profile log: %w", err)
	}

	blocks, err := permutator.ParseProfileLog(string(data))
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		return fmt.Errorf("no valid permutations: profile log contained no PROFILE: START/END blocks")
	}

	store := profile.NewStore()
	base := permutator.DefaultScenario(store)
	machine := statemachine.New()

	fieldNames := make([]string, len(base.Descriptors))
	for i, d := range base.Descriptors {
		fieldNames[i] = d.Name
	}

	writer, err := report.NewWriter(outputDir, "profile", fieldNames, machine.AllStates(), machine.AllEvents())
	if err != nil {
		return fmt.Errorf("creating report writer: %w", err)
	}

	p := permutator.New(store, logger)

	var totalSimulated, totalReported int
	for i, block := range blocks {
		scenarioName := fmt.Sprintf("profile-%d", i)
		scenario, err := permutator.ScenarioFor(base, block, scenarioName)
		if err != nil {
			return fmt.Errorf("profile block %d: %w", i, err)
		}
		stats := p.Run(scenario, writer)
		totalSimulated += stats.SimulatedPoints
		totalReported += stats.ReportedPoints
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing report writer: %w", err)
	}

	logger.Info().
		Int("blocks", len(blocks)).
		Int("simulated_points", totalSimulated).
		Int("reported_points", totalReported).
		Msg("profile run complete")

	if totalSimulated == 0 {
		return fmt.Errorf("no valid permutations: every profile block was incompatible")
	}
	return nil
}
