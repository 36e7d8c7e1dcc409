package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "xsim",
	Short: "Exploitation simulation engine",
	Long: `xsim models the exploitation of memory-safety vulnerabilities as a
non-deterministic finite state machine and computes, for each configured
target scenario, a spectrum of numeric metrics (exploitability,
desirability, likelihood, homogeneity, fitness) together with the set of
technique sequences that achieve code execution.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(profileCmd)
}

// Subcommands are defined in sibling files: runCmd in run.go, listCmd
// in list.go, profileCmd in profile.go.

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
