package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xsimrunner/xsim/pkg/profile"
)

var listCmd = &cobra.Command{
	Use:       "list {os|app|flaw|flaw-core}",
	Short:     "List the symbolic names of a built-in profile category",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"os", "app", "flaw", "flaw-core"},
	RunE:      runList,
}

func runList(cmd *cobra.Command, args []string) error {
	store := profile.NewStore()

	var names []string
	switch args[0] {
	case "os":
		names = store.OSNames()
	case "app":
		names = store.ApplicationNames()
	case "flaw":
		names = store.FlawNames()
	case "flaw-core":
		names = store.CoreFlawNames()
	default:
		return fmt.Errorf("unknown list category %q, want one of os|app|flaw|flaw-core", args[0])
	}

	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}
