// Command assistant talks to the scheduling pipeline from a terminal.
//
// Usage:
//
//	assistant ask "Book a meeting tomorrow at 3 PM"
//	assistant probe --book --cleanup
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "assistant",
		Short:         "Check and book calendar slots in plain English",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline steps to stderr")

	cmd.AddCommand(
		newAskCmd(&verbose),
		newProbeCmd(&verbose),
	)
	return cmd
}
