package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Populated through -ldflags at release time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show nkioskctl version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "nkioskctl version %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
