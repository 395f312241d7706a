package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newWakeCmd creates a command for waking a sleeping display
func newWakeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wake",
		Short: "Wake a sleeping display",
		Long: `Wake the display during a scheduled sleep window. The display stays
awake until the next schedule evaluation puts it back to sleep.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			state, err := client.Wake(cmd.Context())
			if err != nil {
				return fmt.Errorf("error waking display: %w", err)
			}

			if state.Sleeping {
				fmt.Fprintln(cmd.OutOrStdout(), "Display is still asleep")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Display is awake")
			}
			return nil
		},
	}
}
