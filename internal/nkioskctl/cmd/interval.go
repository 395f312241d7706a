package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// newIntervalCmd creates a command for changing the view rotation period
func newIntervalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interval SECONDS",
		Short: "Change the view rotation period",
		Long: `Change how long each screen stays up before the rotation advances.
Zero pauses the rotation entirely; the current screen stays put.

This command needs the settings PIN; pass it with --pin or store it with
'nkioskctl config set --pin'.`,
		Example: `  # Rotate every 30 seconds
  nkioskctl interval 30 --pin 0000

  # Pause rotation
  nkioskctl interval 0 --pin 0000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid interval %q - use whole seconds", args[0])
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			err = client.WithSettingsUnlocked(cmd.Context(), func(ctx context.Context) error {
				_, err := client.SetInterval(ctx, seconds)
				return err
			})
			if err != nil {
				return fmt.Errorf("error changing interval: %w", err)
			}

			if seconds < 1 {
				fmt.Fprintln(cmd.OutOrStdout(), "View rotation paused")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Views rotate every %ds\n", seconds)
			}
			return nil
		},
	}
}
