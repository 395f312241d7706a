package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// newActivateCmd creates a command for engaging kiosk mode
func newActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate",
		Short: "Engage kiosk mode",
		Long: `Engage kiosk mode on the display: the view is pinned to the rotation
cycle, the platform wake lock is requested, and the sleep schedule takes
effect.

This command needs the settings PIN; pass it with --pin or store it with
'nkioskctl config set --pin'.`,
		Example: `  # Engage kiosk mode
  nkioskctl activate --pin 0000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			err = client.WithSettingsUnlocked(cmd.Context(), func(ctx context.Context) error {
				_, err := client.SetActive(ctx, true)
				return err
			})
			if err != nil {
				return fmt.Errorf("error engaging kiosk mode: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Kiosk mode engaged")
			return nil
		},
	}
}

// newDeactivateCmd creates a command for disengaging kiosk mode
func newDeactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate",
		Short: "Disengage kiosk mode",
		Long: `Disengage kiosk mode: view rotation and the sleep schedule stop
driving the display, and the wake lock is released.

This command needs the settings PIN; pass it with --pin or store it with
'nkioskctl config set --pin'.`,
		Example: `  # Disengage kiosk mode
  nkioskctl deactivate --pin 0000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			err = client.WithSettingsUnlocked(cmd.Context(), func(ctx context.Context) error {
				_, err := client.SetActive(ctx, false)
				return err
			})
			if err != nil {
				return fmt.Errorf("error disengaging kiosk mode: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Kiosk mode disengaged")
			return nil
		},
	}
}
