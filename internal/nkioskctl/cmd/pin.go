package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// newPINCmd creates a command for replacing the settings PIN
func newPINCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pin NEW_PIN",
		Short: "Replace the settings PIN",
		Long: `Replace the four-digit PIN guarding the settings surface. The current
PIN is required to unlock; pass it with --pin or store it with
'nkioskctl config set --pin'.

The stored PIN in the CLI config is not updated automatically; run
'nkioskctl config set --pin' afterwards if you keep it there.`,
		Example: `  # Rotate the PIN from the factory default
  nkioskctl pin 4821 --pin 0000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			newPIN := args[0]

			client, err := getClient()
			if err != nil {
				return err
			}

			err = client.WithSettingsUnlocked(cmd.Context(), func(ctx context.Context) error {
				return client.UpdatePIN(ctx, newPIN)
			})
			if err != nil {
				return fmt.Errorf("error replacing PIN: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Settings PIN replaced")
			return nil
		},
	}
}
