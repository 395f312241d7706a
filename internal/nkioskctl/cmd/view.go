package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netboard/netboard-kiosk/api/types/v1alpha1"
)

// newViewCmd creates a command for switching dashboard screens
func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "view MODE",
		Short:     "Switch the dashboard screen",
		ValidArgs: []string{"overview", "topology", "location", "insights"},
		Long: `Switch the dashboard to the given screen.

While kiosk mode is engaged only overview and insights can be selected;
the other screens are driven by the rotation cycle.`,
		Example: `  # Jump to the topology map
  nkioskctl view topology

  # Bring up the insights screen on an active kiosk
  nkioskctl view insights`,
		Args: cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			state, err := client.SetView(cmd.Context(), v1alpha1.ViewMode(args[0]))
			if err != nil {
				return fmt.Errorf("error switching view: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Showing %s\n", state.ViewMode)
			return nil
		},
	}
}
