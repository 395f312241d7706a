package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/netboard/netboard-kiosk/internal/nkioskctl/util"
)

// newStatusCmd creates a command for showing the kiosk state
func newStatusCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show kiosk state",
		Long: `Show the current state of the kiosk daemon: whether kiosk mode is
engaged, which screen is showing, the rotation interval, and the sleep
schedule.`,
		Example: `  # Show kiosk state
  nkioskctl status

  # Machine-readable output
  nkioskctl status -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			state, err := client.GetState(cmd.Context())
			if err != nil {
				return fmt.Errorf("error fetching state: %w", err)
			}

			if output == "json" {
				return util.PrintJSON(cmd.OutOrStdout(), state)
			}

			tw := util.NewTabWriter(cmd.OutOrStdout())
			defer tw.Flush()

			fmt.Fprintf(tw, "Kiosk mode:\t%s\n", util.FormatOnOff(state.Active))
			fmt.Fprintf(tw, "View:\t%s\n", state.ViewMode)
			fmt.Fprintf(tw, "Rotation:\t%s\n", formatInterval(state.CycleIntervalSeconds))
			fmt.Fprintf(tw, "Sleeping:\t%v\n", state.Sleeping)
			fmt.Fprintf(tw, "Schedule:\t%s\n", formatSchedule(state))
			fmt.Fprintf(tw, "Wake lock:\t%s\n", heldOrReleased(state.WakeLockHeld))
			fmt.Fprintf(tw, "Settings:\t%s\n", lockedOrUnlocked(state.SettingsUnlocked))
			fmt.Fprintf(tw, "Session:\t%s\n", state.SessionID)
			fmt.Fprintf(tw, "Updated:\t%s\n", util.FormatDuration(time.Since(state.UpdatedAt)))

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json)")

	return cmd
}
