package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netboard/netboard-kiosk/api/types/v1alpha1"
)

// newScheduleCmd creates a command for managing the sleep schedule
func newScheduleCmd() *cobra.Command {
	var (
		enable  bool
		disable bool
		start   string
		end     string
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage the sleep schedule",
		Long: `Update the daily operating-hours window. The display is awake between
start and end and sleeps outside them; a start at or after the end wraps
the window past midnight. Omitted flags keep their current values.

With no flags the current schedule is printed.

Mutations need the settings PIN; pass it with --pin or store it with
'nkioskctl config set --pin'.`,
		Example: `  # Show the current schedule
  nkioskctl schedule

  # Awake 08:00-18:00, asleep overnight
  nkioskctl schedule --enable --start 08:00 --end 18:00 --pin 0000

  # Night-shift wall: awake 22:00-06:00
  nkioskctl schedule --enable --start 22:00 --end 06:00 --pin 0000

  # Stop evaluating the window
  nkioskctl schedule --disable --pin 0000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if enable && disable {
				return fmt.Errorf("--enable and --disable are mutually exclusive")
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			// No flags: read-only path
			if !enable && !disable && start == "" && end == "" {
				state, err := client.GetState(cmd.Context())
				if err != nil {
					return fmt.Errorf("error fetching state: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Schedule: %s\n", formatSchedule(state))
				return nil
			}

			req := &v1alpha1.SetScheduleRequest{}
			if enable {
				v := true
				req.Enabled = &v
			}
			if disable {
				v := false
				req.Enabled = &v
			}
			if start != "" {
				req.Start = &start
			}
			if end != "" {
				req.End = &end
			}

			var state *v1alpha1.KioskState
			err = client.WithSettingsUnlocked(cmd.Context(), func(ctx context.Context) error {
				state, err = client.SetSchedule(ctx, req)
				return err
			})
			if err != nil {
				return fmt.Errorf("error updating schedule: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Schedule: %s\n", formatSchedule(state))
			return nil
		},
	}

	cmd.Flags().BoolVar(&enable, "enable", false, "Evaluate the sleep window")
	cmd.Flags().BoolVar(&disable, "disable", false, "Stop evaluating the sleep window")
	cmd.Flags().StringVar(&start, "start", "", "Window start in HH:MM")
	cmd.Flags().StringVar(&end, "end", "", "Window end in HH:MM")

	return cmd
}
