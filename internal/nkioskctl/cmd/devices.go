package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netboard/netboard-kiosk/internal/nkioskctl/util"
)

// newDevicesCmd creates a command for listing the device feed
func newDevicesCmd() *cobra.Command {
	var (
		output      string
		problemOnly bool
	)

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List monitored devices",
		Long: `List the device feed exactly as the kiosk renders it, including
fleet aggregates and the device currently under the alert spotlight.

The output can be formatted as a table (default) or as JSON for scripting.`,
		Example: `  # List all devices
  nkioskctl devices

  # Only devices in the alert rotation
  nkioskctl devices --problematic

  # Machine-readable output
  nkioskctl devices -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			report, err := client.GetDevices(cmd.Context())
			if err != nil {
				return fmt.Errorf("error listing devices: %w", err)
			}

			if output == "json" {
				return util.PrintJSON(cmd.OutOrStdout(), report)
			}

			rows := report.Devices
			if problemOnly {
				rows = report.Problematic
			}

			tw := util.NewTabWriter(cmd.OutOrStdout())

			fmt.Fprintf(tw, "NAME\tIP\tLOCATION\tSTATUS\tCPU\n")
			for _, d := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f%%\n",
					d.Name,
					d.IP,
					d.Location,
					d.Status,
					d.CPUUsage)
			}
			tw.Flush()

			stats := report.Stats
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d devices: %d online, %d offline, %d critical, avg CPU %.1f%%\n",
				stats.TotalDevices,
				stats.OnlineDevices,
				stats.OfflineDevices,
				stats.CriticalDevices,
				stats.AverageCPU)

			if report.CurrentAlert != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Alert spotlight: %s (%s)\n",
					report.CurrentAlert.Name,
					report.CurrentAlert.Status)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	cmd.Flags().BoolVar(&problemOnly, "problematic", false, "Only show devices in the alert rotation")

	return cmd
}
