// Package cmd implements the kiosk CLI commands
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netboard/netboard-kiosk/internal/nkioskctl/client"
	"github.com/netboard/netboard-kiosk/internal/nkioskctl/config"
	"github.com/netboard/netboard-kiosk/internal/nkioskctl/util"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd is the bare nkioskctl invocation; everything useful lives in
// a subcommand
var rootCmd = &cobra.Command{
	Use:   "nkioskctl",
	Short: "Netboard kiosk control tool",
	Long: `nkioskctl is a command line tool for driving a Netboard kiosk display
daemon: switching screens, managing the sleep schedule, and adjusting
rotation settings without touching the display itself.`,
}

// Execute runs the CLI once and exits nonzero on error
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.nkioskctl/config.yaml)")
	rootCmd.PersistentFlags().String("server", "", "kiosk daemon address")
	rootCmd.PersistentFlags().String("pin", "", "settings PIN for mutating commands")

	rootCmd.AddCommand(
		newStatusCmd(),
		newDevicesCmd(),
		newActivateCmd(),
		newDeactivateCmd(),
		newViewCmd(),
		newWakeCmd(),
		newIntervalCmd(),
		newScheduleCmd(),
		newPINCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
}

// initConfig loads the config file before any command runs. Flags beat
// the file when both name a value.
func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	if server, _ := rootCmd.PersistentFlags().GetString("server"); server != "" {
		cfg.Server = server
	}
	if pin, _ := rootCmd.PersistentFlags().GetString("pin"); pin != "" {
		cfg.PIN = pin
	}
}

// getClient returns a configured API client
func getClient() (*client.Client, error) {
	return util.GetClient(cfg)
}
