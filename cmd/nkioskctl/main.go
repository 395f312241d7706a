// The nkioskctl command provides a command-line interface for driving
// a Netboard kiosk display daemon.
package main

import "github.com/netboard/netboard-kiosk/internal/nkioskctl/cmd"

func main() {
	cmd.Execute()
}
