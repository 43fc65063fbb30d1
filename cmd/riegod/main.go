// Riegod is the multi-zone irrigation controller daemon.
//
// It drives the front-panel state machine (zones, groups, pause/stop,
// configuration mode), keeps the remote actuator endpoint in sync with the
// intended zone state, and exposes a local status surface over HTTP, mDNS
// and MQTT.
//
// Usage:
//
//	riegod run [flags]       start the controller daemon
//	riegod simulate [flags]  interactive terminal front panel
//
// See 'riegod --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "riegod",
	Short: "Multi-zone irrigation controller",
	Long: `The control daemon of the irrigation box.

'run' starts the controller against the configured actuator endpoint and
serves the local status API. 'simulate' runs the same controller behind an
interactive terminal front panel, useful without the box hardware.`,
	Version: version.Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("riegod %s (commit: %s)\n", version.Version, version.Commit)
	},
}
