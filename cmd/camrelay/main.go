// Camrelay is a discovery and relay daemon for ONVIF network cameras.
//
// It finds cameras on the local network via WS-Discovery, opens
// authenticated device sessions to resolve RTSP stream and HTTP snapshot
// URLs, and serves the results over an HTTP API together with snapshot
// and MJPEG relay endpoints.
//
// Usage:
//
//	camrelay serve [flags]
//	camrelay discover --username <user> --password <pass> [flags]
//
// See 'camrelay --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/camrelay/camrelay/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "camrelay",
	Short: "ONVIF Camera Discovery and Relay Daemon",
	Long: `A daemon for discovering ONVIF network cameras and relaying their imagery.

Cameras are discovered via WS-Discovery multicast probes, authenticated
device sessions resolve each camera's stream and snapshot URLs, and the
results are served over an HTTP API with snapshot and MJPEG relay
endpoints for browser clients.`,
	Version: version.Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("camrelay %s (commit: %s)\n", version.Version, version.Commit)
	},
}
