// Nsd advertises local services and discovers peers over UDP broadcast.
//
// Every advertise interval nsd sends a JSON announcement listing its
// services to the broadcast address of each IPv4 interface, and keeps a
// registry of the services other hosts announce. Entries not refreshed
// within the purge window are dropped.
//
// Usage:
//
//	nsd [command] [flags]
//
// See 'nsd --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/nsd/internal/logging"
	"github.com/muurk/nsd/internal/version"
)

func main() {
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "nsd",
	Short: "LAN service discovery over UDP broadcast",
	Long: `A service discovery daemon for local networks.

nsd periodically broadcasts the services this host offers to every IPv4
interface and listens for the same announcements from other hosts, keeping a
registry of what is available on the LAN. No multicast, no central server.

Logging is silent unless --log-level or NSD_LOG_LEVEL is set.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: $XDG_CONFIG_HOME/nsd/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(addrCmd)
	rootCmd.AddCommand(interfacesCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "nsd %s (%s)\n", version.Full(), version.Platform())
	},
}
