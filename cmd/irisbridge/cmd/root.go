// Package cmd contains the CLI commands for irisbridge.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Used for flags
	verbose    bool
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "irisbridge",
	Short: "irisbridge - CrowdStrike Falcon incident to IRIS alert bridge",
	Long: `irisbridge pulls security incidents from the CrowdStrike Falcon API,
deduplicates them against a local cache, and forwards them as normalized
alerts to an IRIS case-management instance.

Credentials come from the environment or a .env file (FALCON_CLIENT_ID,
FALCON_CLIENT_SECRET, FALCON_CLOUD_REGION, IRIS_BASE_URL, IRIS_API_KEY);
everything else can live in a YAML config file.

Examples:
  # Forward all closed incidents, tagging them for triage
  irisbridge ingest --status closed --source crowdstrike --tags edr,falcon

  # See what would be sent without touching IRIS or the cache
  irisbridge ingest --status closed --source crowdstrike --tags edr --dry-run

  # Poll every 10 minutes with metrics on :9182
  irisbridge watch --status closed --source crowdstrike --tags edr --interval 10m

  # Inspect the deduplication cache
  irisbridge cache list --cache-folder crowdstrike`,
	Run: func(cmd *cobra.Command, args []string) {
		// Show help by default
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

// PrintError prints an error message and exits if fatal is true.
func PrintError(msg string, fatal bool) {
	fmt.Fprintln(os.Stderr, "Error:", msg)
	if fatal {
		os.Exit(1)
	}
}

// PrintVerbose prints a message only if verbose mode is enabled.
func PrintVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Printf(format+"\n", args...)
	}
}
