// Package main is the entry point for the floradex CLI.
//
// floradex can be used as a library (SDK) or run as a standalone host with
// YAML configuration. This CLI provides the standalone approach.
//
// Usage:
//
//	floradex serve -c config.yaml          # Serve the host page and API
//	floradex validate -c config.yaml       # Validate configuration
//	floradex url --project bodmin-airfield # Print a dashboard URL
//	floradex projects                      # List known projects
//	floradex version                       # Show version info
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "floradex",
	Short: "Embeddable biodiversity dashboard widgets",
	Long: `floradex mounts Floradex biodiversity dashboards into host pages.

It resolves widget configuration from page attributes, validates the
project, loads the hosted dashboard with a timeout and bounded retries,
and serves the result with a live event stream.

Quick start:
  1. Create a config file (floradex.yaml)
  2. Run: floradex serve -c floradex.yaml
  3. Open http://localhost:8080 in your browser

Example config:
  port: 8080
  mounts:
    - id: airfield
      attributes:
        project: bodmin-airfield
        theme: dark`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this floradex binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "floradex %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	viper.SetEnvPrefix("FLORADEX")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().String("base-url", "", "dashboard base URL (env FLORADEX_BASE_URL)")
	rootCmd.PersistentFlags().Bool("json", false, "print JSON output")
	_ = viper.BindPFlag("base-url", rootCmd.PersistentFlags().Lookup("base-url"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	rootCmd.AddCommand(versionCmd)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
