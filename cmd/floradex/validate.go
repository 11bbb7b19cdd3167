package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pollenize/floradex"
	"github.com/pollenize/floradex/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a floradex configuration file without starting the server.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  floradex validate -c floradex.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	auto := 0
	for _, m := range cfg.Mounts {
		if m.IsAuto() {
			auto++
		}
	}

	profile := cfg.Profile
	if profile == "" {
		profile = string(floradex.ProfileFull)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:     %d\n", cfg.Port)
	fmt.Fprintf(out, "  Profile:  %s\n", profile)
	fmt.Fprintf(out, "  Mounts:   %d auto + %d plain = %d total\n", auto, len(cfg.Mounts)-auto, len(cfg.Mounts))
	fmt.Fprintf(out, "  Projects: %d custom\n", len(cfg.Projects))

	return nil
}
