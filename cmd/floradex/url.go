package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pollenize/floradex"
	"github.com/pollenize/floradex/config"
	"github.com/pollenize/floradex/page"
)

// urlFlags maps command-line flags onto widget attribute names.
var urlFlags = map[string]string{
	"project":    "project",
	"theme":      "theme",
	"postcode":   "postcode",
	"distance":   "distance",
	"tab":        "tab",
	"start-year": "start-year",
	"end-year":   "end-year",
}

// urlCmd prints the dashboard URL for a set of attributes.
var urlCmd = &cobra.Command{
	Use:   "url",
	Short: "Print the dashboard URL for a widget",
	Long: `Resolve widget attributes and print the dashboard URL a widget would load.

The project must be known, either built in or declared in the config file.

Example:
  floradex url --project bodmin-airfield --theme dark --postcode PL30
  floradex url -c floradex.yaml --project st-austell-meadow --json`,
	RunE: runURL,
}

func init() {
	rootCmd.AddCommand(urlCmd)

	urlCmd.Flags().StringP("config", "c", "", "path to config file")
	urlCmd.Flags().String("profile", "", "attribute profile (full or minimal)")
	for flag := range urlFlags {
		urlCmd.Flags().String(flag, "", fmt.Sprintf("widget %s attribute", flag))
	}
}

func runURL(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry(cmd)
	if err != nil {
		return err
	}

	attrs := make(map[string]string)
	for flag, attr := range urlFlags {
		if cmd.Flags().Changed(flag) {
			v, _ := cmd.Flags().GetString(flag)
			attrs[attr] = v
		}
	}

	target, err := reg.PreviewTarget(attrs)
	if err != nil {
		return err
	}

	if viper.GetBool("json") {
		return printJSON(cmd.OutOrStdout(), map[string]string{"target": target})
	}
	fmt.Fprintln(cmd.OutOrStdout(), target)
	return nil
}

// loadRegistry builds a registry over an empty page from the optional
// --config file and the global flags. It never mounts widgets.
func loadRegistry(cmd *cobra.Command) (*floradex.Registry, error) {
	cfg := &config.Config{}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	doc, err := page.New(cfg.Title)
	if err != nil {
		return nil, err
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := config.BuildRegistryOptions(cfg, quiet)
	if baseURL := viper.GetString("base-url"); baseURL != "" {
		opts = append(opts, floradex.WithBaseURL(baseURL))
	}
	if f := cmd.Flags().Lookup("profile"); f != nil && f.Changed {
		opts = append(opts, floradex.WithProfile(floradex.Profile(f.Value.String())))
	}

	return floradex.New(doc, opts...)
}
