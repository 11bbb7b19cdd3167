package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pollenize/floradex"
	"github.com/pollenize/floradex/config"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// serveCmd starts the floradex host server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the host page and widget API",
	Long: `Serve a floradex host page.

The server will:
  - Load configuration from the specified YAML file
  - Mount a widget on every configured mount point
  - Serve the page, the instance API and the event stream

The server runs until interrupted (Ctrl+C) or receives SIGTERM. All widgets
are destroyed on shutdown.

Example:
  floradex serve -c floradex.yaml
  FLORADEX_BASE_URL=https://dash.example.org/ floradex serve -c floradex.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("config loaded",
		"mounts", len(cfg.Mounts),
		"projects", len(cfg.Projects),
	)

	doc, err := config.BuildDocument(cfg)
	if err != nil {
		return fmt.Errorf("failed to build page: %w", err)
	}

	opts := config.BuildRegistryOptions(cfg, logger)
	if baseURL := viper.GetString("base-url"); baseURL != "" {
		opts = append(opts, floradex.WithBaseURL(baseURL))
	}

	reg, err := floradex.New(doc, opts...)
	if err != nil {
		return fmt.Errorf("failed to create registry: %w", err)
	}

	host, err := floradex.NewHost(reg, floradex.WithPort(cfg.Port), floradex.WithPage(doc))
	if err != nil {
		return fmt.Errorf("failed to create host: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- host.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
