// Package cmd defines the CLI commands for the lead-enricher executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/lead-enricher/internal/app"
	"github.com/JakeFAU/lead-enricher/internal/config"
	"github.com/JakeFAU/lead-enricher/internal/logging"
)

var cfgFile string

// newApp is the service factory. Tests replace it to inject fakes.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app.App, error) {
	return app.New(ctx, cfg, logger, app.Options{})
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lead-enricher",
		Short: "Enriches companies with contacts and likely business problems.",
		Long: `lead-enricher resolves a company's website from a domain or name, crawls its
homepage and contact/careers pages, and reports emails, phone numbers and
inferred business problems.`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			// A missing .env is normal outside local development.
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a config file (env vars use the ENRICHER_ prefix)")
	cmd.AddCommand(newServeCmd(), newEnrichCmd())
	return cmd
}

// session bundles what every command needs after bootstrapping.
type session struct {
	cfg    config.Config
	logger *zap.Logger
	app    *app.App
}

func bootstrap(ctx context.Context) (*session, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("init services: %w", err)
	}
	return &session{cfg: cfg, logger: logger, app: a}, nil
}

func (r *session) close() {
	if err := r.app.Close(); err != nil {
		r.logger.Warn("close services failed", zap.Error(err))
	}
	// Sync on stderr-backed loggers returns EINVAL on some platforms.
	_ = r.logger.Sync()
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
