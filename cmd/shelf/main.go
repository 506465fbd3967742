//go:build !test

// Command shelf serves the product catalog.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jbweber/homelab/shelf/internal/app"
	"github.com/jbweber/homelab/shelf/internal/config"
	"github.com/jbweber/homelab/shelf/internal/datastore"
	"github.com/jbweber/homelab/shelf/internal/logging"
	"github.com/jbweber/homelab/shelf/internal/migrations"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "shelf",
		Short:         "Product catalog service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file (default config.yaml)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDatastore(cmd.Context(), configPath, func(cfg *config.Config, ds *datastore.Datastore, logger zerolog.Logger) error {
					a, err := app.New(cfg, ds, logger)
					if err != nil {
						return err
					}
					return a.Run(cmd.Context())
				})
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDatastore(cmd.Context(), configPath, func(_ *config.Config, ds *datastore.Datastore, logger zerolog.Logger) error {
					version, err := migrations.NewMigrator(ds.DB, ds.Dialect).GetCurrentVersion()
					if err != nil {
						return err
					}
					logger.Info().Int64("version", version).Msg("database is up to date")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Insert demo categories and products into an empty database",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDatastore(cmd.Context(), configPath, func(_ *config.Config, ds *datastore.Datastore, logger zerolog.Logger) error {
					seeded, err := datastore.Seed(cmd.Context(), ds)
					if err != nil {
						return err
					}
					logger.Info().Bool("seeded", seeded).Msg("seed finished")
					return nil
				})
			},
		},
	)

	return root
}

// withDatastore loads configuration, opens and migrates the database, and runs fn.
func withDatastore(ctx context.Context, configPath string, fn func(*config.Config, *datastore.Datastore, zerolog.Logger) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logger.Info().Stringer("config", cfg).Msg("configuration loaded")

	ds, err := cfg.InitializeDatabase(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := ds.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close database")
		}
	}()

	return fn(cfg, ds, logger)
}
