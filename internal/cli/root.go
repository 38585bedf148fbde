package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seuros/pacer/internal/app"
	"github.com/seuros/pacer/internal/config"
	"github.com/seuros/pacer/internal/logging"
)

// Version is set at build time
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "pacer",
	Short: "Track fitness goals and the progress toward them",
	Long: `pacer tracks fitness goals, records progress toward them and reports
completion and pacing.

Progress comes from manual entries, workout event feeds (JSON or NDJSON) and
FIT activity files. Goals and progress are stored in a local data directory,
a SQL database or an S3 bucket.`,
	SilenceUsage: true,
	Version:      Version,
}

// Global flags
var (
	flagBackend string
	flagDataDir string
	flagFormat  string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "storage backend: file, sql, s3 or memory")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory for the file backend")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "", "output format: table, json or yaml (default: table on a terminal, json otherwise)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(goalCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(workoutCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(initCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig and openApp are variables so tests can substitute them.
var loadConfig = func(portFlag string) (*config.Config, error) {
	return config.LoadWithOverrides(flagBackend, flagDataDir, portFlag)
}

var openApp = func(ctx context.Context, cfg *config.Config) (*app.App, error) {
	return app.New(ctx, cfg, newLogger(cfg))
}

func newLogger(cfg *config.Config) *zap.Logger {
	return logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Source: cfg.LogSource,
	})
}

// withApp loads configuration, opens the app and closes it after fn returns
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := loadConfig("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
		_ = a.Logger.Sync()
	}()

	return fn(ctx, a)
}
