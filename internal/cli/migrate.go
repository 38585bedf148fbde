package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seuros/pacer/internal/config"
	"github.com/seuros/pacer/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply SQL schema migrations",
	Long: `Create or update the blobs table used by the sql storage backend.

Examples:
  pacer migrate --backend sql
  DATABASE_URL=postgres://pacer@localhost/pacer PACER_DB_DRIVER=pgx pacer migrate --backend sql
  pacer migrate --backend sql --down`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(migrateDown)
	},
}

var migrateDown bool

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "roll back the most recent migration")
}

func runMigrate(down bool) error {
	cfg, err := loadConfig("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.StorageBackend != config.BackendSQL {
		return fmt.Errorf("migrations only apply to the sql backend (current backend: %s)", cfg.StorageBackend)
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	if down {
		if err := database.MigrateDown(db, cfg.DatabaseDriver, logger); err != nil {
			return err
		}
		fmt.Println("Rolled back one migration")
		return nil
	}

	if err := database.Migrate(db, cfg.DatabaseDriver, logger); err != nil {
		return err
	}
	fmt.Println("Database schema is up to date")
	return nil
}
