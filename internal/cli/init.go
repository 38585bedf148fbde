package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seuros/pacer/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a pacer.toml with the current settings",
	Long: `Write the effective configuration (defaults, environment and flags)
to pacer.toml so later runs pick it up.

Examples:
  pacer init --backend sql --data-dir /var/lib/pacer
  pacer init --week-start sunday --timezone Europe/Berlin`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(initWeekStart, initTimezone)
	},
}

var (
	initWeekStart string
	initTimezone  string
)

func init() {
	initCmd.Flags().StringVar(&initWeekStart, "week-start", "", "first day of weekly goals")
	initCmd.Flags().StringVar(&initTimezone, "timezone", "", "IANA time zone for period boundaries")
}

// saveConfig is a variable so tests can capture the written configuration.
var saveConfig = config.SaveConfig

func runInit(weekStart, timezone string) error {
	cfg, err := loadConfig("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if weekStart != "" {
		day, err := config.ParseWeekday(weekStart)
		if err != nil {
			return err
		}
		cfg.WeekStart = day
	}
	if timezone != "" {
		loc, err := config.ParseLocation(timezone)
		if err != nil {
			return err
		}
		cfg.Location = loc
	}

	path, err := saveConfig(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("Configuration written to %s\n", path)
	return nil
}
