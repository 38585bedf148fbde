package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// SaveConfig writes cfg as TOML and returns the path written
func SaveConfig(cfg *Config) (string, error) {
	configPath := getConfigPath()

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")

	v.Set(settingBackend.key, cfg.StorageBackend)
	v.Set(settingDataDir.key, cfg.DataDir)
	if cfg.DatabaseURL != "" {
		v.Set(settingDBURL.key, cfg.DatabaseURL)
	}
	if cfg.DatabaseDriver != "" {
		v.Set(settingDBDriver.key, cfg.DatabaseDriver)
	}
	if cfg.S3.Bucket != "" {
		v.Set(settingS3Bucket.key, cfg.S3.Bucket)
		v.Set(settingS3Region.key, cfg.S3.Region)
		v.Set(settingS3Endpt.key, cfg.S3.Endpoint)
		v.Set(settingS3Prefix.key, cfg.S3.Prefix)
		v.Set(settingS3Access.key, cfg.S3.AccessKey)
		v.Set(settingS3Secret.key, cfg.S3.SecretKey)
	}
	if cfg.Port != "" {
		v.Set(settingPort.key, cfg.Port)
	}
	if cfg.APIToken != "" {
		v.Set(settingAPIToken.key, cfg.APIToken)
	}
	v.Set(settingWeekStart.key, strings.ToLower(cfg.WeekStart.String()))
	if cfg.Location != nil {
		v.Set(settingTimezone.key, cfg.Location.String())
	}

	if err := v.WriteConfigAs(configPath); err != nil {
		return "", fmt.Errorf("failed to save config: %w", err)
	}

	// Restrictive permissions: the file may hold database or S3 credentials and the API token.
	if err := os.Chmod(configPath, 0o600); err != nil {
		return "", fmt.Errorf("failed to set config permissions: %w", err)
	}
	return configPath, nil
}

// getConfigPath prefers ./pacer.toml when it exists, then the XDG location
func getConfigPath() string {
	if _, err := os.Stat("pacer.toml"); err == nil {
		return "pacer.toml"
	}
	if dir := configDir(); dir != "" {
		return filepath.Join(dir, "pacer.toml")
	}
	return "pacer.toml"
}
