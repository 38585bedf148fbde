package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendFile   = "file"
	BackendSQL    = "sql"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

// Config holds the resolved runtime configuration
type Config struct {
	StorageBackend string
	DataDir        string
	DatabaseURL    string
	DatabaseDriver string
	S3             S3Config
	Port           string
	APIToken       string
	WeekStart      time.Weekday
	Location       *time.Location
	LogLevel       string
	LogFormat      string
	LogSource      bool
}

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
}

// setting binds a config file key to its environment variable and default
type setting struct {
	key string
	env string
	def string
}

var (
	settingBackend   = setting{"storage.backend", "PACER_STORAGE_BACKEND", BackendFile}
	settingDataDir   = setting{"storage.dir", "PACER_DATA_DIR", "./data"}
	settingDBURL     = setting{"database_url", "DATABASE_URL", ""}
	settingDBDriver  = setting{"database_driver", "PACER_DB_DRIVER", "sqlite"}
	settingS3Bucket  = setting{"s3.bucket", "PACER_S3_BUCKET", ""}
	settingS3Region  = setting{"s3.region", "PACER_S3_REGION", "us-east-1"}
	settingS3Endpt   = setting{"s3.endpoint", "PACER_S3_ENDPOINT", ""}
	settingS3Access  = setting{"s3.access_key", "PACER_S3_ACCESS_KEY", ""}
	settingS3Secret  = setting{"s3.secret_key", "PACER_S3_SECRET_KEY", ""}
	settingS3Prefix  = setting{"s3.prefix", "PACER_S3_PREFIX", ""}
	settingPort      = setting{"server.port", "PORT", "3000"}
	settingAPIToken  = setting{"server.api_token", "PACER_API_TOKEN", ""}
	settingWeekStart = setting{"week_start", "PACER_WEEK_START", "monday"}
	settingTimezone  = setting{"timezone", "PACER_TIMEZONE", "Local"}
	settingLogLevel  = setting{"log.level", "PACER_LOG_LEVEL", "info"}
	settingLogFormat = setting{"log.format", "PACER_LOG_FORMAT", "console"}
	settingLogSource = setting{"log.source", "PACER_LOG_SOURCE", "false"}
)

// Load reads configuration from the config file, environment and defaults
func Load() (*Config, error) {
	return LoadWithOverrides("", "", "")
}

// LoadWithOverrides resolves configuration with precedence
// flag > config file > environment > default.
func LoadWithOverrides(backendFlag, dataDirFlag, portFlag string) (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	v := newBaseViper()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	get := func(s setting) string {
		if v.InConfig(s.key) {
			return v.GetString(s.key)
		}
		if value, ok := os.LookupEnv(s.env); ok && value != "" {
			return value
		}
		return s.def
	}
	override := func(flag string, s setting) string {
		if flag != "" {
			return flag
		}
		return get(s)
	}

	cfg := &Config{
		StorageBackend: strings.ToLower(override(backendFlag, settingBackend)),
		DataDir:        override(dataDirFlag, settingDataDir),
		DatabaseURL:    get(settingDBURL),
		DatabaseDriver: get(settingDBDriver),
		S3: S3Config{
			Bucket:    get(settingS3Bucket),
			Region:    get(settingS3Region),
			Endpoint:  get(settingS3Endpt),
			AccessKey: get(settingS3Access),
			SecretKey: get(settingS3Secret),
			Prefix:    get(settingS3Prefix),
		},
		Port:      override(portFlag, settingPort),
		APIToken:  get(settingAPIToken),
		LogLevel:  get(settingLogLevel),
		LogFormat: get(settingLogFormat),
		LogSource: strings.EqualFold(get(settingLogSource), "true"),
	}

	switch cfg.StorageBackend {
	case BackendFile, BackendSQL, BackendS3, BackendMemory:
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	if cfg.StorageBackend == BackendSQL && cfg.DatabaseURL == "" {
		cfg.DatabaseURL = filepath.Join(cfg.DataDir, "pacer.db")
	}

	weekStart, err := ParseWeekday(get(settingWeekStart))
	if err != nil {
		return nil, err
	}
	cfg.WeekStart = weekStart

	loc, err := ParseLocation(get(settingTimezone))
	if err != nil {
		return nil, err
	}
	cfg.Location = loc

	return cfg, nil
}

// ParseWeekday accepts full or three-letter English day names
func ParseWeekday(value string) (time.Weekday, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for day := time.Sunday; day <= time.Saturday; day++ {
		name := strings.ToLower(day.String())
		if normalized == name || normalized == name[:3] {
			return day, nil
		}
	}
	return time.Monday, fmt.Errorf("invalid week_start %q", value)
}

// ParseLocation resolves an IANA zone name; empty and "Local" mean the host zone
func ParseLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

func newBaseViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("pacer")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	if dir := configDir(); dir != "" {
		v.AddConfigPath(dir)
	}
	return v
}

func configDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configHome = filepath.Join(home, ".config")
		}
	}
	if configHome == "" {
		return ""
	}
	return filepath.Join(configHome, "pacer")
}
