package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	APIURL         string        `mapstructure:"api_url"` // empty means derive from origin
	Origin         string        `mapstructure:"origin"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	JobsLimit      int           `mapstructure:"jobs_limit"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // 0 keeps the transport default
	LogLevel       string        `mapstructure:"log_level"`       // debug, info, warn, error
	LogFile        string        `mapstructure:"log_file"`
}

const (
	DefaultPollInterval = 30 * time.Second
	DefaultJobsLimit    = 50
	localBackendURL     = "http://localhost:8000"
)

// SettableKeys are the keys accepted by `devapply config set`
var SettableKeys = []string{"api_url", "origin", "poll_interval", "jobs_limit", "request_timeout", "log_level", "log_file"}

var (
	AppConfig *Config
	v         *viper.Viper
)

// Dir returns the directory holding config, local storage and logs.
// DEVAPPLY_HOME overrides the default ~/.devapply.
func Dir() (string, error) {
	if dir := os.Getenv("DEVAPPLY_HOME"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".devapply"), nil
}

// Initialize loads or creates the configuration file
func Initialize() error {
	configDir, err := Dir()
	if err != nil {
		return err
	}
	configFile := filepath.Join(configDir, "config.yaml")

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err := createDefaultConfig(configFile); err != nil {
			return err
		}
	}

	// A missing .env is the normal case
	_ = godotenv.Load()

	v = viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")

	v.SetDefault("api_url", "")
	v.SetDefault("origin", "http://localhost:5173")
	v.SetDefault("poll_interval", DefaultPollInterval.String())
	v.SetDefault("jobs_limit", DefaultJobsLimit)
	v.SetDefault("request_timeout", "0s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", filepath.Join(configDir, "devapply.log"))

	if err := v.BindEnv("api_url", "DEVAPPLY_API_URL", "VITE_API_URL"); err != nil {
		return fmt.Errorf("failed to bind environment: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.JobsLimit <= 0 {
		cfg.JobsLimit = DefaultJobsLimit
	}
	AppConfig = cfg

	return nil
}

// createDefaultConfig creates a default config file
func createDefaultConfig(path string) error {
	defaultConfig := `# DevApply Configuration
# Backend base URL. Leave empty to derive it from origin
# (localhost -> http://localhost:8000, otherwise "frontend" host -> "backend").
api_url: ""
origin: http://localhost:5173

# Dashboard refresh interval and job list size
poll_interval: 30s
jobs_limit: 50

# 0s keeps the HTTP transport default
request_timeout: 0s

log_level: info
`
	return os.WriteFile(path, []byte(defaultConfig), 0600)
}

// Set updates a configuration value
func Set(key, value string) error {
	if !slices.Contains(SettableKeys, key) {
		return fmt.Errorf("invalid key %q, must be one of: %v", key, SettableKeys)
	}
	if err := checkValue(key, value); err != nil {
		return err
	}
	if v == nil {
		return fmt.Errorf("config not initialized")
	}
	v.Set(key, value)
	return v.WriteConfig()
}

var logLevels = []string{"debug", "info", "warn", "warning", "error"}

// checkValue rejects values Initialize could not decode later
func checkValue(key, value string) error {
	switch key {
	case "poll_interval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid value %q for %s: expected a duration such as 30s", value, key)
		}
		if d <= 0 {
			return fmt.Errorf("invalid value %q for %s: must be positive", value, key)
		}
	case "request_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid value %q for %s: expected a duration such as 10s", value, key)
		}
		if d < 0 {
			return fmt.Errorf("invalid value %q for %s: must not be negative", value, key)
		}
	case "jobs_limit":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid value %q for %s: expected a positive integer", value, key)
		}
	case "log_level":
		if !slices.Contains(logLevels, strings.ToLower(strings.TrimSpace(value))) {
			return fmt.Errorf("invalid value %q for %s, must be one of: %v", value, key, logLevels)
		}
	}
	return nil
}

// Get retrieves a configuration value
func Get(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	dir, _ := Dir()
	return filepath.Join(dir, "config.yaml")
}

var portPattern = regexp.MustCompile(`:\d+`)

// ResolveBaseURL picks the backend base URL. An explicit URL always wins;
// otherwise a localhost origin maps to the local backend port and any other
// origin has its port dropped and its "frontend" host part swapped for "backend".
func ResolveBaseURL(apiURL, origin string) string {
	if apiURL = strings.TrimSpace(apiURL); apiURL != "" {
		return strings.TrimRight(apiURL, "/")
	}
	if origin == "" || strings.Contains(origin, "localhost") {
		return localBackendURL
	}
	if u, err := url.Parse(origin); err == nil && u.Host != "" {
		u.Host = strings.Replace(u.Hostname(), "frontend", "backend", 1)
		u.Path = ""
		return strings.TrimRight(u.String(), "/")
	}
	return strings.Replace(portPattern.ReplaceAllString(origin, ""), "frontend", "backend", 1)
}

// BaseURL resolves the backend URL from the loaded configuration
func (c *Config) BaseURL() string {
	return ResolveBaseURL(c.APIURL, c.Origin)
}
