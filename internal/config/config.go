package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"trailfee/pkg/trailfee"
)

// Environment variables read by Load.
const (
	EnvHost             = "TRAILFEE_HOST"
	EnvPort             = "TRAILFEE_PORT"
	EnvLogDir           = "TRAILFEE_LOG_DIR"
	EnvLogRetentionDays = "TRAILFEE_LOG_RETENTION_DAYS"
	EnvMaxUploadMB      = "TRAILFEE_MAX_UPLOAD_MB"
	EnvDefaultBps       = "TRAILFEE_DEFAULT_BPS"
	EnvCORSOrigins      = "TRAILFEE_CORS_ORIGINS"
)

const appName = "TrailFee"

// Config holds the runtime settings of the server.
type Config struct {
	Host             string
	Port             int
	LogDir           string
	LogRetentionDays int
	MaxUploadBytes   int64
	DefaultBps       decimal.Decimal
	CORSOrigins      []string
}

// Addr returns host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads configuration from a .env file in the working directory, if
// any, then from the environment. Variables already set in the
// environment win over the .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return fromEnv(os.Getenv)
}

// LoadFile is like Load but reads the given .env files, which must exist.
// Non-empty environment variables still win over the files.
func LoadFile(paths ...string) (*Config, error) {
	values, err := godotenv.Read(paths...)
	if err != nil {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	return fromEnv(func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return values[key]
	})
}

type lookupFunc func(key string) string

func fromEnv(lookup lookupFunc) (*Config, error) {
	getEnv := lookup.get
	getEnvInt := lookup.getInt
	cfg := &Config{
		Host:        getEnv(EnvHost, "127.0.0.1"),
		LogDir:      getEnv(EnvLogDir, ""),
		CORSOrigins: splitList(getEnv(EnvCORSOrigins, "")),
	}

	var err error
	if cfg.Port, err = getEnvInt(EnvPort, 8000); err != nil {
		return nil, err
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("%s: port %d out of range", EnvPort, cfg.Port)
	}
	if cfg.LogRetentionDays, err = getEnvInt(EnvLogRetentionDays, 7); err != nil {
		return nil, err
	}
	maxMB, err := getEnvInt(EnvMaxUploadMB, 32)
	if err != nil {
		return nil, err
	}
	if maxMB <= 0 {
		return nil, fmt.Errorf("%s: must be positive, got %d", EnvMaxUploadMB, maxMB)
	}
	cfg.MaxUploadBytes = int64(maxMB) << 20

	cfg.DefaultBps = trailfee.DefaultFlatBps
	if raw := getEnv(EnvDefaultBps, ""); raw != "" {
		bps, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvDefaultBps, err)
		}
		if err := trailfee.ValidateFlatBps(bps); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvDefaultBps, err)
		}
		cfg.DefaultBps = bps
	}
	return cfg, nil
}

// DefaultLogDir returns the per-user log directory of the application.
func DefaultLogDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Logs", appName), nil
	case "windows":
		appData := os.Getenv("LOCALAPPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = home
		}
		return filepath.Join(appData, appName, "logs"), nil
	}
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, "trailfee"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "trailfee"), nil
}

func (lookup lookupFunc) get(key, defaultValue string) string {
	value := strings.TrimSpace(lookup(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func (lookup lookupFunc) getInt(key string, defaultValue int) (int, error) {
	value := lookup.get(key, "")
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, value)
	}
	return i, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
