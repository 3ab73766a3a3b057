package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	applog "shoplist/internal/log"
)

type Config struct {
	// HTTP Server
	Port string

	// Storage backend selection
	DataBackend  string
	DataDir      string
	SQLiteDBPath string

	// Store
	SaveTimeout time.Duration

	// Presentation
	LogLevel  string
	ExportDir string
}

// Backends lists the accepted DATA_BACKEND values.
var Backends = []string{"memory", "file", "sqlite"}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", "file"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/shoplist.db"),

		SaveTimeout: getEnvDuration("STORE_SAVE_TIMEOUT", 5*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		ExportDir: getEnv("EXPORT_DIR", "."),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(Backends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, Backends))
	}

	switch c.DataBackend {
	case "file":
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using file backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.SaveTimeout < 10*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid store save timeout %v: must be at least 10ms", c.SaveTimeout))
	} else if c.SaveTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid store save timeout %v: must be at most 1 minute", c.SaveTimeout))
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if c.ExportDir == "" {
		errors = append(errors, "export directory cannot be empty")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
