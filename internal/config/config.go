package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/cesargomez89/songplays/internal/constants"
)

// Config holds all application configuration
type Config struct {
	DBDriver    string
	DBPath      string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBAdminName string
	DBSSLMode   string
	SongDataDir string
	LogDataDir  string
	LogLevel    string
	LogFormat   string
}

// Load loads configuration from environment variables with defaults.
// A .env file in the working directory is read first when present;
// variables already set in the environment take precedence over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBDriver:    getEnv("DB_DRIVER", constants.DefaultDBDriver),
		DBPath:      getEnv("DB_PATH", constants.DefaultDBPath),
		DBHost:      getEnv("DB_HOST", constants.DefaultDBHost),
		DBPort:      getEnv("DB_PORT", constants.DefaultDBPort),
		DBUser:      getEnv("DB_USER", constants.DefaultDBUser),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBName:      getEnv("DB_NAME", constants.DefaultDBName),
		DBAdminName: getEnv("DB_ADMIN_NAME", constants.DefaultDBAdminName),
		DBSSLMode:   getEnv("DB_SSLMODE", constants.DefaultDBSSLMode),
		SongDataDir: getEnv("SONG_DATA_DIR", constants.DefaultSongDataDir),
		LogDataDir:  getEnv("LOG_DATA_DIR", constants.DefaultLogDataDir),
		LogLevel:    getEnv("LOG_LEVEL", constants.DefaultLogLevel),
		LogFormat:   getEnv("LOG_FORMAT", constants.DefaultLogFormat),
	}
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	switch c.DBDriver {
	case constants.DriverSQLite:
		if c.DBPath == "" {
			errors = append(errors, "DB_PATH cannot be empty")
		}
	case constants.DriverPostgres:
		if c.DBHost == "" {
			errors = append(errors, "DB_HOST cannot be empty")
		}
		if c.DBPort == "" {
			errors = append(errors, "DB_PORT cannot be empty")
		} else {
			port, err := strconv.Atoi(c.DBPort)
			if err != nil {
				errors = append(errors, fmt.Sprintf("DB_PORT must be a valid number, got: %s", c.DBPort))
			} else if port < 1 || port > 65535 {
				errors = append(errors, fmt.Sprintf("DB_PORT must be between 1 and 65535, got: %d", port))
			}
		}
		if c.DBUser == "" {
			errors = append(errors, "DB_USER cannot be empty")
		}
		if c.DBName == "" {
			errors = append(errors, "DB_NAME cannot be empty")
		}
		if c.DBAdminName == "" {
			errors = append(errors, "DB_ADMIN_NAME cannot be empty")
		} else if c.DBAdminName == c.DBName {
			errors = append(errors, "DB_ADMIN_NAME must differ from DB_NAME")
		}
	default:
		errors = append(errors, fmt.Sprintf("DB_DRIVER must be one of: sqlite, postgres, got: %s", c.DBDriver))
	}

	if c.SongDataDir == "" {
		errors = append(errors, "SONG_DATA_DIR cannot be empty")
	}
	if c.LogDataDir == "" {
		errors = append(errors, "LOG_DATA_DIR cannot be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// PostgresDSN builds a keyword/value connection string for the named database.
func (c *Config) PostgresDSN(dbName string) string {
	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, dbName, c.DBSSLMode)
	if c.DBPassword != "" {
		dsn += fmt.Sprintf(" password=%s", c.DBPassword)
	}
	return dsn
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
