package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration (migrator state + target CMS tables)
	Database DatabaseConfig

	// Source database configuration (read-only legacy views)
	SourceDatabase DatabaseConfig

	// Target CMS REST API configuration
	Target TargetConfig

	// Migration behaviour
	Migration MigrationConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// TargetConfig holds target CMS API settings
type TargetConfig struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// MigrationConfig holds migration run settings
type MigrationConfig struct {
	DefaultAuthorID   int64  // target author used when a source author is unmapped
	DefaultCategoryID int64  // target category force-added when a post has none
	SourceFileRoot    string // filesystem root of the legacy file store
	MinImageDate      time.Time
	TagWorkers        int64 // bounded fan-out width for tag creation
	ProgressEvery     int   // emit a progress log every N records
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 300*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Name:         getEnv("DB_NAME", "cms_migrator"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
		},
		SourceDatabase: DatabaseConfig{
			Host:         getEnv("SOURCE_DB_HOST", "localhost"),
			Port:         getEnv("SOURCE_DB_PORT", "5432"),
			User:         getEnv("SOURCE_DB_USER", "postgres"),
			Password:     getEnv("SOURCE_DB_PASSWORD", "postgres"),
			Name:         getEnv("SOURCE_DB_NAME", "legacy_cms"),
			SSLMode:      getEnv("SOURCE_DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("SOURCE_DB_MAX_OPEN_CONNS", 5),
			MaxIdleConns: getIntEnv("SOURCE_DB_MAX_IDLE_CONNS", 2),
			MaxLifetime:  getDurationEnv("SOURCE_DB_MAX_LIFETIME", 5*time.Minute),
		},
		Target: TargetConfig{
			BaseURL:  getEnv("TARGET_API_URL", ""),
			Username: getEnv("TARGET_API_USER", ""),
			Password: getEnv("TARGET_API_PASSWORD", ""),
			Timeout:  getDurationEnv("TARGET_API_TIMEOUT", 60*time.Second),
		},
		Migration: MigrationConfig{
			DefaultAuthorID:   getInt64Env("DEFAULT_AUTHOR_ID", 1),
			DefaultCategoryID: getInt64Env("DEFAULT_CATEGORY_ID", 0),
			SourceFileRoot:    getEnv("SOURCE_FILE_ROOT", ""),
			MinImageDate:      getDateEnv("MIN_IMAGE_DATE"),
			TagWorkers:        getInt64Env("TAG_WORKERS", 20),
			ProgressEvery:     getIntEnv("PROGRESS_EVERY", 25),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid. Missing credentials are a
// precondition failure: the run must not start without them.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Target.BaseURL == "" {
		return fmt.Errorf("TARGET_API_URL is required")
	}
	if c.Target.Username == "" || c.Target.Password == "" {
		return fmt.Errorf("TARGET_API_USER and TARGET_API_PASSWORD are required")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getDateEnv parses a YYYY-MM-DD value; the zero time disables the filter.
func getDateEnv(key string) time.Time {
	if value := os.Getenv(key); value != "" {
		if t, err := time.Parse("2006-01-02", value); err == nil {
			return t
		}
	}
	return time.Time{}
}
