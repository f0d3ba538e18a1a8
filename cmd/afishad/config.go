package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/afisha"
	"github.com/dukerupert/afisha/internal/imaging"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Host            string
	Port            int
	Environment     string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Database settings
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Store settings
	StoreBaseDir     string
	StorePublicURL   string
	StoreImageSubdir string
	StoreDirFanout   int
	StoreFileFanout  int
	StoreMaxPixels   int64

	// Replica settings
	ReplicaProvider string
	S3Bucket        string
	S3Region        string
	S3Prefix        string

	// Upload settings
	UploadMaxBytes int64
	UploadRate     float64
	UploadBurst    int
}

// LoadConfig loads configuration from environment variables.
func LoadConfig(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		// Server settings
		Host:            envString(getenv, "SERVER_HOST", "localhost"),
		Port:            envInt(getenv, "SERVER_PORT", 8080),
		Environment:     envString(getenv, "ENVIRONMENT", "dev"),
		LogLevel:        envString(getenv, "LOG_LEVEL", "info"),
		ShutdownTimeout: envDuration(getenv, "SHUTDOWN_TIMEOUT", 10*time.Second),

		// Database settings
		DBUser:     envString(getenv, "DB_USER", "postgres"),
		DBPassword: envString(getenv, "DB_PASSWORD", ""),
		DBHost:     envString(getenv, "DB_HOSTNAME", "localhost"),
		DBPort:     envString(getenv, "DB_PORT", "5432"),
		DBName:     envString(getenv, "DB_NAME", "postgres"),

		// Store settings
		StoreBaseDir:     envString(getenv, "STORE_BASE_DIR", "./media"),
		StorePublicURL:   envString(getenv, "STORE_PUBLIC_URL", "http://localhost:8080/media"),
		StoreImageSubdir: envString(getenv, "STORE_IMAGE_SUBDIR", "images"),
		StoreDirFanout:   envInt(getenv, "STORE_DIR_FANOUT", afisha.DefaultDirFanout),
		StoreFileFanout:  envInt(getenv, "STORE_FILE_FANOUT", afisha.DefaultFileFanout),
		StoreMaxPixels:   int64(envInt(getenv, "STORE_MAX_PIXELS", imaging.DefaultMaxPixels)),

		// Replica settings
		ReplicaProvider: envString(getenv, "REPLICA_PROVIDER", "none"),
		S3Bucket:        envString(getenv, "S3_BUCKET", ""),
		S3Region:        envString(getenv, "S3_REGION", "us-east-1"),
		S3Prefix:        envString(getenv, "S3_PREFIX", ""),

		// Upload settings
		UploadMaxBytes: int64(envInt(getenv, "UPLOAD_MAX_BYTES", 10*1024*1024)),
		UploadRate:     envFloat(getenv, "UPLOAD_RATE", 2),
		UploadBurst:    envInt(getenv, "UPLOAD_BURST", 10),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DatabaseURL returns the PostgreSQL connection string.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "prod" || c.Environment == "production"
}

// StoreConfig returns the image store configuration with an absolute base
// directory.
func (c *Config) StoreConfig() (afisha.StoreConfig, error) {
	baseDir, err := filepath.Abs(c.StoreBaseDir)
	if err != nil {
		return afisha.StoreConfig{}, fmt.Errorf("resolving STORE_BASE_DIR: %w", err)
	}

	replica := c.ReplicaProvider
	if replica == "none" {
		replica = ""
	}

	return afisha.StoreConfig{
		BaseDir:         baseDir,
		PublicURLPrefix: c.StorePublicURL,
		ImageSubdir:     c.StoreImageSubdir,
		DirFanout:       c.StoreDirFanout,
		FileFanout:      c.StoreFileFanout,
		ReplicaProvider: replica,
		S3Bucket:        c.S3Bucket,
		S3Region:        c.S3Region,
		S3Prefix:        c.S3Prefix,
	}, nil
}

// validate checks settings the store and replica cannot default.
func (c *Config) validate() error {
	switch c.ReplicaProvider {
	case "none", "":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET must be set when REPLICA_PROVIDER is s3")
		}
	default:
		return fmt.Errorf("unknown REPLICA_PROVIDER %q (want none or s3)", c.ReplicaProvider)
	}

	if c.StoreDirFanout < 1 || c.StoreFileFanout < 1 {
		return fmt.Errorf("STORE_DIR_FANOUT and STORE_FILE_FANOUT must be positive")
	}
	if c.StoreMaxPixels < 1 {
		return fmt.Errorf("STORE_MAX_PIXELS must be positive")
	}

	if c.IsProduction() && strings.Contains(c.StorePublicURL, "localhost") {
		return fmt.Errorf("STORE_PUBLIC_URL must be set in production environment")
	}
	return nil
}

// Helper functions for loading environment variables with defaults.

func envString(getenv func(string) string, key, defaultValue string) string {
	if value := getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(getenv func(string) string, key string, defaultValue int) int {
	if value := getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func envFloat(getenv func(string) string, key string, defaultValue float64) float64 {
	if value := getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func envDuration(getenv func(string) string, key string, defaultValue time.Duration) time.Duration {
	if value := getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
