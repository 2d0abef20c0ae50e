// Package config reads the server settings from the environment, loading a
// .env file first when one exists.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string
	LogLevel string
	Database DatabaseConfig
	Auth     AuthConfig
	Refnum   string
	Blob     BlobConfig
}

type DatabaseConfig struct {
	Driver string
	DSN    string
}

type AuthConfig struct {
	JWTSecret string
}

// BlobConfig selects the attachment store. S3 fields are only read for the
// s3 driver.
type BlobConfig struct {
	Driver    string
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool
	PublicURL string
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() (*Config, error) {
	pathStyle, err := getBool("FLEET_BLOB_S3_PATH_STYLE", false)
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		Env:      getEnv("FLEET_ENV", "development"),
		HTTPAddr: getEnv("FLEET_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel: getEnv("FLEET_LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Driver: getEnv("FLEET_DB_DRIVER", "postgres"),
			DSN:    getEnv("FLEET_DB_DSN", os.Getenv("POSTGRES_CONN")),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("FLEET_JWT_SECRET"),
		},
		Refnum: getEnv("FLEET_REFNUM_SCHEME", "sequence"),
		Blob: BlobConfig{
			Driver:    getEnv("FLEET_BLOB_DRIVER", "memory"),
			Bucket:    os.Getenv("FLEET_BLOB_S3_BUCKET"),
			Region:    getEnv("FLEET_BLOB_S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("FLEET_BLOB_S3_ENDPOINT"),
			PathStyle: pathStyle,
			PublicURL: os.Getenv("FLEET_BLOB_PUBLIC_URL"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("FLEET_DB_DRIVER: unsupported driver %q", c.Database.Driver)
	}
	switch c.Refnum {
	case "sequence", "clock":
	default:
		return fmt.Errorf("FLEET_REFNUM_SCHEME: unknown scheme %q", c.Refnum)
	}
	switch c.Blob.Driver {
	case "memory":
	case "s3":
		if c.Blob.Bucket == "" {
			return fmt.Errorf("FLEET_BLOB_S3_BUCKET is required for the s3 blob driver")
		}
	default:
		return fmt.Errorf("FLEET_BLOB_DRIVER: unknown driver %q", c.Blob.Driver)
	}
	return nil
}

// RequireServe checks the settings only the HTTP server needs.
func (c *Config) RequireServe() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("FLEET_DB_DSN (or POSTGRES_CONN) is not set")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("FLEET_JWT_SECRET is not set")
	}
	return nil
}

func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
