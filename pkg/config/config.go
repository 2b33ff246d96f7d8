// Package config reads runtime configuration from the environment, after an
// optional .env file has been loaded.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Supported key-value backends
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config is the full runtime configuration of the settings screen and its CLI
type Config struct {
	Title string

	Backend       string
	DataDir       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Namespace     string

	PortalEnabled bool
	PortalAddr    string
	PortalPort    int

	S3Bucket string
	S3Prefix string
	S3Region string

	LogLevel string
	LogPath  string
}

// LoadDotEnv loads the given .env files, or ./.env when none are given.
// Only the implicit ./.env may be missing.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Load builds a Config from environment variables, falling back to defaults
func Load() Config {
	dataDir := getEnv("SETTINGS_DATA_DIR", defaultDataDir())

	return Config{
		Title: getEnv("GAME_TITLE", "Settings"),

		Backend:       strings.ToLower(getEnv("SETTINGS_BACKEND", BackendBadger)),
		DataDir:       dataDir,
		RedisAddr:     getEnv("SETTINGS_REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("SETTINGS_REDIS_PASSWORD"),
		RedisDB:       getEnvInt("SETTINGS_REDIS_DB", 0),
		Namespace:     getEnv("SETTINGS_NAMESPACE", "flow-settings"),

		PortalEnabled: getEnvBool("SETTINGS_PORTAL_ENABLED", true),
		PortalAddr:    getEnv("SETTINGS_PORTAL_ADDR", "0.0.0.0"),
		PortalPort:    getEnvInt("SETTINGS_PORTAL_PORT", 8080),

		S3Bucket: os.Getenv("SETTINGS_S3_BUCKET"),
		S3Prefix: getEnv("SETTINGS_S3_PREFIX", "flow-settings/"),
		S3Region: os.Getenv("AWS_DEFAULT_REGION"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", filepath.Join(dataDir, "logs", "settings.log")),
	}
}

// Validate reports configuration that cannot work
func (c Config) Validate() error {
	switch c.Backend {
	case BackendBadger, BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q (supported: badger, sqlite, redis, memory)", c.Backend)
	}

	if (c.Backend == BackendBadger || c.Backend == BackendSQLite) && c.DataDir == "" {
		return fmt.Errorf("backend %s requires SETTINGS_DATA_DIR", c.Backend)
	}
	if c.Backend == BackendRedis && c.RedisAddr == "" {
		return errors.New("backend redis requires SETTINGS_REDIS_ADDR")
	}
	if c.PortalEnabled && (c.PortalPort <= 0 || c.PortalPort > 65535) {
		return fmt.Errorf("invalid portal port %d", c.PortalPort)
	}
	return nil
}

// BackupEnabled reports whether an S3 bucket is configured
func (c Config) BackupEnabled() bool {
	return c.S3Bucket != ""
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "flow-settings")
	}
	return "data"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
