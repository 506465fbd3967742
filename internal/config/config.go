// Package config loads service configuration and opens the configured database.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/jbweber/homelab/shelf/internal/datastore"
)

const (
	envPrefix         = "SHELF_"
	defaultEnvFile    = ".env"
	defaultConfigFile = "config.yaml"
)

// Config holds all configuration for the shelf service
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Log       LogConfig       `koanf:"log"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
}

type ServerConfig struct {
	Port    int `koanf:"port"`
	Timeout struct {
		Read     time.Duration `koanf:"read"`
		Write    time.Duration `koanf:"write"`
		Idle     time.Duration `koanf:"idle"`
		Shutdown time.Duration `koanf:"shutdown"`
	} `koanf:"timeout"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type DatabaseConfig struct {
	Driver string `koanf:"driver"` // sqlite or postgres
	DSN    string `koanf:"dsn"`    // file path for sqlite, connection URL for postgres
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // console or json
}

// RateLimitConfig bounds requests per client IP on the JSON API. Zero requests disables it.
type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

func defaults() map[string]any {
	return map[string]any{
		"server.port":             8080,
		"server.timeout.read":     10 * time.Second,
		"server.timeout.write":    10 * time.Second,
		"server.timeout.idle":     60 * time.Second,
		"server.timeout.shutdown": 10 * time.Second,
		"database.driver":         string(datastore.SQLite),
		"database.dsn":            "~/shelf/data/shelf.db",
		"log.level":               "info",
		"log.format":              "console",
		"ratelimit.requests":      100,
		"ratelimit.window":        time.Minute,
	}
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	k := koanf.New(".")
	_ = k.Load(confmap.Provider(defaults(), "."), nil)

	var cfg Config
	_ = k.Unmarshal("", &cfg)
	return &cfg
}

// Load layers configuration, lowest priority first: built-in defaults, the YAML file at
// path (config.yaml when empty), a .env file in the working directory, then SHELF_*
// environment variables. The result is validated.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	envFile, err := godotenv.Read(defaultEnvFile)
	switch {
	case err == nil:
		values := make(map[string]any, len(envFile))
		for key, value := range envFile {
			if strings.HasPrefix(strings.ToUpper(key), envPrefix) {
				values[keyTransformer(key)] = value
			}
		}
		if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", defaultEnvFile, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("failed to read %s: %w", defaultEnvFile, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", keyTransformer), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// keyTransformer maps SHELF_SERVER_TIMEOUT_READ to server.timeout.read.
func keyTransformer(key string) string {
	key = strings.TrimPrefix(strings.ToUpper(key), envPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "_", ".")
}

// Validate checks that the configuration can be used to start the service.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Timeout.Read <= 0 {
		return fmt.Errorf("invalid server read timeout: %v", c.Server.Timeout.Read)
	}
	if c.Server.Timeout.Write <= 0 {
		return fmt.Errorf("invalid server write timeout: %v", c.Server.Timeout.Write)
	}
	if c.Server.Timeout.Idle <= 0 {
		return fmt.Errorf("invalid server idle timeout: %v", c.Server.Timeout.Idle)
	}
	if c.Server.Timeout.Shutdown <= 0 {
		return fmt.Errorf("invalid server shutdown timeout: %v", c.Server.Timeout.Shutdown)
	}

	if _, err := datastore.ParseDialect(c.Database.Driver); err != nil {
		return err
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn is not configured")
	}

	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q: want console or json", c.Log.Format)
	}

	if c.RateLimit.Requests < 0 {
		return fmt.Errorf("invalid rate limit requests: %d", c.RateLimit.Requests)
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		return fmt.Errorf("invalid rate limit window: %v", c.RateLimit.Window)
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf("server.port=%d server.timeout.read=%v server.timeout.write=%v server.timeout.idle=%v database.driver=%s database.dsn=%s log.level=%s log.format=%s ratelimit=%d/%v",
		c.Server.Port,
		c.Server.Timeout.Read,
		c.Server.Timeout.Write,
		c.Server.Timeout.Idle,
		c.Database.Driver,
		maskDSN(c.Database.DSN),
		c.Log.Level,
		c.Log.Format,
		c.RateLimit.Requests,
		c.RateLimit.Window)
}

// maskDSN hides credentials in a connection URL.
func maskDSN(dsn string) string {
	if i := strings.LastIndex(dsn, "@"); i >= 0 {
		if j := strings.Index(dsn, "://"); j >= 0 && j < i {
			return dsn[:j+3] + "****" + dsn[i:]
		}
		return "****" + dsn[i:]
	}
	return dsn
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(homeDir, path[2:])
}
