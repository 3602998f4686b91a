package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/andy/docket/internal/logger"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	// Database settings
	Database DatabaseConfig `yaml:"database"`

	// Which entry store backs the timer
	Store StoreConfig `yaml:"store"`

	// Redis settings (store.backend = redis)
	Redis RedisConfig `yaml:"redis"`

	// The attorney whose timer this is
	User UserConfig `yaml:"user"`

	Timer  TimerConfig  `yaml:"timer"`
	Log    LogConfig    `yaml:"log"`
	Server ServerConfig `yaml:"server"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"` // Path to SQLite database
}

type StoreConfig struct {
	Backend string `yaml:"backend"` // "sqlite" | "redis"
}

type RedisConfig struct {
	Addr           string        `yaml:"addr"` // ex: "localhost:6379"
	Username       string        `yaml:"username"`
	DB             int           `yaml:"db"`
	KeyPrefix      string        `yaml:"key_prefix"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	PoolSize       int           `yaml:"pool_size"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"` // total time to retry connecting
	RetryInterval  time.Duration `yaml:"retry_interval"`  // initial wait between retries, doubles
	MaxWait        time.Duration `yaml:"max_wait"`        // cap on the wait between retries
}

type UserConfig struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

type TimerConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"` // display recompute
	PollInterval time.Duration `yaml:"poll_interval"` // refetch when the store has no change feed
}

type LogConfig struct {
	Level      string `yaml:"level"` // "debug" | "info" | "warn" | "error"
	Pretty     bool   `yaml:"pretty"`
	File       string `yaml:"file"` // empty = stderr
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type ServerConfig struct {
	Listen          string        `yaml:"listen"` // ex: "127.0.0.1:7878"
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DefaultDir returns ~/.config/docket
func DefaultDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home dir unavailable
		return filepath.Join(".", ".config", "docket")
	}
	return filepath.Join(homeDir, ".config", "docket")
}

// DefaultConfigPath returns ~/.config/docket/config.yaml
func DefaultConfigPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	dir := DefaultDir()

	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(dir, "docket.db"),
		},
		Store: StoreConfig{
			Backend: BackendSQLite,
		},
		Redis: RedisConfig{
			Addr:           "localhost:6379",
			KeyPrefix:      "docket",
			DialTimeout:    5 * time.Second,
			ReadTimeout:    3 * time.Second,
			WriteTimeout:   3 * time.Second,
			PoolSize:       10,
			ConnectTimeout: 30 * time.Second,
			RetryInterval:  2 * time.Second,
			MaxWait:        10 * time.Second,
		},
		Timer: TimerConfig{
			TickInterval: time.Second,
			PollInterval: 5 * time.Second,
		},
		Log: LogConfig{
			Level:      "info",
			File:       filepath.Join(dir, "docket.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Server: ServerConfig{
			Listen:          "127.0.0.1:7878",
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

// Load loads config from the given path, or returns defaults if file doesn't exist.
// DOCKET_* environment variables override the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// defaults
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.User.ID = getenv("DOCKET_USER_ID", c.User.ID)
	c.Store.Backend = getenv("DOCKET_STORE_BACKEND", c.Store.Backend)
	c.Database.Path = getenv("DOCKET_DB_PATH", c.Database.Path)
	c.Redis.Addr = getenv("DOCKET_REDIS_ADDR", c.Redis.Addr)
	c.Log.Level = getenv("DOCKET_LOG_LEVEL", c.Log.Level)
	c.Log.File = getenv("DOCKET_LOG_FILE", c.Log.File)
	c.Server.Listen = getenv("DOCKET_LISTEN", c.Server.Listen)

	if v := os.Getenv("DOCKET_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DOCKET_REDIS_DB %q: %w", v, err)
		}
		c.Redis.DB = n
	}
	return nil
}

// Validate returns an error if the configuration cannot be used
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite backend")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q (want %q or %q)", c.Store.Backend, BackendSQLite, BackendRedis)
	}
	if c.Timer.TickInterval <= 0 {
		return fmt.Errorf("timer.tick_interval must be positive")
	}
	if c.Timer.PollInterval <= 0 {
		return fmt.Errorf("timer.poll_interval must be positive")
	}
	if !logger.ValidLevel(c.Log.Level) {
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	return nil
}

// Save writes the config to the given path
func (c *Config) Save(path string) error {
	// Create parent directories if they don't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// EnsureDirectories creates all necessary directories (database, log file)
func (c *Config) EnsureDirectories() error {
	if c.Store.Backend == BackendSQLite {
		if err := os.MkdirAll(filepath.Dir(c.Database.Path), 0755); err != nil {
			return err
		}
	}

	if c.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.Log.File), 0755); err != nil {
			return err
		}
	}

	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
