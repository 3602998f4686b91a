package app

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/andy/docket/internal/config"
	"github.com/andy/docket/internal/crypto"
	"github.com/andy/docket/internal/db"
	"github.com/andy/docket/internal/logger"
	"github.com/andy/docket/internal/redisstore"
	"github.com/andy/docket/internal/repository"
	"github.com/andy/docket/internal/service"
)

// App is the dependency injection container for all application components
type App struct {
	Config *config.Config
	Logger logger.Logger
	DB     *db.DB

	// Repositories
	ClientRepo repository.ClientRepository
	MatterRepo repository.MatterRepository
	Entries    repository.EntryStore
	History    repository.EntryHistory

	// Services
	Timer   *service.TimerEngine
	Reports service.ReportService

	closers []func() error
}

// New creates a new App instance, initializing all dependencies
// It handles:
// 1. Loading config
// 2. Getting secrets from the keyring
// 3. Opening the database and running migrations
// 4. Connecting the entry store (SQLite or Redis)
// 5. Creating the timer engine
func New(ctx context.Context) (*App, error) {
	path := config.DefaultConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := ensureUserID(cfg, path); err != nil {
		return nil, err
	}

	return NewWithConfig(ctx, cfg)
}

// NewWithConfig creates an App with a provided config (useful for testing)
func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	log := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		Pretty:     cfg.Log.Pretty,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	a := &App{Config: cfg, Logger: log}
	a.closers = append(a.closers, func() error {
		_ = log.Sync()
		return nil
	})

	keyring := crypto.NewKeyring()

	// Try to get existing encryption key
	password, err := keyring.Get(crypto.SecretDatabaseKey)
	if err != nil {
		if !errors.Is(err, crypto.ErrSecretNotFound) {
			return nil, fmt.Errorf("failed to read encryption key: %w", err)
		}
		fmt.Println("Setting up database encryption for the first time...")
		password, err = promptForPassword()
		if err != nil {
			return nil, fmt.Errorf("failed to set password: %w", err)
		}
		if err := keyring.Set(crypto.SecretDatabaseKey, password); err != nil {
			return nil, fmt.Errorf("failed to store encryption key: %w", err)
		}
	}

	database, err := db.Open(cfg.Database.Path, password)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.DB = database
	a.closers = append(a.closers, database.Close)

	if err := database.RunMigrations(); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Clients and matters always live in the local database
	a.ClientRepo = repository.NewClientRepo(database)
	a.MatterRepo = repository.NewMatterRepo(database)

	switch cfg.Store.Backend {
	case config.BackendRedis:
		store, err := connectRedis(ctx, cfg, keyring, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Entries = store
		a.History = store
		a.closers = append(a.closers, store.Close)
	default:
		entries := repository.NewEntryRepo(database)
		a.Entries = entries
		a.History = entries
	}

	a.Timer = service.NewTimerEngine(a.Entries, service.EngineOptions{
		UserID:       cfg.User.ID,
		Logger:       log,
		TickInterval: cfg.Timer.TickInterval,
		PollInterval: cfg.Timer.PollInterval,
	})

	a.Reports = service.NewReportService(a.History, cfg.User.ID)

	log.Debug("app initialized",
		logger.String("backend", cfg.Store.Backend),
		logger.String("database", cfg.Database.Path))

	return a, nil
}

func connectRedis(ctx context.Context, cfg *config.Config, keyring crypto.Keyring, log logger.Logger) (*redisstore.Store, error) {
	password, err := keyring.Get(crypto.SecretRedisPassword)
	if err != nil && !errors.Is(err, crypto.ErrSecretNotFound) {
		return nil, fmt.Errorf("failed to read redis password: %w", err)
	}

	client, err := redisstore.Connect(ctx, redisstore.ConnectOptions{
		Addr:           cfg.Redis.Addr,
		User:           cfg.Redis.Username,
		Password:       password,
		RedisDB:        cfg.Redis.DB,
		DialTimeout:    cfg.Redis.DialTimeout,
		ReadTimeout:    cfg.Redis.ReadTimeout,
		WriteTimeout:   cfg.Redis.WriteTimeout,
		PoolSize:       cfg.Redis.PoolSize,
		ConnectTimeout: cfg.Redis.ConnectTimeout,
		RetryInterval:  cfg.Redis.RetryInterval,
		MaxWait:        cfg.Redis.MaxWait,
		PingTimeout:    2 * time.Second,
		WarnThreshold:  3,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return redisstore.NewStore(client, cfg.Redis.KeyPrefix, log), nil
}

// ensureUserID gives a fresh install a stable user ID and saves it
func ensureUserID(cfg *config.Config, path string) error {
	if cfg.User.ID != "" {
		return nil
	}

	cfg.User.ID = uuid.NewString()
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("failed to save user id: %w", err)
	}
	return nil
}

// RecoverTimer loads the active entry left by an earlier session or
// another window.
func (a *App) RecoverTimer(ctx context.Context) error {
	if err := a.Timer.Refresh(ctx); err != nil {
		return err
	}

	if snap := a.Timer.Snapshot(); snap.Entry != nil {
		a.Logger.Info("recovered active timer",
			logger.String("entry_id", snap.Entry.ID),
			logger.String("state", string(snap.State)))
	}
	return nil
}

// Close cleanly shuts down the application
func (a *App) Close() error {
	if a.Timer != nil {
		a.Timer.Close()
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// promptForPassword prompts user for a new database password (first run)
func promptForPassword() (string, error) {
	fmt.Println()
	fmt.Println("Your time entries will be encrypted with a password.")
	fmt.Println("This password will be stored securely in your system keyring.")
	fmt.Println()
	fmt.Print("Enter a password for database encryption: ")

	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if len(password) == 0 {
		return "", fmt.Errorf("password cannot be empty")
	}

	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}

	if string(password) != string(confirm) {
		return "", fmt.Errorf("passwords do not match")
	}

	fmt.Println()
	fmt.Println("✓ Database encryption configured successfully")
	fmt.Println()

	return string(password), nil
}
