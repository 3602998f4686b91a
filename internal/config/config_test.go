package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Backend != BackendSQLite {
		t.Errorf("Store.Backend = %q, want %q", cfg.Store.Backend, BackendSQLite)
	}
	if cfg.Timer.TickInterval != time.Second {
		t.Errorf("Timer.TickInterval = %v, want 1s", cfg.Timer.TickInterval)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: redis
redis:
  addr: cache:6379
  db: 2
user:
  id: atty-1
timer:
  poll_interval: 10s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Backend != BackendRedis {
		t.Errorf("Store.Backend = %q, want redis", cfg.Store.Backend)
	}
	if cfg.Redis.Addr != "cache:6379" || cfg.Redis.DB != 2 {
		t.Errorf("Redis = %+v, want addr cache:6379 db 2", cfg.Redis)
	}
	if cfg.Timer.PollInterval != 10*time.Second {
		t.Errorf("Timer.PollInterval = %v, want 10s", cfg.Timer.PollInterval)
	}
	// untouched keys keep their defaults
	if cfg.Redis.PoolSize != 10 {
		t.Errorf("Redis.PoolSize = %d, want default 10", cfg.Redis.PoolSize)
	}
	if cfg.User.ID != "atty-1" {
		t.Errorf("User.ID = %q, want atty-1", cfg.User.ID)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "user:\n  id: from-file\n")
	t.Setenv("DOCKET_USER_ID", "from-env")
	t.Setenv("DOCKET_REDIS_DB", "4")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.User.ID != "from-env" {
		t.Errorf("User.ID = %q, want from-env", cfg.User.ID)
	}
	if cfg.Redis.DB != 4 {
		t.Errorf("Redis.DB = %d, want 4", cfg.Redis.DB)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown backend", "store:\n  backend: postgres\n"},
		{"zero tick", "timer:\n  tick_interval: 0s\n"},
		{"bad log level", "log:\n  level: loud\n"},
		{"malformed yaml", "store: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.User.ID = "atty-2"
	cfg.Timer.PollInterval = 3 * time.Second

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.User.ID != "atty-2" || got.Timer.PollInterval != 3*time.Second {
		t.Fatalf("round trip lost values: %+v", got)
	}
}
