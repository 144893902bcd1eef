package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sandeepkv93/nudge/internal/storage"
	"github.com/sandeepkv93/nudge/internal/workinghours"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Database.Driver != storage.DriverSQLite || cfg.Database.Path == "" {
		t.Fatalf("unexpected database defaults: %+v", cfg.Database)
	}
	if cfg.Notifications.EngineBuffer != 64 || cfg.Notifications.Desktop {
		t.Fatalf("unexpected notification defaults: %+v", cfg.Notifications)
	}
	if cfg.Resync.Spec != "@every 15m" || cfg.HTTP.Addr == "" {
		t.Fatalf("unexpected surface defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
database:
  driver: gorm
  path: /tmp/nudge-test.db
timezone: UTC
log_level: debug
notifications:
  desktop: true
  telegram:
    token: abc
    chat_id: 12345
defaults:
  working_hours_start: "09:30"
  default_delay: 1h
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != storage.DriverGorm || cfg.Database.Path != "/tmp/nudge-test.db" {
		t.Fatalf("unexpected database: %+v", cfg.Database)
	}
	if !cfg.Notifications.Desktop || !cfg.Notifications.Telegram.Enabled() || cfg.Notifications.Telegram.ChatID != 12345 {
		t.Fatalf("unexpected notifications: %+v", cfg.Notifications)
	}
	if cfg.Notifications.EngineBuffer != 64 {
		t.Fatalf("unset keys should keep defaults, got %d", cfg.Notifications.EngineBuffer)
	}
	if cfg.Defaults.WorkingHoursEnd != "17:00" {
		t.Fatalf("unset nested key lost its default: %+v", cfg.Defaults)
	}

	seed, err := cfg.SeedSettings()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if seed.Window.Start != workinghours.MustClock("09:30") || seed.DefaultDelay != "1h" {
		t.Fatalf("unexpected seed settings: %+v", seed)
	}
	if seed.Window.Mode != workinghours.ModeAllDay {
		t.Fatalf("seed window should stay all-day, got %s", seed.Window.Mode)
	}
}

func TestRuntimeConfigFromEnv(t *testing.T) {
	t.Setenv("NUDGE_DESKTOP_NOTIFICATIONS", "yes")
	t.Setenv("NUDGE_ENGINE_BUFFER", "128")
	t.Setenv("NUDGE_DATABASE_PATH", "state/custom.db")
	t.Setenv("NUDGE_TELEGRAM_CHAT_ID", "-100")
	t.Setenv("NUDGE_RESYNC_SPEC", "")

	cfg := FromEnv(Default())
	if !cfg.Notifications.Desktop || cfg.Notifications.EngineBuffer != 128 {
		t.Fatalf("unexpected notification overrides: %+v", cfg.Notifications)
	}
	if cfg.Database.Path != "state/custom.db" || cfg.Notifications.Telegram.ChatID != -100 {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.Resync.Spec != "" {
		t.Fatalf("empty resync spec should disable the job, got %q", cfg.Resync.Spec)
	}
}

func TestEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("NUDGE_DESKTOP_NOTIFICATIONS", "maybe")
	t.Setenv("NUDGE_ENGINE_BUFFER", "-3")

	cfg := FromEnv(Default())
	if cfg.Notifications.Desktop || cfg.Notifications.EngineBuffer != 64 {
		t.Fatalf("garbage env should be ignored: %+v", cfg.Notifications)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"driver":   func(c *Config) { c.Database.Driver = "postgres" },
		"timezone": func(c *Config) { c.Timezone = "Mars/Olympus" },
		"level":    func(c *Config) { c.LogLevel = "loud" },
		"clock":    func(c *Config) { c.Defaults.WorkingHoursEnd = "25:00" },
		"path":     func(c *Config) { c.Database.Path = " " },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("write default: %v", err)
	}
	if err := WriteDefault(path); err == nil {
		t.Fatal("expected refusal to overwrite")
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load written default: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", cfg, Default())
	}
}
