// Package config loads nudge's settings: built-in defaults, then an optional
// YAML file, then NUDGE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/nudge/internal/model"
	"github.com/sandeepkv93/nudge/internal/storage"
	"github.com/sandeepkv93/nudge/internal/workinghours"
)

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Database      DatabaseConfig      `yaml:"database" mapstructure:"database"`
	Timezone      string              `yaml:"timezone" mapstructure:"timezone"`
	LogLevel      string              `yaml:"log_level" mapstructure:"log_level"`
	Notifications NotificationsConfig `yaml:"notifications" mapstructure:"notifications"`
	HTTP          HTTPConfig          `yaml:"http" mapstructure:"http"`
	Resync        ResyncConfig        `yaml:"resync" mapstructure:"resync"`
	Defaults      DefaultsConfig      `yaml:"defaults" mapstructure:"defaults"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	Path   string `yaml:"path" mapstructure:"path"`
}

type NotificationsConfig struct {
	Desktop      bool           `yaml:"desktop" mapstructure:"desktop"`
	EngineBuffer int            `yaml:"engine_buffer" mapstructure:"engine_buffer"`
	Telegram     TelegramConfig `yaml:"telegram" mapstructure:"telegram"`
}

type TelegramConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	ChatID int64  `yaml:"chat_id" mapstructure:"chat_id"`
}

func (t TelegramConfig) Enabled() bool {
	return strings.TrimSpace(t.Token) != "" && t.ChatID != 0
}

type HTTPConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// ResyncConfig schedules the periodic reschedule of every active task. An
// empty Spec disables it.
type ResyncConfig struct {
	Spec string `yaml:"spec" mapstructure:"spec"`
}

// DefaultsConfig seeds the stored settings the first time nudge runs.
type DefaultsConfig struct {
	WorkingHoursStart string `yaml:"working_hours_start" mapstructure:"working_hours_start"`
	WorkingHoursEnd   string `yaml:"working_hours_end" mapstructure:"working_hours_end"`
	DefaultDelay      string `yaml:"default_delay" mapstructure:"default_delay"`
}

func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Driver: storage.DriverSQLite,
			Path:   DefaultDBPath(),
		},
		Timezone: "Local",
		LogLevel: "info",
		Notifications: NotificationsConfig{
			Desktop:      false,
			EngineBuffer: 64,
		},
		HTTP:   HTTPConfig{Addr: "127.0.0.1:8377"},
		Resync: ResyncConfig{Spec: "@every 15m"},
		Defaults: DefaultsConfig{
			WorkingHoursStart: "08:00",
			WorkingHoursEnd:   "17:00",
			DefaultDelay:      model.DefaultDelay,
		},
	}
}

// DefaultDBPath is nudge.db under the user's data directory.
func DefaultDBPath() string {
	if dir := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); dir != "" {
		return filepath.Join(dir, "nudge", "nudge.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "nudge.db"
	}
	return filepath.Join(home, ".local", "share", "nudge", "nudge.db")
}

// DefaultPath is where Load looks when no file is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "nudge.yaml"
	}
	return filepath.Join(dir, "nudge", "config.yaml")
}

// Load merges the YAML file at path over Default and applies environment
// overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	cfg = FromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	return v.Unmarshal(cfg)
}

// FromEnv applies NUDGE_* overrides on top of base.
func FromEnv(base Config) Config {
	cfg := base
	if v, ok := getEnvString("NUDGE_DATABASE_DRIVER"); ok {
		cfg.Database.Driver = v
	}
	if v, ok := getEnvString("NUDGE_DATABASE_PATH"); ok {
		cfg.Database.Path = v
	}
	if v, ok := getEnvString("NUDGE_TIMEZONE"); ok {
		cfg.Timezone = v
	}
	if v, ok := getEnvString("NUDGE_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := getEnvBool("NUDGE_DESKTOP_NOTIFICATIONS"); ok {
		cfg.Notifications.Desktop = v
	}
	if v, ok := getEnvInt("NUDGE_ENGINE_BUFFER"); ok && v > 0 {
		cfg.Notifications.EngineBuffer = v
	}
	if v, ok := getEnvString("NUDGE_TELEGRAM_TOKEN"); ok {
		cfg.Notifications.Telegram.Token = v
	}
	if v, ok := getEnvInt("NUDGE_TELEGRAM_CHAT_ID"); ok {
		cfg.Notifications.Telegram.ChatID = int64(v)
	}
	if v, ok := getEnvString("NUDGE_HTTP_ADDR"); ok {
		cfg.HTTP.Addr = v
	}
	if v, ok := os.LookupEnv("NUDGE_RESYNC_SPEC"); ok {
		cfg.Resync.Spec = strings.TrimSpace(v)
	}
	return cfg
}

func (c Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.SeedSettings(); err != nil {
		return err
	}
	switch strings.ToLower(c.Database.Driver) {
	case storage.DriverSQLite, storage.DriverGorm:
	default:
		return fmt.Errorf("%w: database.driver %q", ErrInvalidConfig, c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("%w: database.path is empty", ErrInvalidConfig)
	}
	return nil
}

func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, name, err)
	}
	return loc, nil
}

func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return level, nil
}

// SeedSettings is the Settings value used before any have been stored. The
// window stays all-day; Defaults only pre-fills its bounds.
func (c Config) SeedSettings() (model.Settings, error) {
	s := model.DefaultSettings()
	start, err := workinghours.ParseClock(c.Defaults.WorkingHoursStart)
	if err != nil {
		return s, fmt.Errorf("%w: defaults.working_hours_start: %v", ErrInvalidConfig, err)
	}
	end, err := workinghours.ParseClock(c.Defaults.WorkingHoursEnd)
	if err != nil {
		return s, fmt.Errorf("%w: defaults.working_hours_end: %v", ErrInvalidConfig, err)
	}
	s.Window.Start, s.Window.End = start, end
	if d := strings.TrimSpace(c.Defaults.DefaultDelay); d != "" {
		s.DefaultDelay = d
	}
	return s, nil
}

// WriteDefault renders Default as YAML at path, creating parent directories.
// It refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config: %s already exists", path)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return "", false
	}
	return raw, true
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
