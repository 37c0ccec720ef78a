package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v8"
	"github.com/joho/godotenv"
)

const appName = "fundwise"

// Config holds all fundwise configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Appearance AppearanceConfig `toml:"appearance"`
	TUI        TUIConfig        `toml:"tui"`
}

// GeneralConfig holds general preferences. Fields tagged with env can be
// overridden from the environment or a .env file.
type GeneralConfig struct {
	WindowDays int    `toml:"upcoming_window_days" env:"FUNDWISE_WINDOW_DAYS"`
	Currency   string `toml:"currency" env:"FUNDWISE_CURRENCY"`
	Database   string `toml:"database,omitempty" env:"FUNDWISE_DB"`
	LogLevel   string `toml:"log_level,omitempty" env:"FUNDWISE_LOG_LEVEL"`
}

// DaemonConfig holds defaults for `fundwise daemon`.
type DaemonConfig struct {
	Addr            string `toml:"addr" env:"FUNDWISE_DAEMON_ADDR"`
	IntervalSeconds int    `toml:"interval_seconds"`
	EventsBuffer    int    `toml:"events_buffer"`
}

// Interval returns the polling interval as a duration.
func (d DaemonConfig) Interval() time.Duration {
	if d.IntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(d.IntervalSeconds) * time.Second
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// TUIConfig holds dashboard settings.
type TUIConfig struct {
	AutoRefresh            bool `toml:"auto_refresh"`
	RefreshIntervalSeconds int  `toml:"refresh_interval_seconds"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			WindowDays: 7,
			Currency:   "USD",
			LogLevel:   "info",
		},
		Daemon: DaemonConfig{
			Addr:            "127.0.0.1:8787",
			IntervalSeconds: 60,
			EventsBuffer:    200,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		TUI: TUIConfig{
			AutoRefresh:            true,
			RefreshIntervalSeconds: 30,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", appName)
}

// StateDir returns the directory for runtime files such as the daemon pid.
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", appName)
}

// DBPath returns the database path, honoring the configured override.
func (c Config) DBPath() string {
	if c.General.Database != "" {
		return c.General.Database
	}
	return filepath.Join(DataDir(), appName+".db")
}

// Load reads the config file, returning defaults if it doesn't exist, then
// applies environment overrides. A .env file in the config directory or the
// working directory is loaded first; real environment variables win.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := loadDotEnv(filepath.Join(ConfigDir(), ".env"), ".env"); err != nil {
		return cfg, err
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides cfg with any FUNDWISE_* environment variables.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	return nil
}

// Validate rejects settings the engines cannot work with.
func (c Config) Validate() error {
	if c.General.WindowDays < 0 {
		return fmt.Errorf("upcoming_window_days must be >= 0, got %d", c.General.WindowDays)
	}
	if len(c.General.Currency) != 3 {
		return fmt.Errorf("currency must be a 3-letter code, got %q", c.General.Currency)
	}
	return nil
}

func loadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
