package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.General.WindowDays != 7 {
		t.Fatalf("WindowDays = %d, want 7", cfg.General.WindowDays)
	}
	if got, want := cfg.DBPath(), filepath.Join("/data", "fundwise", "fundwise.db"); got != want {
		t.Fatalf("DBPath() = %q, want %q", got, want)
	}
	if Exists() {
		t.Fatal("Exists() = true before Save")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg := DefaultConfig()
	cfg.General.WindowDays = 14
	cfg.General.Currency = "EUR"
	cfg.Daemon.IntervalSeconds = 90
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !Exists() {
		t.Fatal("Exists() = false after Save")
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.General.WindowDays != 14 || got.General.Currency != "EUR" {
		t.Fatalf("General = %+v, want window 14 currency EUR", got.General)
	}
	if got.Daemon.Interval() != 90*time.Second {
		t.Fatalf("Interval() = %s, want 1m30s", got.Daemon.Interval())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("FUNDWISE_WINDOW_DAYS", "3")
	t.Setenv("FUNDWISE_DB", "/tmp/other.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.General.WindowDays != 3 {
		t.Fatalf("WindowDays = %d, want 3", cfg.General.WindowDays)
	}
	if cfg.DBPath() != "/tmp/other.db" {
		t.Fatalf("DBPath() = %q, want /tmp/other.db", cfg.DBPath())
	}
}

func TestDotEnvFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("FUNDWISE_CURRENCY=GBP\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides variables that are already set
	t.Setenv("FUNDWISE_CURRENCY", "")
	_ = os.Unsetenv("FUNDWISE_CURRENCY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.General.Currency != "GBP" {
		t.Fatalf("Currency = %q, want GBP", cfg.General.Currency)
	}
}

func TestValidateRejectsNegativeWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.WindowDays = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for negative window")
	}
}
