// Package cmd implements the fundwise CLI commands.
package cmd

import (
	"fmt"

	"github.com/theirongolddev/fundwise/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appConfig

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Upcoming window: %d days\n", cfg.General.WindowDays)
	fmt.Printf("    Currency:        %s\n", cfg.General.Currency)
	fmt.Printf("    Database:        %s\n", dbPath())
	fmt.Printf("    Log level:       %s\n", cfg.General.LogLevel)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:       %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval:      %s\n", cfg.Daemon.Interval())
	fmt.Printf("    Events buffer: %d\n", cfg.Daemon.EventsBuffer)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [TUI]")
	fmt.Printf("    Auto refresh: %v", cfg.TUI.AutoRefresh)
	if cfg.TUI.AutoRefresh {
		fmt.Printf(" (every %ds)", cfg.TUI.RefreshIntervalSeconds)
	}
	fmt.Println()
	fmt.Println()

	fmt.Println("  Run `fundwise setup` to reconfigure.")
	return nil
}
