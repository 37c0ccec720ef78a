package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/fundwise/internal/config"
	"github.com/theirongolddev/fundwise/internal/tui"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg := appConfig

	fmt.Println()
	fmt.Println("  Welcome to fundwise!")
	fmt.Println()

	if err := tui.RunSetup(&cfg); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return err
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	appConfig = cfg

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `fundwise setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
