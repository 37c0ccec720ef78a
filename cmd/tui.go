package cmd

import (
	"fmt"

	"github.com/theirongolddev/fundwise/internal/config"
	"github.com/theirongolddev/fundwise/internal/tui"
	"github.com/theirongolddev/fundwise/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	theme.SetActive(appConfig.Appearance.Theme)

	// Force TrueColor so background fills always emit ANSI codes.
	lipgloss.SetColorProfile(termenv.TrueColor)

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	opts := tui.Options{
		Store:      st,
		Config:     appConfig,
		WindowDays: windowDays(),
		NeedSetup:  !config.Exists(),
	}
	if flagToday != "" {
		day, err := today()
		if err != nil {
			return err
		}
		opts.Now = day.Time
	}

	p := tea.NewProgram(tui.NewApp(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
