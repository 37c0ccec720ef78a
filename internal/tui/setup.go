package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/fundwise/internal/cli"
	"github.com/theirongolddev/fundwise/internal/config"
	"github.com/theirongolddev/fundwise/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// setupValues backs the first-run form fields.
type setupValues struct {
	windowDays int
	currency   string
	theme      string
}

var windowOptions = []int{3, 7, 14, 30}

func newSetupValues(cfg config.Config, windowDays int) setupValues {
	v := setupValues{
		windowDays: windowDays,
		currency:   cfg.General.Currency,
		theme:      cfg.Appearance.Theme,
	}
	if v.windowDays <= 0 {
		v.windowDays = config.DefaultConfig().General.WindowDays
	}
	if v.theme == "" {
		v.theme = theme.FlexokiDark.Name
	}
	return v
}

// RunSetup runs the first-run form standalone and applies the answers to cfg.
func RunSetup(cfg *config.Config) error {
	vals := newSetupValues(*cfg, cfg.General.WindowDays)
	if err := newSetupForm(&vals).Run(); err != nil {
		return err
	}
	vals.apply(cfg)
	return nil
}

func newSetupForm(vals *setupValues) *huh.Form {
	windowOpts := make([]huh.Option[int], 0, len(windowOptions))
	for _, d := range windowOptions {
		windowOpts = append(windowOpts, huh.NewOption(fmt.Sprintf("%d days", d), d))
	}

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Label, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to fundwise").
				Description("Track recurring bills and savings goals.\nA few settings first; change them later with `fundwise setup`."),
			huh.NewSelect[int]().
				Title("Upcoming window").
				Description("How far ahead a bill counts as upcoming").
				Options(windowOpts...).
				Value(&vals.windowDays),
			huh.NewInput().
				Title("Currency").
				Description("ISO 4217 code, e.g. USD, EUR, GBP").
				CharLimit(3).
				Value(&vals.currency).
				Validate(validateCurrency),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.theme),
		),
	).WithShowHelp(false)
}

func validateCurrency(s string) error {
	s = strings.TrimSpace(s)
	if len(s) != 3 {
		return errors.New("use a three-letter code")
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return errors.New("use letters only")
		}
	}
	return nil
}

// apply copies the form values into cfg and activates them.
func (v setupValues) apply(cfg *config.Config) {
	cfg.General.WindowDays = v.windowDays
	cfg.General.Currency = strings.ToUpper(strings.TrimSpace(v.currency))
	cfg.Appearance.Theme = v.theme
	theme.SetActive(v.theme)
	cli.SetCurrency(cfg.General.Currency)
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.setupVals.apply(&a.cfg)
		if err := config.Save(a.cfg); err != nil {
			a.setFlash("saving config: "+err.Error(), true)
		} else {
			a.setFlash("settings saved to "+config.ConfigPath(), false)
		}
		a.windowDays = a.cfg.General.WindowDays
		a.needSetup = false
		a.setupForm = nil
		a.refreshing = true
		return a, loadSnapshotCmd(a.store, a.today(), a.windowDays)
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}
