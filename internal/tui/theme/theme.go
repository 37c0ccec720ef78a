// Package theme defines the color palettes for the fundwise dashboard.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/fundwise/internal/recurring"
)

// Theme maps dashboard roles to colors.
type Theme struct {
	Name         string
	Label        string
	Background   lipgloss.Color
	Surface      lipgloss.Color // cards and bars
	Highlight    lipgloss.Color // selected row
	Border       lipgloss.Color
	BorderAccent lipgloss.Color
	TextDim      lipgloss.Color
	TextMuted    lipgloss.Color
	TextPrimary  lipgloss.Color
	Accent       lipgloss.Color
	AccentBright lipgloss.Color
	Overdue      lipgloss.Color
	Upcoming     lipgloss.Color
	Funded       lipgloss.Color // completed goals, settled payments
	Info         lipgloss.Color
}

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default, a warm paper-ink palette.
var FlexokiDark = Theme{
	Name:         "flexoki-dark",
	Label:        "Flexoki Dark",
	Background:   lipgloss.Color("#100F0F"),
	Surface:      lipgloss.Color("#1C1B1A"),
	Highlight:    lipgloss.Color("#282726"),
	Border:       lipgloss.Color("#403E3C"),
	BorderAccent: lipgloss.Color("#3AA99F"),
	TextDim:      lipgloss.Color("#575653"),
	TextMuted:    lipgloss.Color("#878580"),
	TextPrimary:  lipgloss.Color("#FFFCF0"),
	Accent:       lipgloss.Color("#3AA99F"),
	AccentBright: lipgloss.Color("#5BC8BE"),
	Overdue:      lipgloss.Color("#D14D41"),
	Upcoming:     lipgloss.Color("#DA702C"),
	Funded:       lipgloss.Color("#879A39"),
	Info:         lipgloss.Color("#4385BE"),
}

// CatppuccinMocha is a soft pastel palette.
var CatppuccinMocha = Theme{
	Name:         "catppuccin-mocha",
	Label:        "Catppuccin Mocha",
	Background:   lipgloss.Color("#1E1E2E"),
	Surface:      lipgloss.Color("#313244"),
	Highlight:    lipgloss.Color("#45475A"),
	Border:       lipgloss.Color("#585B70"),
	BorderAccent: lipgloss.Color("#89B4FA"),
	TextDim:      lipgloss.Color("#6C7086"),
	TextMuted:    lipgloss.Color("#A6ADC8"),
	TextPrimary:  lipgloss.Color("#CDD6F4"),
	Accent:       lipgloss.Color("#89B4FA"),
	AccentBright: lipgloss.Color("#B4D0FB"),
	Overdue:      lipgloss.Color("#F38BA8"),
	Upcoming:     lipgloss.Color("#FAB387"),
	Funded:       lipgloss.Color("#A6E3A1"),
	Info:         lipgloss.Color("#94E2D5"),
}

// TokyoNight is a cool blue palette.
var TokyoNight = Theme{
	Name:         "tokyo-night",
	Label:        "Tokyo Night",
	Background:   lipgloss.Color("#1A1B26"),
	Surface:      lipgloss.Color("#24283B"),
	Highlight:    lipgloss.Color("#343A52"),
	Border:       lipgloss.Color("#565F89"),
	BorderAccent: lipgloss.Color("#7AA2F7"),
	TextDim:      lipgloss.Color("#565F89"),
	TextMuted:    lipgloss.Color("#A9B1D6"),
	TextPrimary:  lipgloss.Color("#C0CAF5"),
	Accent:       lipgloss.Color("#7AA2F7"),
	AccentBright: lipgloss.Color("#A9C1FF"),
	Overdue:      lipgloss.Color("#F7768E"),
	Upcoming:     lipgloss.Color("#FF9E64"),
	Funded:       lipgloss.Color("#9ECE6A"),
	Info:         lipgloss.Color("#7DCFFF"),
}

// Terminal sticks to the ANSI 16 colors.
var Terminal = Theme{
	Name:         "terminal",
	Label:        "Terminal (ANSI 16)",
	Background:   lipgloss.Color("0"),
	Surface:      lipgloss.Color("0"),
	Highlight:    lipgloss.Color("8"),
	Border:       lipgloss.Color("8"),
	BorderAccent: lipgloss.Color("6"),
	TextDim:      lipgloss.Color("8"),
	TextMuted:    lipgloss.Color("7"),
	TextPrimary:  lipgloss.Color("15"),
	Accent:       lipgloss.Color("6"),
	AccentBright: lipgloss.Color("14"),
	Overdue:      lipgloss.Color("1"),
	Upcoming:     lipgloss.Color("3"),
	Funded:       lipgloss.Color("2"),
	Info:         lipgloss.Color("4"),
}

// All available themes.
var All = []Theme{FlexokiDark, CatppuccinMocha, TokyoNight, Terminal}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}

// StatusColor returns the color for a due status.
func (t Theme) StatusColor(s recurring.Status) lipgloss.Color {
	switch s {
	case recurring.StatusOverdue:
		return t.Overdue
	case recurring.StatusUpcoming:
		return t.Upcoming
	default:
		return t.TextMuted
	}
}
