// Package tui provides the interactive Bubble Tea dashboard for fundwise.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/fundwise/internal/config"
	"github.com/theirongolddev/fundwise/internal/model"
	"github.com/theirongolddev/fundwise/internal/pipeline"
	"github.com/theirongolddev/fundwise/internal/recurring"
	"github.com/theirongolddev/fundwise/internal/tui/components"
	"github.com/theirongolddev/fundwise/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/oklog/ulid/v2"
)

// Store is what the dashboard reads snapshots from and records payments to.
type Store interface {
	pipeline.Source
	RecordPayment(paid model.Obligation, p model.Payment, expectedDue model.Date) error
}

// Options configures a new dashboard.
type Options struct {
	Store      Store
	Config     config.Config
	WindowDays int
	Now        func() time.Time
	NeedSetup  bool // show the first-run form once data loads
}

// SnapshotMsg is sent when a snapshot load finishes.
type SnapshotMsg struct {
	Snapshot *pipeline.Snapshot
	Err      error
	LoadTime time.Duration
}

// PaidMsg is sent when a payment has been recorded (or failed to record).
type PaidMsg struct {
	Name    string
	NextDue model.Date
	Err     error
}

const (
	tabOverview = iota
	tabObligations
	tabGoals
)

const (
	minTerminalWidth = 80
	compactWidth     = 110
	maxContentWidth  = 160
	minContentHeight = 5
)

// App is the root Bubble Tea model.
type App struct {
	store Store
	cfg   config.Config
	now   func() time.Time

	windowDays int

	// Data
	snap     *pipeline.Snapshot
	loaded   bool
	loadErr  error
	loadTime time.Duration

	// Auto-refresh state
	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time
	refreshing      bool

	// UI state
	width      int
	height     int
	activeTab  int
	showHelp   bool
	dueCursor  int
	goalCursor int
	confirmPay ulid.ULID // obligation awaiting a second "p"
	flash      string
	flashErr   bool

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals setupValues
	needSetup bool

	spinner spinner.Model
}

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	refreshInterval := time.Duration(opts.Config.TUI.RefreshIntervalSeconds) * time.Second
	if refreshInterval < 10*time.Second {
		refreshInterval = 30 * time.Second
	}

	return App{
		store:           opts.Store,
		cfg:             opts.Config,
		now:             now,
		windowDays:      opts.WindowDays,
		needSetup:       opts.NeedSetup,
		autoRefresh:     opts.Config.TUI.AutoRefresh,
		refreshInterval: refreshInterval,
		spinner:         sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadSnapshotCmd(a.store, a.today(), a.windowDays),
		a.spinner.Tick,
		tickCmd(),
	)
}

func (a App) today() model.Date {
	return model.Today(a.now())
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.moveCursor(-1)
		case tea.MouseButtonWheelDown:
			a.moveCursor(1)
		case tea.MouseButtonLeft:
			if msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case SnapshotMsg:
		a.refreshing = false
		a.lastRefresh = a.now()
		a.loadTime = msg.LoadTime
		if msg.Err != nil {
			a.loadErr = msg.Err
			a.loaded = true
			return a, nil
		}
		a.loadErr = nil
		a.snap = msg.Snapshot
		a.loaded = true
		a.clampCursors()

		if a.needSetup && a.setupForm == nil {
			a.setupVals = newSetupValues(a.cfg, a.windowDays)
			a.setupForm = newSetupForm(&a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case PaidMsg:
		if msg.Err != nil {
			a.setFlash(fmt.Sprintf("%s: %v", msg.Name, msg.Err), true)
		} else {
			a.setFlash(fmt.Sprintf("%s paid, next due %s", msg.Name, msg.NextDue), false)
		}
		a.refreshing = true
		return a, loadSnapshotCmd(a.store, a.today(), a.windowDays)

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.loaded && a.autoRefresh && !a.refreshing && a.setupForm == nil &&
			a.now().Sub(a.lastRefresh) >= a.refreshInterval {
			a.refreshing = true
			cmds = append(cmds, loadSnapshotCmd(a.store, a.today(), a.windowDays))
		}
		return a, tea.Batch(cmds...)
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	// First-run setup intercepts all keys
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	if !a.loaded {
		if key == "q" {
			return a, tea.Quit
		}
		return a, nil
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	// Any key other than a second "p" cancels a pending payment.
	pending := a.confirmPay
	a.confirmPay = ulid.ULID{}
	if key != "p" {
		a.flash = ""
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, loadSnapshotCmd(a.store, a.today(), a.windowDays)
		}
	case "R":
		a.autoRefresh = !a.autoRefresh
		a.cfg.TUI.AutoRefresh = a.autoRefresh
		_ = config.Save(a.cfg)
	case "o":
		a.activeTab = tabOverview
	case "b":
		a.activeTab = tabObligations
	case "g":
		a.activeTab = tabGoals
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	case "j", "down":
		a.moveCursor(1)
	case "k", "up":
		a.moveCursor(-1)
	case "p":
		return a.payKey(pending)
	}
	return a, nil
}

// payKey asks for confirmation on the first "p" and records the payment on
// the second.
func (a App) payKey(pending ulid.ULID) (tea.Model, tea.Cmd) {
	if a.activeTab != tabObligations || a.snap == nil || len(a.snap.Due) == 0 {
		return a, nil
	}
	o := a.snap.Due[a.dueCursor].Obligation
	if pending != o.ID {
		a.confirmPay = o.ID
		a.setFlash(fmt.Sprintf("press p again to mark %s paid", o.Name), false)
		return a, nil
	}
	a.flash = ""
	return a, payCmd(a.store, o, a.now())
}

func (a *App) setFlash(s string, isErr bool) {
	a.flash = s
	a.flashErr = isErr
}

func (a *App) moveCursor(delta int) {
	if a.snap == nil {
		return
	}
	switch a.activeTab {
	case tabObligations:
		a.dueCursor += delta
	case tabGoals:
		a.goalCursor += delta
	}
	a.clampCursors()
}

func (a *App) clampCursors() {
	if a.snap == nil {
		return
	}
	a.dueCursor = min(max(a.dueCursor, 0), max(len(a.snap.Due)-1, 0))
	a.goalCursor = min(max(a.goalCursor, 0), max(len(a.snap.Goals)-1, 0))
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  fundwise needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ fundwise"))
	b.WriteString(subtitleStyle.Render(" · bills & savings"))
	b.WriteString("\n\n")
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	b.WriteString(subtitleStyle.Render(" Loading obligations and goals..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Info).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	bindings := []struct{ key, desc string }{
		{"o b g", "Jump to tab"},
		{"← →", "Previous / Next tab"},
		{"j k", "Move selection"},
		{"p p", "Mark selected obligation paid"},
		{"r", "Refresh data"},
		{"R", "Toggle auto-refresh"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}
	for _, bind := range bindings {
		fmt.Fprintf(&b, "  %s  %s\n",
			keyStyle.Render(fmt.Sprintf("%-8s", bind.key)),
			descStyle.Render(bind.desc))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	header := components.RenderTabBar(a.activeTab, w)

	hints := "[?]help  [r]efresh  [q]uit"
	if a.activeTab == tabObligations {
		hints = "[j/k]select  [p]ay  " + hints
	}
	statusBar := components.RenderStatusBar(w, components.StatusInfo{
		Hints:       hints,
		Flash:       a.flash,
		FlashError:  a.flashErr,
		Refreshing:  a.refreshing,
		AutoRefresh: a.autoRefresh,
		LastRefresh: a.lastRefresh,
		Now:         a.now(),
	})

	contentH := max(a.height-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch {
	case a.loadErr != nil:
		content = components.ContentCard("Error", "Could not load data: "+a.loadErr.Error(), cw)
	case a.activeTab == tabOverview:
		content = a.renderOverviewTab(cw)
	case a.activeTab == tabObligations:
		content = a.renderObligationsTab(cw, contentH)
	case a.activeTab == tabGoals:
		content = a.renderGoalsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Commands ───────────────────────────────────────────────────

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func loadSnapshotCmd(st Store, today model.Date, windowDays int) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		snap, err := pipeline.BuildSnapshot(st, today, windowDays)
		return SnapshotMsg{Snapshot: snap, Err: err, LoadTime: time.Since(start)}
	}
}

func payCmd(st Store, o model.Obligation, now time.Time) tea.Cmd {
	return func() tea.Msg {
		paid, p, err := recurring.MarkPaid(o, now)
		if err != nil {
			return PaidMsg{Name: o.Name, Err: err}
		}
		if err := st.RecordPayment(paid, p, o.NextDueDate); err != nil {
			return PaidMsg{Name: o.Name, Err: err}
		}
		return PaidMsg{Name: o.Name, NextDue: paid.NextDueDate}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncStr(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes follow the widths RenderTabBar draws.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1 // separator
	}
	return -1
}
