package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/theirongolddev/fundwise/internal/cli"
	"github.com/theirongolddev/fundwise/internal/config"
	"github.com/theirongolddev/fundwise/internal/logger"
	"github.com/theirongolddev/fundwise/internal/model"
	"github.com/theirongolddev/fundwise/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagDBPath  string
	flagWindow  int
	flagToday   string
	flagQuiet   bool
	flagVerbose bool
)

var (
	appConfig = config.DefaultConfig()
	log       = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "fundwise",
	Short: "Recurring bills and savings goals tracker",
	Long: "Track recurring bills, see what is overdue or coming up, and follow\n" +
		"savings goals with completion estimates.",
}

// Execute is the main entry point called from main.go.
func Execute() {
	err := rootCmd.Execute()
	_ = log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Set here: both hooks read rootCmd's flags.
	rootCmd.PersistentPreRunE = initRuntime
	rootCmd.RunE = runSummary

	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "SQLite database path (default from config)")
	rootCmd.PersistentFlags().IntVarP(&flagWindow, "window", "w", config.DefaultConfig().General.WindowDays, "Upcoming window in days (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagToday, "today", "", "Evaluate as of this date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only print essential output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log debug output to stderr")
}

// initRuntime loads config and builds the logger before any command runs.
func initRuntime(cmd *cobra.Command, _ []string) error {
	log = logger.NewCLI(flagVerbose)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	appConfig = cfg
	cli.SetCurrency(cfg.General.Currency)

	// Flag parsing is done; later failures are not usage errors.
	cmd.SilenceUsage = true

	log.Debug("runtime ready",
		zap.String("config", config.ConfigPath()),
		zap.String("db", dbPath()),
		zap.Int("window_days", windowDays()))
	return nil
}

func dbPath() string {
	if flagDBPath != "" {
		return flagDBPath
	}
	return appConfig.DBPath()
}

// openStore opens the configured database. Callers close it.
func openStore() (*store.Store, error) {
	st, err := store.Open(dbPath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return st, nil
}

// windowDays is --window when given, else the configured window.
func windowDays() int {
	if rootCmd.PersistentFlags().Changed("window") {
		return flagWindow
	}
	return appConfig.General.WindowDays
}

// today is --today when given, else the local calendar date.
func today() (model.Date, error) {
	if flagToday == "" {
		return model.Today(time.Now()), nil
	}
	d, err := model.ParseDate(flagToday)
	if err != nil {
		return model.Date{}, fmt.Errorf("invalid --today %q: %w", flagToday, err)
	}
	return d, nil
}

// say prints unless --quiet.
func say(format string, args ...any) {
	if !flagQuiet {
		fmt.Printf(format, args...)
	}
}
