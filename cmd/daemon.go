package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/theirongolddev/fundwise/internal/cli"
	"github.com/theirongolddev/fundwise/internal/config"
	"github.com/theirongolddev/fundwise/internal/daemon"
	"github.com/theirongolddev/fundwise/internal/logger"
	"github.com/theirongolddev/fundwise/internal/recurring"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type daemonRuntimeState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	DBPath    string    `json:"db_path"`
}

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the reminder daemon with HTTP/SSE endpoints",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	defaultPID := filepath.Join(config.StateDir(), "fundwised.pid")
	defaultLog := filepath.Join(config.StateDir(), "fundwised.log")
	defaults := config.DefaultConfig().Daemon

	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", defaults.Addr, "HTTP listen address (default from config)")
	daemonCmd.PersistentFlags().DurationVar(&flagDaemonInterval, "interval", defaults.Interval(), "Polling interval (default from config)")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonPIDFile, "pid-file", defaultPID, "PID file path")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonLogFile, "log-file", defaultLog, "Log file path for detached mode")
	daemonCmd.PersistentFlags().IntVar(&flagDaemonEventsBuffer, "events-buffer", defaults.EventsBuffer, "Max in-memory events retained")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

// daemonSettings fills unset daemon flags from the loaded config.
func daemonSettings(cmd *cobra.Command) (addr string, interval time.Duration, buffer int) {
	addr, interval, buffer = flagDaemonAddr, flagDaemonInterval, flagDaemonEventsBuffer
	flags := cmd.Flags()
	if !flags.Changed("addr") {
		addr = appConfig.Daemon.Addr
	}
	if !flags.Changed("interval") {
		interval = appConfig.Daemon.Interval()
	}
	if !flags.Changed("events-buffer") {
		buffer = appConfig.Daemon.EventsBuffer
	}
	return addr, interval, buffer
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("invalid daemon launch mode")
	}
	if windowDays() < 0 {
		return recurring.ErrNegativeWindow
	}

	if flagDaemonDetach {
		return startDaemonDetached(cmd)
	}

	return runDaemonForeground(cmd)
}

// daemonFiles is the pid file plus the JSON state file written beside it.
type daemonFiles struct {
	pid string
}

func currentDaemonFiles() daemonFiles {
	return daemonFiles{pid: flagDaemonPIDFile}
}

func (f daemonFiles) statePath() string {
	return f.pid + ".json"
}

// running reports the recorded pid and whether that process is alive.
// A missing pid file is not an error.
func (f daemonFiles) running() (int, bool, error) {
	//nolint:gosec // pid path comes from the local user's flags
	data, err := os.ReadFile(f.pid)
	if errors.Is(err, os.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false, fmt.Errorf("invalid pid in %s", f.pid)
	}
	return pid, processAlive(pid), nil
}

// claim fails if a live daemon owns the pid file and clears a stale one.
func (f daemonFiles) claim() error {
	pid, alive, err := f.running()
	if err != nil {
		return err
	}
	if alive {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	f.release()
	if err := os.MkdirAll(filepath.Dir(f.pid), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	return nil
}

func (f daemonFiles) write(st daemonRuntimeState) error {
	if err := os.WriteFile(f.pid, []byte(strconv.Itoa(st.PID)+"\n"), 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.statePath(), append(data, '\n'), 0o600)
}

func (f daemonFiles) state() (daemonRuntimeState, error) {
	var st daemonRuntimeState
	//nolint:gosec // state path comes from the local user's flags
	data, err := os.ReadFile(f.statePath())
	if err != nil {
		return st, err
	}
	err = json.Unmarshal(data, &st)
	return st, err
}

func (f daemonFiles) release() {
	_ = os.Remove(f.pid)
	_ = os.Remove(f.statePath())
}

func startDaemonDetached(cmd *cobra.Command) error {
	files := currentDaemonFiles()
	if err := files.claim(); err != nil {
		return err
	}
	addr, _, _ := daemonSettings(cmd)

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(flagDaemonLogFile), 0o750); err != nil {
		return fmt.Errorf("create daemon log directory: %w", err)
	}
	//nolint:gosec // log path comes from the local user's flags
	logf, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	args := append(childArgs(os.Args[1:]), "--child")
	child := exec.Command(exe, args...) //nolint:gosec // re-executes this binary
	child.Stdout = logf
	child.Stderr = logf
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	say("  Reminder daemon started (pid %d) on http://%s\n", child.Process.Pid, addr)
	say("  Log: %s\n", flagDaemonLogFile)
	return nil
}

// childArgs drops --detach so the re-executed process runs in the foreground.
func childArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a != "--detach" && !strings.HasPrefix(a, "--detach=") {
			out = append(out, a)
		}
	}
	return out
}

func runDaemonForeground(cmd *cobra.Command) error {
	files := currentDaemonFiles()
	if err := files.claim(); err != nil {
		return err
	}
	addr, interval, buffer := daemonSettings(cmd)

	state := daemonRuntimeState{
		PID:       os.Getpid(),
		Addr:      addr,
		StartedAt: time.Now(),
		DBPath:    dbPath(),
	}
	if err := files.write(state); err != nil {
		return err
	}
	defer files.release()

	zl, err := logger.New(appConfig.General.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	svc := daemon.New(daemon.Config{
		DBPath:       state.DBPath,
		WindowDays:   windowDays(),
		Interval:     interval,
		Addr:         addr,
		EventsBuffer: buffer,
		Logger:       zl,
	})

	if !flagDaemonChild {
		say("  Reminding from %s every %s\n", state.DBPath, interval)
		say("  Status at http://%s/v1/status, stop with `fundwise daemon stop`\n", addr)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zl.Error("daemon exited", zap.Error(err))
		return err
	}
	return nil
}

func runDaemonStatus(cmd *cobra.Command, _ []string) error {
	files := currentDaemonFiles()
	pid, alive, err := files.running()
	switch {
	case err != nil:
		return err
	case pid == 0:
		fmt.Println("  Reminder daemon: not running")
		return nil
	case !alive:
		fmt.Printf("  Reminder daemon: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr, _, _ := daemonSettings(cmd)
	if st, err := files.state(); err == nil && st.Addr != "" {
		addr = st.Addr
	}
	fmt.Printf("  Reminder daemon: pid %d on http://%s\n", pid, addr)

	st, err := fetchDaemonStatus(addr)
	if err != nil {
		fmt.Printf("  API: %v\n", err)
		return nil
	}

	lastPoll := "pending"
	if !st.LastPollAt.IsZero() {
		lastPoll = st.LastPollAt.Local().Format(time.RFC3339)
	}
	sum := st.Summary
	fmt.Printf("  Database: %s\n", st.DBPath)
	fmt.Printf("  Last poll: %s (%d polls)\n", lastPoll, st.PollCount)
	fmt.Printf("  Overdue: %d (%s)\n", sum.OverdueCount, cli.FormatMoney(sum.OverdueAmount))
	fmt.Printf("  Due in %dd: %d (%s)\n", st.WindowDays, sum.UpcomingCount, cli.FormatMoney(sum.UpcomingAmount))
	fmt.Printf("  Monthly total: %s\n", cli.FormatMoney(sum.MonthlyTotal))
	fmt.Printf("  Goals completed: %d of %d\n", sum.GoalsCompleted, sum.Goals)
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", cli.Warn(st.LastError))
	}
	return nil
}

func fetchDaemonStatus(addr string) (daemon.Status, error) {
	var st daemon.Status
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/v1/status") //nolint:noctx // short local request
	if err != nil {
		return st, fmt.Errorf("unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("malformed status: %w", err)
	}
	return st, nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	files := currentDaemonFiles()
	pid, alive, err := files.running()
	if err != nil {
		return err
	}
	if !alive {
		files.release()
		return errors.New("daemon is not running")
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon: %w", err)
	}

	for deadline := time.Now().Add(8 * time.Second); time.Now().Before(deadline); {
		if !processAlive(pid) {
			files.release()
			say("  Stopped reminder daemon (pid %d)\n", pid)
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}
	return fmt.Errorf("daemon (pid %d) did not exit in time", pid)
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
