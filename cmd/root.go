package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DeprecatedLuke/oh-my-pi/internal/config"
	"github.com/DeprecatedLuke/oh-my-pi/internal/history"
	"github.com/DeprecatedLuke/oh-my-pi/internal/session"
	"github.com/DeprecatedLuke/oh-my-pi/internal/tui"
)

func SetVersionInfo(version, commit string) {
	rootCmd.Version = fmt.Sprintf("%s (%s)", version, commit)
}

var (
	flagCwd     string
	flagTimeout int
	flagCols    int
	flagRows    int
	flagDebug   bool
)

var rootCmd = &cobra.Command{
	Use:   "ptyshell <command>",
	Short: "Run a command in an interactive PTY overlay and capture its output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		log := zap.NewNop()
		if flagDebug {
			log, err = newDebugLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync() //nolint:errcheck
		}

		// an explicit --timeout wins even at 0 (run without a timer);
		// otherwise the config default applies
		timeout := time.Duration(cfg.DefaultTimeoutSeconds) * time.Second
		if cmd.Flags().Changed("timeout") {
			timeout = time.Duration(flagTimeout) * time.Second
		}

		orch, err := session.New(session.Request{
			Command: args[0],
			Dir:     flagCwd,
			Timeout: timeout,
			Cols:    flagCols,
			Rows:    flagRows,
		}, log)
		if err != nil {
			return err
		}

		startedAt := time.Now()
		orch.Start(cmd.Context())

		p := tea.NewProgram(tui.New(orch, cfg), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}

		result, resErr := orch.Result()
		if resErr != nil {
			if errors.Is(resErr, session.ErrAborted) {
				return resErr
			}
			return fmt.Errorf("session: %w", resErr)
		}

		fmt.Print(result.Text())

		if cfg.HistoryEnabled {
			recordRun(log, args[0], startedAt, result)
		}

		if result.ExitCode != nil && *result.ExitCode != 0 {
			os.Exit(*result.ExitCode)
		}
		return nil
	},
}

// newDebugLogger writes JSON lines to a file under the state dir; logging
// to stderr would corrupt the alt-screen TUI.
func newDebugLogger() (*zap.Logger, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		stateHome = filepath.Join(home, ".local", "state")
	}
	dir := filepath.Join(stateHome, "ptyshell")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	cfg.OutputPaths = []string{filepath.Join(dir, "debug.log")}
	cfg.ErrorOutputPaths = cfg.OutputPaths
	return cfg.Build()
}

func recordRun(log *zap.Logger, command string, startedAt time.Time, result *session.CaptureResult) {
	store, err := history.Open()
	if err != nil {
		log.Debug("history unavailable", zap.Error(err))
		return
	}
	defer store.Close()

	_, err = store.Record(history.Run{
		Command:    command,
		WorkDir:    flagCwd,
		ExitCode:   result.ExitCode,
		TimedOut:   result.TimedOut,
		Dismissed:  result.DismissedByUser,
		Truncated:  result.ScrollbackTruncated,
		OutputSize: len(result.ScrollbackText),
		StartedAt:  startedAt,
	})
	if err != nil {
		log.Debug("history record failed", zap.Error(err))
	}
}

func init() {
	rootCmd.Flags().StringVar(&flagCwd, "cwd", "", "working directory for the command")
	rootCmd.Flags().IntVar(&flagTimeout, "timeout", 0, "timeout in seconds, 0 for none (default from config)")
	rootCmd.Flags().IntVar(&flagCols, "cols", 0, "terminal columns (default sized to host)")
	rootCmd.Flags().IntVar(&flagRows, "rows", 0, "terminal rows (default sized to host)")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
