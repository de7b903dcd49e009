package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/procman"
	"github.com/smazurov/procman/internal/logging"
)

func newRunCmd() *cobra.Command {
	var (
		waitFor      string
		waitTimeout  time.Duration
		dir          string
		env          []string
		consoleLines int
		keepRunning  bool
		logLevel     string
		logFormat    string
	)

	cmd := &cobra.Command{
		Use:   "run [flags] -- executable [args...]",
		Short: "Run and supervise one process in the foreground",
		Long: `Launches the given command, relays its output, and exits with the
command's exit code. With --wait-for, run fails unless the given text
appears in the output within --wait-timeout.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Initialize(logging.Config{Level: logLevel, Format: logFormat})
			logger := logging.GetLogger("run")

			b := procman.NewBuilder(args[0], args[1:]...).
				SetLogger(logger).
				SetConsoleBufferMaxLines(consoleLines).
				SetDestroyOnShutdown(!keepRunning).
				// Any exit value is the command's result to pass through,
				// never a supervision failure.
				SetIsSuccessExitValueChecker(func(int) bool { return true })
			if dir != "" {
				b.SetWorkingDirectory(dir)
			}
			for _, kv := range env {
				key, value, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("invalid --env value %q, want KEY=VALUE", kv)
				}
				b.Setenv(key, value)
			}

			proc, err := b.Build()
			if err != nil {
				return err
			}

			if waitFor != "" {
				seen, err := proc.StartAndWaitForConsoleMessageMaxMs(waitFor, waitTimeout.Milliseconds())
				if err != nil {
					return err
				}
				if !seen {
					_ = proc.Destroy()
					return fmt.Errorf("%q did not appear in output within %s", waitFor, waitTimeout)
				}
				logger.Info("startup message seen", "message", waitFor)
			} else if err := proc.Start(); err != nil {
				return err
			}

			code, err := proc.WaitForExit()
			if err != nil {
				return err
			}
			if code != 0 && code != procman.ExitValueDestroyed {
				return exitCodeError{code: code}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&waitFor, "wait-for", "", "text to wait for in the process output before considering it started")
	cmd.Flags().DurationVar(&waitTimeout, "wait-timeout", 30*time.Second, "how long to wait for the --wait-for text")
	cmd.Flags().StringVar(&dir, "dir", "", "working directory for the process")
	cmd.Flags().StringArrayVar(&env, "env", nil, "extra environment variables as KEY=VALUE (repeatable)")
	cmd.Flags().IntVar(&consoleLines, "console-lines", 100, "how many recent output lines to keep for error reports")
	cmd.Flags().BoolVar(&keepRunning, "keep-running", false, "leave the process running when procman is interrupted")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	return cmd
}

// exitCodeError carries the child's exit code to main without extra output.
type exitCodeError struct {
	code int
}

func (e exitCodeError) Error() string {
	return fmt.Sprintf("process exited with code %d", e.code)
}

var _ error = exitCodeError{}

// errIsExitCode extracts the child exit code for os.Exit pass-through.
func errIsExitCode(err error) (int, bool) {
	var ec exitCodeError
	if errors.As(err, &ec) {
		return ec.code, true
	}
	return 0, false
}
