package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smazurov/procman/internal/api"
	"github.com/smazurov/procman/internal/config"
	"github.com/smazurov/procman/internal/events"
	"github.com/smazurov/procman/internal/logging"
	"github.com/smazurov/procman/internal/supervisor"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		logFormat  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the supervision daemon",
		Long: `Starts every process defined in the configuration file, serves the
HTTP API and Prometheus metrics, and reloads the configuration when the
file changes. SIGINT or SIGTERM stops all processes and exits.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			// Flags set on the command line win over the config file.
			cmd.Flags().Visit(func(f *pflag.Flag) {
				switch f.Name {
				case "log-level":
					cfg.Logging.Level = logLevel
				case "log-format":
					cfg.Logging.Format = logFormat
				}
			})

			logging.Initialize(cfg.Logging)
			logger := logging.GetLogger("serve")
			logger.Info("starting daemon", "config", configPath, "processes", len(cfg.Processes))

			bus := events.New()
			sup := supervisor.New(logging.GetLogger("supervisor"), bus)
			sup.Apply(cfg)

			server := api.NewServer(sup)
			serverErr := make(chan error, 1)
			go func() {
				serverErr <- server.Start(cfg.Server.Listen)
			}()

			watcher := config.NewWatcher(configPath, config.Load, logging.GetLogger("config"))
			watcher.OnChange(func(next *config.Config) {
				logging.Initialize(next.Logging)
				sup.Apply(next)
			})
			if err := watcher.Start(); err != nil {
				logger.Warn("config watching disabled", "error", err)
			}
			defer watcher.Stop()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case sig := <-stop:
				logger.Info("shutting down", "signal", sig.String())
			case err := <-serverErr:
				if err != nil {
					logger.Error("API server failed", "error", err)
					sup.StopAll()
					return err
				}
			}

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Stop(ctx); err != nil {
				logger.Warn("API server shutdown incomplete", "error", err)
			}
			sup.StopAll()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "procman.toml", "path to the configuration file")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "override the configured log level")
	cmd.Flags().StringVar(&logFormat, "log-format", "", "override the configured log format")
	return cmd
}
