package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/loykin/warden"
	"github.com/loykin/warden/internal/config"
	"github.com/loykin/warden/internal/logger"
)

// createServeCommand creates the serve subcommand: run the supervisor in the
// foreground or as a background daemon.
func createServeCommand(globalFlags *GlobalFlags, serveFlags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the supervisor",
		Long: `Load the config, launch the worker, and keep it alive until a stop
signal or a stop request over the control API.

Examples:
  warden serve --config=warden.toml
  warden serve --config=warden.toml --daemonize --pidfile=/var/run/warden.pid`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if serveFlags.Daemonize {
				if err := daemonize(serveFlags.PidFile, serveFlags.LogFile); err != nil {
					return err
				}
			}
			return runServe(globalFlags.ConfigPath, serveFlags)
		},
	}
	cmd.Flags().BoolVar(&serveFlags.Daemonize, "daemonize", false, "run in the background")
	cmd.Flags().StringVar(&serveFlags.PidFile, "pidfile", "", "write the daemon PID to this file")
	cmd.Flags().StringVar(&serveFlags.LogFile, "logfile", "", "redirect daemon stdout/stderr to this file")
	return cmd
}

func runServe(configPath string, serveFlags *ServeFlags) error {
	fc, err := config.Load(configPath)
	if err != nil {
		return err
	}

	console := !serveFlags.Daemonize
	log := logger.NewSupervisorLogger(fc.Log.Dir, slog.LevelInfo, console)
	slog.SetDefault(log)

	if fc.Metrics.Enabled {
		if err := warden.RegisterMetricsDefault(); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		if fc.Metrics.Listen != "" {
			go func() {
				if err := warden.ServeMetrics(fc.Metrics.Listen); err != nil {
					log.Error("metrics server stopped", "error", err)
				}
			}()
		}
	}

	var events warden.EventStore
	if fc.Store.DSN != "" {
		events, err = warden.NewEventStore(fc.Store.DSN)
		if err != nil {
			return fmt.Errorf("open event store: %w", err)
		}
		defer func() { _ = events.Close() }()
		if err := events.EnsureSchema(context.Background()); err != nil {
			return fmt.Errorf("event store schema: %w", err)
		}
	}

	var sinks []warden.HistorySink
	if fc.History.ClickHouse.Addr != "" {
		sink, serr := warden.NewClickHouseSink(fc.History.ClickHouse.Addr, fc.History.ClickHouse.Table)
		if serr != nil {
			log.Warn("clickhouse sink unavailable, continuing without it", "error", serr)
		} else {
			sinks = append(sinks, sink)
			defer func() { _ = sink.Close() }()
		}
	}

	sup, err := warden.New(warden.Config{
		Spec:            fc.WorkerSpec(),
		PIDFile:         fc.Worker.PIDFile,
		Interval:        fc.Monitor.Interval,
		VerifyStartTime: fc.Monitor.VerifyStartTime,
		Policy:          policyFromConfig(fc.Restart),
		Store:           events,
		Sinks:           sinks,
		Logger:          log,
	})
	if err != nil {
		return err
	}

	if fc.Server.Listen != "" {
		srv, serr := warden.NewHTTPServer(fc.Server.Listen, fc.Server.BasePath, sup, events)
		if serr != nil {
			return fmt.Errorf("control API server: %w", serr)
		}
		defer func() { _ = srv.Close() }()
		log.Info("control API listening", "addr", fc.Server.Listen)
	}

	if serveFlags.PidFile != "" {
		defer func() { _ = removePidFile(serveFlags.PidFile) }()
	}

	if err := sup.Run(context.Background()); err != nil {
		log.Error("supervisor exited with error", "error", err)
		os.Exit(1)
	}
	return nil
}

func policyFromConfig(rc config.RestartConfig) warden.RestartPolicy {
	if rc.Policy == "bounded" {
		return warden.BoundedRestart{Max: rc.MaxFailures, Window: rc.Window, Delay: rc.Delay}
	}
	return warden.AlwaysRestart{Delay: rc.Delay}
}
