package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds persistent flags shared by all commands.
type GlobalFlags struct {
	ConfigPath string
}

// ServeFlags holds flags for the serve command.
type ServeFlags struct {
	Daemonize bool
	PidFile   string
	LogFile   string
}

// buildRoot creates the root command and wires the subcommands.
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	serveFlags := &ServeFlags{}
	apiFlags := &APIFlags{}

	root := createRootCommand(globalFlags)
	root.AddCommand(
		createServeCommand(globalFlags, serveFlags),
		createStatusCommand(apiFlags),
		createStopCommand(apiFlags),
		createRestartCommand(apiFlags),
		createEventsCommand(apiFlags),
	)
	return root
}

func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "warden",
		Short: "Keep a single worker process alive",
		Long: `Warden supervises one long-running worker process: it launches the
worker detached, polls its liveness, and restarts it when it crashes.

Examples:
  warden serve --config=warden.toml
  warden serve --config=warden.toml --daemonize
  warden status
  warden restart
  warden stop`,
	}
	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "warden.toml", "path to TOML config file")
	return root
}
