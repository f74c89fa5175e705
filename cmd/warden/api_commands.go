package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/loykin/warden/pkg/client"
)

// APIFlags holds daemon connection flags shared by the client commands.
type APIFlags struct {
	APIUrl     string
	APITimeout time.Duration
	Limit      int
}

func addAPIFlags(cmd *cobra.Command, flags *APIFlags) {
	cmd.Flags().StringVar(&flags.APIUrl, "api-url", "http://127.0.0.1:8900", "daemon control API URL")
	cmd.Flags().DurationVar(&flags.APITimeout, "api-timeout", 10*time.Second, "request timeout")
}

func createStatusCommand(flags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the supervisor status",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(flags.APIUrl, flags.APITimeout)
			st, err := c.Status()
			if err != nil {
				return err
			}
			return printJSON(st)
		},
	}
	addAPIFlags(cmd, flags)
	return cmd
}

func createStopCommand(flags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the supervisor and its worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(flags.APIUrl, flags.APITimeout)
			if !c.IsReachable() {
				return fmt.Errorf("daemon not reachable at %s", flags.APIUrl)
			}
			if err := c.Stop(); err != nil {
				return err
			}
			fmt.Println("stop requested")
			return nil
		},
	}
	addAPIFlags(cmd, flags)
	return cmd
}

func createRestartCommand(flags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(flags.APIUrl, flags.APITimeout)
			if err := c.Restart(); err != nil {
				return err
			}
			fmt.Println("worker restarted")
			return nil
		},
	}
	addAPIFlags(cmd, flags)
	return cmd
}

func createEventsCommand(flags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent worker lifecycle events",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(flags.APIUrl, flags.APITimeout)
			raw, err := c.Events(flags.Limit)
			if err != nil {
				return err
			}
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			return printJSON(v)
		},
	}
	addAPIFlags(cmd, flags)
	cmd.Flags().IntVar(&flags.Limit, "limit", 50, "maximum number of events")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
