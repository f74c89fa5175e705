package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/warden/internal/logger"
	"github.com/loykin/warden/internal/worker"
)

// FileConfig represents the top-level TOML structure.
//
//	[worker]
//	name = "api"
//	command = "/usr/local/bin/api --port 8080"
//	workdir = "/srv/api"
//	env = ["MODE=prod"]
//	pidfile = "/var/run/warden/api.pid"
//
//	[log]
//	dir = "/var/log/warden"
//
//	[monitor]
//	interval = "60s"
//	verify_start_time = false
//
//	[restart]
//	policy = "always"       # or "bounded"
//	delay = "2s"
//	max_failures = 0
//	window = "0s"
//
//	[server]
//	listen = "127.0.0.1:8900"
//	base_path = ""
//
//	[metrics]
//	enabled = false
//	listen = ":9090"
//
//	[store]
//	dsn = ""                 # sqlite path, sqlite://..., postgres://...
//
//	[history.clickhouse]
//	addr = ""
//	table = "worker_events"
type FileConfig struct {
	Worker  WorkerConfig  `toml:"worker" mapstructure:"worker"`
	Log     LogConfig     `toml:"log" mapstructure:"log"`
	Monitor MonitorConfig `toml:"monitor" mapstructure:"monitor"`
	Restart RestartConfig `toml:"restart" mapstructure:"restart"`
	Server  ServerConfig  `toml:"server" mapstructure:"server"`
	Metrics MetricsConfig `toml:"metrics" mapstructure:"metrics"`
	Store   StoreConfig   `toml:"store" mapstructure:"store"`
	History HistoryConfig `toml:"history" mapstructure:"history"`
}

type WorkerConfig struct {
	Name    string   `toml:"name" mapstructure:"name"`
	Command string   `toml:"command" mapstructure:"command"`
	WorkDir string   `toml:"workdir" mapstructure:"workdir"`
	Env     []string `toml:"env" mapstructure:"env"`
	PIDFile string   `toml:"pidfile" mapstructure:"pidfile"`
}

type LogConfig struct {
	Dir        string `toml:"dir" mapstructure:"dir"`
	Stdout     string `toml:"stdout" mapstructure:"stdout"`
	Stderr     string `toml:"stderr" mapstructure:"stderr"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

type MonitorConfig struct {
	Interval        time.Duration `toml:"interval" mapstructure:"interval"`
	VerifyStartTime bool          `toml:"verify_start_time" mapstructure:"verify_start_time"`
}

type RestartConfig struct {
	Policy      string        `toml:"policy" mapstructure:"policy"`
	Delay       time.Duration `toml:"delay" mapstructure:"delay"`
	MaxFailures int           `toml:"max_failures" mapstructure:"max_failures"`
	Window      time.Duration `toml:"window" mapstructure:"window"`
}

type ServerConfig struct {
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Listen  string `toml:"listen" mapstructure:"listen"`
}

type StoreConfig struct {
	DSN string `toml:"dsn" mapstructure:"dsn"`
}

type HistoryConfig struct {
	ClickHouse ClickHouseConfig `toml:"clickhouse" mapstructure:"clickhouse"`
}

type ClickHouseConfig struct {
	Addr  string `toml:"addr" mapstructure:"addr"`
	Table string `toml:"table" mapstructure:"table"`
}

// Load reads and validates the TOML config at path, applying defaults.
func Load(path string) (*FileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	fc.applyDefaults()
	if err := fc.Validate(); err != nil {
		return nil, err
	}
	return &fc, nil
}

func (fc *FileConfig) applyDefaults() {
	if fc.Worker.Name == "" {
		fc.Worker.Name = "worker"
	}
	if fc.Monitor.Interval <= 0 {
		fc.Monitor.Interval = 60 * time.Second
	}
	if fc.Restart.Policy == "" {
		fc.Restart.Policy = "always"
	}
	if fc.Restart.Delay <= 0 {
		fc.Restart.Delay = 2 * time.Second
	}
	if fc.History.ClickHouse.Table == "" {
		fc.History.ClickHouse.Table = "worker_events"
	}
}

// Validate checks invariants that Load cannot express structurally.
func (fc *FileConfig) Validate() error {
	if strings.TrimSpace(fc.Worker.Command) == "" {
		return fmt.Errorf("worker.command is required")
	}
	if strings.TrimSpace(fc.Worker.PIDFile) == "" {
		return fmt.Errorf("worker.pidfile is required")
	}
	switch fc.Restart.Policy {
	case "always", "bounded":
	default:
		return fmt.Errorf("restart.policy must be \"always\" or \"bounded\", got %q", fc.Restart.Policy)
	}
	if fc.Restart.Policy == "bounded" && fc.Restart.MaxFailures <= 0 {
		return fmt.Errorf("restart.max_failures must be > 0 for bounded policy")
	}
	return nil
}

// WorkerSpec converts the file config into a launchable worker spec.
func (fc *FileConfig) WorkerSpec() worker.Spec {
	return worker.Spec{
		Name:    fc.Worker.Name,
		Command: fc.Worker.Command,
		WorkDir: fc.Worker.WorkDir,
		Env:     append([]string(nil), fc.Worker.Env...),
		Log: logger.Config{
			Dir:        fc.Log.Dir,
			StdoutPath: fc.Log.Stdout,
			StderrPath: fc.Log.Stderr,
			MaxSizeMB:  fc.Log.MaxSizeMB,
			MaxBackups: fc.Log.MaxBackups,
			MaxAgeDays: fc.Log.MaxAgeDays,
			Compress:   fc.Log.Compress,
		},
	}
}
