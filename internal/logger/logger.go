package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation parameters for worker output and the supervisor log.
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// Config describes logging destinations for the supervised worker.
// If StdoutPath/StderrPath are empty and Dir is set, files will be
// Dir/<name>.stdout.log and Dir/<name>.stderr.log.
// Rotation parameters follow lumberjack semantics.
type Config struct {
	Dir        string `json:"dir" mapstructure:"dir"`
	StdoutPath string `json:"stdout_path" mapstructure:"stdout"`
	StderrPath string `json:"stderr_path" mapstructure:"stderr"`
	MaxSizeMB  int    `json:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `json:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `json:"compress" mapstructure:"compress"`
}

// Writers returns io.WriteClosers for the worker's stdout and stderr.
// The worker writes to its own files, never to the supervisor log, so
// the two can be diagnosed independently.
func (c Config) Writers(name string) (io.WriteCloser, io.WriteCloser, error) {
	stdout := c.StdoutPath
	stderr := c.StderrPath
	if stdout == "" && c.Dir != "" {
		stdout = filepath.Join(c.Dir, fmt.Sprintf("%s.stdout.log", name))
	}
	if stderr == "" && c.Dir != "" {
		stderr = filepath.Join(c.Dir, fmt.Sprintf("%s.stderr.log", name))
	}
	var outW io.WriteCloser
	var errW io.WriteCloser
	if stdout != "" {
		outW = c.rotating(stdout)
	}
	if stderr != "" {
		errW = c.rotating(stderr)
	}
	return outW, errW, nil
}

func (c Config) rotating(path string) io.WriteCloser {
	return &lj.Logger{
		Filename:   path,
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.Compress,
	}
}

// NewSupervisorLogger builds the supervisor's slog logger. Lines go to the
// supervisor log file under dir (append-only, timestamped) and, when console
// is true, to stderr with level colors.
func NewSupervisorLogger(dir string, level slog.Level, console bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handlers []slog.Handler
	if dir != "" {
		_ = os.MkdirAll(dir, 0o750)
		fileW := (&Config{Dir: dir}).rotating(filepath.Join(dir, "warden.log"))
		handlers = append(handlers, slog.NewTextHandler(fileW, opts))
	}
	if console || len(handlers) == 0 {
		handlers = append(handlers, NewColorTextHandler(os.Stderr, opts, true))
	}
	if len(handlers) == 1 {
		return slog.New(handlers[0])
	}
	return slog.New(multiHandler(handlers))
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
