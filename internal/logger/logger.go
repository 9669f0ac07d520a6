// Package logger builds the process logger from the --log-* flags.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/phuslu/log"
	"golang.org/x/term"
)

type Config struct {
	Level   string
	LogFile string // empty: stderr
	Format  string // "json" or "text"
}

// New creates a logger. Text output is colourised when it goes to a terminal.
func New(cfg Config) (*log.Logger, error) {
	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
	}

	var w log.Writer
	switch strings.ToLower(cfg.Format) {
	case "json":
		w = &log.IOWriter{Writer: out}
	case "", "text":
		w = &log.ConsoleWriter{Writer: out, ColorOutput: isTerminal(out)}
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", cfg.Format)
	}

	return &log.Logger{
		Level:  ParseLevel(cfg.Level),
		Writer: w,
	}, nil
}

// ParseLevel maps a flag value to a level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
