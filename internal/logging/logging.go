// Package logging builds the charmbracelet/log logger shared by the client.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Options holds logger settings, usually taken from config.
type Options struct {
	Level      string // debug, info, warn, error, fatal
	Format     string // text, json, logfmt
	Timestamps bool
	Prefix     string
}

// ParseLevel parses a level name; unknown names fall back to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// ParseFormatter parses a formatter name; unknown names fall back to text.
func ParseFormatter(format string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// New returns a logger writing to w.
func New(w io.Writer, opt Options) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(opt.Level),
		Formatter:       ParseFormatter(opt.Format),
		ReportTimestamp: opt.Timestamps,
		Prefix:          opt.Prefix,
	})
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns a logger appending to path, creating parent directories.
// An empty path discards everything; the TUI uses this so log lines never
// land on the alternate screen.
func Open(path string, opt Options) (*log.Logger, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return New(io.Discard, opt), nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	opt.Timestamps = true
	return New(f, opt), f, nil
}
