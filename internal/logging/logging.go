// Package logging builds the file logger. The terminal belongs to the TUI,
// so nothing is ever written to stdout or stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// Config selects where and how much to log.
type Config struct {
	// File is the log file path. Empty discards all output.
	File string
	// Level is one of debug, info, warn, error.
	Level string
	// JSON switches to the JSON formatter.
	JSON bool
}

// ParseLevel maps a config level onto a charm level. Unknown text falls
// back to info.
func ParseLevel(level string) charmlog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return charmlog.DebugLevel
	case "warn", "warning":
		return charmlog.WarnLevel
	case "error":
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

// New returns a logger writing to w at level.
func New(w io.Writer, cfg Config) *charmlog.Logger {
	if w == nil {
		w = io.Discard
	}
	logger := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
		Level:           ParseLevel(cfg.Level),
		Prefix:          "tablo",
	})
	if cfg.JSON {
		logger.SetFormatter(charmlog.JSONFormatter)
	} else {
		logger.SetFormatter(charmlog.LogfmtFormatter)
	}
	return logger
}

// Open appends to cfg.File, creating its directory when needed. The
// returned close function must be called on shutdown.
func Open(cfg Config) (*charmlog.Logger, func() error, error) {
	if cfg.File == "" {
		return New(io.Discard, cfg), func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return New(f, cfg), f.Close, nil
}
