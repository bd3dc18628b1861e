// Package logging configures the structured logger shared by the chim CLI and API
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// Prefix is prepended to every log line
const Prefix = "chim"

// New creates a logger writing to w at the named level (debug, info, warn, error)
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	return log.NewWithOptions(w, log.Options{
		Prefix:          Prefix,
		Level:           lvl,
		ReportTimestamp: lvl <= log.DebugLevel,
	}), nil
}

// Configure builds a logger writing to w and installs it as the process default
func Configure(w io.Writer, level string) (*log.Logger, error) {
	logger, err := New(w, level)
	if err != nil {
		return nil, err
	}
	log.SetDefault(logger)
	return logger, nil
}

// Discard returns a logger that drops everything
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// ParseLevel maps a level name to a log level; an empty name means info
func ParseLevel(level string) (log.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	switch level {
	case "":
		return log.InfoLevel, nil
	case "warning":
		return log.WarnLevel, nil
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}
