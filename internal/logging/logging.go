// Package logging builds the structured console logger used across council.
package logging

import (
	"io"
	"strings"

	"github.com/bnema/agent-council/internal/ports"
	"github.com/charmbracelet/log"
)

type Options struct {
	Level      string
	Format     string
	Timestamps bool
	Prefix     string
}

func DefaultOptions() Options {
	return Options{
		Level:  "info",
		Format: "text",
		Prefix: "council",
	}
}

// New returns a charmbracelet logger writing to w.
func New(w io.Writer, opts Options) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(opts.Level),
		Formatter:       ParseFormatter(opts.Format),
		ReportTimestamp: opts.Timestamps,
		Prefix:          opts.Prefix,
	})
}

func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

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

// Nop discards everything.
func Nop() *log.Logger {
	return log.New(io.Discard)
}

// With scopes logger with keyvals when it supports it.
func With(logger ports.Logger, keyvals ...interface{}) ports.Logger {
	if logger == nil {
		return Nop()
	}
	if scoped, ok := logger.(interface {
		With(keyvals ...interface{}) *log.Logger
	}); ok {
		return scoped.With(keyvals...)
	}
	return logger
}

var _ ports.Logger = (*log.Logger)(nil)
