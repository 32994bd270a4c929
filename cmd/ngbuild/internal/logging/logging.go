// Package logging builds the charmbracelet logger shared by all commands.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	EnvLogLevel     = "NGBUILD_LOG_LEVEL"
	EnvLogTimestamp = "NGBUILD_LOG_TIMESTAMP"
)

// Options configures New. Level is a level name such as "debug"; the
// environment overrides it when set.
type Options struct {
	Level     string
	Timestamp bool
}

// New returns a logger writing to w.
func New(w io.Writer, opts Options) *log.Logger {
	applyEnvOverrides(&opts)

	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "ngbuild",
		ReportTimestamp: opts.Timestamp,
		TimeFormat:      time.TimeOnly,
	})
	logger.SetLevel(parseLevel(opts.Level))
	return logger
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

func applyEnvOverrides(opts *Options) {
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		opts.Level = lvl
	}
	if ts, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		opts.Timestamp = ts
	}
}

func parseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(strings.TrimSpace(s))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}
