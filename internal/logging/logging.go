// Package logging builds the application logger.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tessro/needle/internal/config"
)

// New creates a [log.Logger] with timestamps. When cfg.File is set the
// logger writes to a rotating file; otherwise to w (default [os.Stderr]).
// The returned closer releases the file, if any.
func New(cfg config.LogConfig, w io.Writer) (*log.Logger, io.Closer) {
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		_ = os.MkdirAll(filepath.Dir(cfg.File), 0700)
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
		}
		w, closer = rotating, rotating
	}
	if w == nil {
		w = os.Stderr
	}

	logger := log.NewWithOptions(w, log.Options{ReportTimestamp: true})
	logger.SetLevel(ParseLevel(cfg.Level))
	return logger, closer
}

// ParseLevel parses a level name, falling back to info.
func ParseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Discard returns a logger that writes nothing.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// With creates a child logger with the given key-value pairs.
func With(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
