// Package logging builds the zerolog logger that records run detail to the
// configured log file. The console only ever sees short messages.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Config contains logger configuration options.
type Config struct {
	// File is the log file path. It is created if missing and appended to
	// otherwise. Empty discards log output.
	File string

	// Debug lowers the level to debug and adds caller information.
	Debug bool
}

// New opens the log file and returns a logger writing JSON lines to it,
// along with the file to close when the run ends.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	if cfg.File == "" {
		return zerolog.Nop(), nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("opening log file: %w", err)
	}
	return NewWithWriter(f, cfg.Debug), f, nil
}

// NewWithWriter returns a logger writing to w.
func NewWithWriter(w io.Writer, debug bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	ctx := zerolog.New(w).With().Timestamp().Str("app", "sci-dl")
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
		ctx = ctx.Caller()
	}
	return ctx.Logger().Level(level)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
