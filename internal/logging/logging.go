// Package logging configures the process-wide zerolog logger and provides
// context plumbing so every component logs with the same invocation id.
//
// A launcher shim must stay silent on the happy path: the default level is
// warn and everything goes to stderr (or a log file when configured), never
// to stdout, which belongs to the wrapped CLI's output.
package logging

import (
	"context"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Config controls logger construction.
type Config struct {
	// Level is a zerolog level name ("debug", "info", ...). Unparseable
	// values fall back to warn.
	Level string

	// File, when non-empty, receives log output in addition to stderr.
	File string
}

// New builds a logger from cfg. Every event carries a timestamp and a
// per-invocation ULID so concurrent shim runs can be told apart in a shared
// log file.
func New(cfg Config) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		lvl = zerolog.WarnLevel
	}

	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}}

	if cfg.File != "" {
		if f := openLogFile(cfg.File); f != nil {
			writers = append(writers, f)
		}
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Str("invocation_id", newInvocationID()).
		Logger()
}

// openLogFile opens path for appending, creating parent directories as
// needed. Logging must never fail the invocation, so errors degrade to
// console-only output.
func openLogFile(path string) *os.File {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil
	}
	return f
}

func newInvocationID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0) //nolint:gosec // ids, not secrets
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// WithContext returns ctx carrying logger.
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// FromContext returns the logger stored in ctx, or a disabled logger when
// none was attached (library code never logs unless the caller opted in).
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
