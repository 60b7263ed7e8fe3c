// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package logging wraps charmbracelet/log behind a small Logger type so the
// rest of the daemon calls logger.Info("message", "key", value) the same way
// across every package, matching the convention used throughout
// grimm-is-flywall (internal/ebpf/ips, cmd/upgrade.go, etc). The packet fast
// path (internal/ingress, internal/egress, the kernel C programs) never holds
// a Logger — is explicit that there is no logging channel from the
// fast path.
package logging

import (
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Level mirrors charmbracelet/log's levels without leaking that import to callers.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Config configures a Logger.
type Config struct {
	Level  Level
	Output io.Writer // defaults to os.Stderr
	Prefix string    // e.g. "phantomgridd", "controlplane"
}

// Logger is a leveled, structured logger.
type Logger struct {
	inner *charmlog.Logger
}

// New creates a Logger from Config.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	l := charmlog.NewWithOptions(out, charmlog.Options{
		Prefix:          cfg.Prefix,
		ReportTimestamp: true,
	})
	l.SetLevel(toCharmLevel(cfg.Level))
	return &Logger{inner: l}
}

func toCharmLevel(l Level) charmlog.Level {
	switch l {
	case LevelDebug:
		return charmlog.DebugLevel
	case LevelWarn:
		return charmlog.WarnLevel
	case LevelError:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

// Debug logs at debug level with key/value pairs.
func (l *Logger) Debug(msg string, kv ...any) { l.inner.Debug(msg, kv...) }

// Info logs at info level with key/value pairs.
func (l *Logger) Info(msg string, kv ...any) { l.inner.Info(msg, kv...) }

// Warn logs at warn level with key/value pairs.
func (l *Logger) Warn(msg string, kv ...any) { l.inner.Warn(msg, kv...) }

// Error logs at error level with key/value pairs.
func (l *Logger) Error(msg string, kv ...any) { l.inner.Error(msg, kv...) }

// With returns a Logger with the given key/value pairs attached to every
// subsequent call, e.g. logger.With("iface", "eth0").
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{inner: l.inner.With(kv...)}
}
