// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the structured loggers handed to every component.
//
// The dashboard owns the terminal, so records go to a rotating JSON file
// instead of stdout. The stand-in backend adds the console as a second sink.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/lumberjack.v2"
)

// Options configures New.
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Console also writes records to stderr.
	Console bool
}

// Logger pairs a *slog.Logger with the sinks that need closing.
type Logger struct {
	*slog.Logger
	closers []io.Closer
}

// New builds a JSON logger writing to the configured sinks.
// With no file and no console, records are discarded.
func New(opts Options) (*Logger, error) {
	var (
		writers []io.Writer
		closers []io.Closer
	)

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
			return nil, err
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			LocalTime:  true,
		}
		writers = append(writers, lj)
		closers = append(closers, lj)
	}
	if opts.Console {
		writers = append(writers, os.Stderr)
	}
	if len(writers) == 0 {
		return &Logger{Logger: Discard()}, nil
	}

	h := slog.NewJSONHandler(io.MultiWriter(writers...), &slog.HandlerOptions{Level: ParseLevel(opts.Level)})
	l := &Logger{Logger: slog.New(h), closers: closers}
	l.Debug("logger initialized", "level", opts.Level, "file", opts.File)
	return l, nil
}

// NewWriter builds a JSON logger over an arbitrary writer. Used by tests
// and socmock, which logs to stderr.
func NewWriter(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// Close flushes and closes the file sinks.
func (l *Logger) Close() error {
	var first error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// ParseLevel maps a level name to a slog.Level. Unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
