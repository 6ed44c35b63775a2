// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log is the logging facade of the vault. Records are routed to the
// go-ethereum root logger, so handlers installed with Init or SetDefault are
// picked up by every package logger, including those created at init time.
package log

import (
	"io"
	"log/slog"

	gethlog "github.com/ethereum/go-ethereum/log"
)

// Legacy verbosity levels, as accepted on the command line.
const (
	LegacyLevelCrit = iota
	LegacyLevelError
	LegacyLevelWarn
	LegacyLevelInfo
	LegacyLevelDebug
	LegacyLevelTrace
)

// Logger writes key/value pairs.
type Logger interface {
	With(ctx ...any) Logger
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
}

type logger struct {
	ctx []any
}

// WithContext returns a logger that prefixes every record with ctx.
func WithContext(ctx ...any) Logger {
	return &logger{ctx: ctx}
}

// Root returns the root logger.
func Root() Logger {
	return &logger{}
}

func (l *logger) With(ctx ...any) Logger {
	merged := make([]any, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	return &logger{ctx: append(merged, ctx...)}
}

func (l *logger) kv(ctx []any) []any {
	if len(l.ctx) == 0 {
		return ctx
	}
	merged := make([]any, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	return append(merged, ctx...)
}

func (l *logger) Trace(msg string, ctx ...any) { gethlog.Root().Trace(msg, l.kv(ctx)...) }
func (l *logger) Debug(msg string, ctx ...any) { gethlog.Root().Debug(msg, l.kv(ctx)...) }
func (l *logger) Info(msg string, ctx ...any)  { gethlog.Root().Info(msg, l.kv(ctx)...) }
func (l *logger) Warn(msg string, ctx ...any)  { gethlog.Root().Warn(msg, l.kv(ctx)...) }
func (l *logger) Error(msg string, ctx ...any) { gethlog.Root().Error(msg, l.kv(ctx)...) }

// Package level helpers on the root logger.
func Trace(msg string, ctx ...any) { gethlog.Root().Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { gethlog.Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { gethlog.Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { gethlog.Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { gethlog.Root().Error(msg, ctx...) }

// SetDefault installs h as the handler of the root logger.
func SetDefault(h slog.Handler) {
	gethlog.SetDefault(gethlog.NewLogger(h))
}

// FromLegacyLevel converts a 0-5 verbosity into a slog level.
func FromLegacyLevel(verbosity int) slog.Level {
	return gethlog.FromLegacyLevel(verbosity)
}

// NewHandler builds a terminal or json handler filtering below verbosity.
func NewHandler(w io.Writer, verbosity int, json bool, useColor bool) slog.Handler {
	level := FromLegacyLevel(verbosity)
	if json {
		return gethlog.JSONHandlerWithLevel(w, level)
	}
	return gethlog.NewTerminalHandlerWithLevel(w, level, useColor)
}

// Init installs a handler on the root logger.
func Init(w io.Writer, verbosity int, json bool, useColor bool) {
	SetDefault(NewHandler(w, verbosity, json, useColor))
}
