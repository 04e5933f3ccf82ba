// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/walteh/dualpane/pkg/operation"
	"github.com/walteh/dualpane/pkg/status"
)

// 🎯 Header describes the operation a block of item lines belongs to
type Header struct {
	ID      string
	Kind    status.Kind
	Sources []string
	Target  string
}

// 🎯 Logger prints operation outcomes for humans and mirrors them to zerolog
type Logger struct {
	zlog      zerolog.Logger
	console   io.Writer
	mu        sync.Mutex
	current   *Header
	items     []operation.ItemResult
	formatter status.FileFormatter
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:      zlog,
		console:   console,
		formatter: status.NewDefaultFileFormatter(),
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 StartOperation prints the header for an operation
func (l *Logger) StartOperation(ctx context.Context, h Header) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.current = &h
	l.items = nil

	dest := h.Target
	if h.Kind == status.KindDelete || dest == "" {
		dest = fmt.Sprintf("%d items", len(h.Sources))
	}
	fmt.Fprintf(l.console, "[%s %s]\n", h.Kind, color.New(color.FgCyan).Sprint(dest))

	l.zlog.Info().
		Str("operation_id", h.ID).
		Str("kind", h.Kind.String()).
		Strs("sources", h.Sources).
		Str("target", h.Target).
		Msg("starting operation")
}

// 📝 LogItem prints one item outcome
func (l *Logger) LogItem(ctx context.Context, item operation.ItemResult) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kind := status.KindCopy
	if l.current != nil {
		kind = l.current.Kind
	}
	l.items = append(l.items, item)

	fmt.Fprintln(l.console, status.FormatItemLine(item.Source, kind, string(item.Outcome)))
	if item.Error != nil {
		fmt.Fprintf(l.console, "        %s\n", color.New(color.Faint).Sprint(item.Error.Message))
	}

	ev := l.zlog.Info()
	if item.Outcome == operation.OutcomeFailed {
		ev = l.zlog.Warn()
	}
	if item.Error != nil {
		ev = ev.Str("code", item.Error.Code)
	}
	ev.Str("source", item.Source).
		Str("destination", item.Destination).
		Str("outcome", string(item.Outcome)).
		Msg("item finished")
}

// 📝 EndOperation prints the terminal line and forgets the current operation
func (l *Logger) EndOperation(ctx context.Context, s status.Status, p status.Progress) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}

	fmt.Fprintf(l.console, "%s %s\n", l.formatter.FormatStatus(l.current.Kind, s, p), status.FormatStatusBadge(s))

	l.zlog.Info().
		Str("operation_id", l.current.ID).
		Str("status", s.String()).
		Int("items", len(l.items)).
		Int("files", p.FilesProcessed).
		Int64("bytes", p.BytesProcessed).
		Msg("operation complete")

	l.current = nil
	l.items = nil
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("dualpane")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
