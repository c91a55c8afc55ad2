// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package logger wraps zerolog for the moodsync binaries. Every entry is JSON
// and carries the process role, a timestamp and the calling function.
// Request handlers pick up their trace-scoped logger with FromRequest; the
// client tags its logger with the device id.
package logger

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	clientLogMaxSizeMB  = 10
	clientLogMaxBackups = 3
	clientLogMaxAgeDays = 28
)

// Logger embeds zerolog.Logger, so the usual level methods are available.
type Logger struct {
	zerolog.Logger
}

// NewLogger returns a debug-level logger writing to stdout.
func NewLogger(role string) *Logger {
	return newLogger(os.Stdout, role)
}

// NewClientLogger constructs a *Logger for the device client.
//
// The client shares the terminal with the CLI output, so logs go to a
// size-rotated file instead of stdout. An empty path puts the file next to
// the executable. When the log directory cannot be created the logger falls
// back to stdout.
func NewClientLogger(role, path string) *Logger {
	if path == "" {
		execPath, _ := os.Executable()
		path = filepath.Join(filepath.Dir(execPath), "logs", "moodsync.log")
	}

	var out io.Writer = os.Stdout
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
		out = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    clientLogMaxSizeMB,
			MaxBackups: clientLogMaxBackups,
			MaxAge:     clientLogMaxAgeDays,
		}
	}

	return newLogger(out, role)
}

func newLogger(out io.Writer, role string) *Logger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		return runtime.FuncForPC(pc).Name()
	}
	zerolog.CallerFieldName = "func"

	logger := zerolog.New(out).With().
		Str("role", role).
		Timestamp().
		Caller().
		Logger()

	return &Logger{logger}
}

// Nop discards everything. Tests use it.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// GetChildLogger copies the receiver so fields added to the copy stay local.
func (l *Logger) GetChildLogger() *Logger {
	return &Logger{l.With().Logger()}
}

// WithDevice returns a child logger tagged with the device id.
func (l *Logger) WithDevice(deviceID string) *Logger {
	return &Logger{l.With().Str("device_id", deviceID).Logger()}
}

// FromRequest is FromContext for the request context.
func FromRequest(r *http.Request) *Logger {
	return &Logger{*log.Ctx(r.Context())}
}

// FromContext returns the logger attached with zerolog's WithContext, or
// zerolog's default logger when ctx carries none.
func FromContext(ctx context.Context) *Logger {
	return &Logger{*log.Ctx(ctx)}
}
