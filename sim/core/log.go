/* YaNCS - Yet another NDN Congestion Simulator
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

type LogLevel int

const LevelTrace LogLevel = -8
const LevelDebug LogLevel = -4
const LevelInfo LogLevel = 0
const LevelWarn LogLevel = 4
const LevelError LogLevel = 8
const LevelFatal LogLevel = 12

// ParseLevel parses a string representation of a log level.
func ParseLevel(s string) (LogLevel, error) {
	switch s {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL":
		return LevelFatal, nil
	}
	return LevelInfo, fmt.Errorf("invalid log level: %s", s)
}

func (level LogLevel) String() string {
	switch level {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Log is the global logger. Components pass themselves as the first
// argument; their String() becomes the "src" attribute.
var Log = &Logger{
	base:  slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(LevelInfo)})),
	level: LevelInfo,
}

type Logger struct {
	base  *slog.Logger
	level LogLevel
}

// SetLevel changes the minimum level emitted by the logger.
func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
	l.base = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(level)}))
}

// Level returns the current minimum level.
func (l *Logger) Level() LogLevel {
	return l.level
}

// HasLevel returns whether the given level would be emitted.
func (l *Logger) HasLevel(level LogLevel) bool {
	return level >= l.level
}

func (l *Logger) log(level LogLevel, src any, msg string, args ...any) {
	if !l.HasLevel(level) {
		return
	}
	if src != nil {
		args = append([]any{"src", src}, args...)
	}
	l.base.Log(context.Background(), slog.Level(level), msg, args...)
}

func (l *Logger) Trace(src any, msg string, args ...any) {
	l.log(LevelTrace, src, msg, args...)
}

func (l *Logger) Debug(src any, msg string, args ...any) {
	l.log(LevelDebug, src, msg, args...)
}

func (l *Logger) Info(src any, msg string, args ...any) {
	l.log(LevelInfo, src, msg, args...)
}

func (l *Logger) Warn(src any, msg string, args ...any) {
	l.log(LevelWarn, src, msg, args...)
}

func (l *Logger) Error(src any, msg string, args ...any) {
	l.log(LevelError, src, msg, args...)
}

// Fatal logs the message and exits the process.
func (l *Logger) Fatal(src any, msg string, args ...any) {
	l.log(LevelFatal, src, msg, args...)
	os.Exit(1)
}
