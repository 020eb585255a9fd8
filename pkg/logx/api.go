package logx

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
)

var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(NewLogger(LoadFromEnv()))
}

// SetDefaultLogger replaces the logger behind the package-level functions.
func SetDefaultLogger(l *Logger) {
	defaultLogger.Store(l)
}

func GetDefaultLogger() *Logger {
	return defaultLogger.Load()
}

func SetLevel(level Level)  { GetDefaultLogger().SetLevel(level) }
func SetOutput(w io.Writer) { GetDefaultLogger().SetOutput(w) }

func std() *Entry { return GetDefaultLogger().entry() }

func Trace(msg string) { std().log(LevelTrace, msg) }
func Debug(msg string) { std().log(LevelDebug, msg) }
func Info(msg string)  { std().log(LevelInfo, msg) }
func Warn(msg string)  { std().log(LevelWarn, msg) }
func Error(msg string) { std().log(LevelError, msg) }

func Fatal(msg string) {
	std().log(LevelFatal, msg)
	GetDefaultLogger().exit(1)
}

func Debugf(format string, args ...any) { std().log(LevelDebug, fmt.Sprintf(format, args...)) }
func Infof(format string, args ...any)  { std().log(LevelInfo, fmt.Sprintf(format, args...)) }
func Warnf(format string, args ...any)  { std().log(LevelWarn, fmt.Sprintf(format, args...)) }
func Errorf(format string, args ...any) { std().log(LevelError, fmt.Sprintf(format, args...)) }

func Fatalf(format string, args ...any) {
	std().log(LevelFatal, fmt.Sprintf(format, args...))
	GetDefaultLogger().exit(1)
}

func WithField(key string, value any) *Entry { return std().WithField(key, value) }
func WithFields(fields Fields) *Entry        { return std().WithFields(fields) }
func WithError(err error) *Entry             { return std().WithError(err) }

// WithComponent tags the entry with the emitting subsystem.
func WithComponent(name string) *Entry { return std().WithField("component", name) }

// WithContext starts an entry with the request fields carried by ctx.
func WithContext(ctx context.Context) *Entry { return std().WithContext(ctx) }
