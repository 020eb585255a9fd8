package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"
)

// Logger writes entries through one Formatter. Safe for concurrent use.
type Logger struct {
	mu        sync.Mutex
	config    *Config
	formatter Formatter
	writer    io.Writer
	now       func() time.Time
	exitFunc  func(int)
}

func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	var formatter Formatter
	switch config.Format {
	case FormatJSON:
		formatter = NewJSONFormatter(config)
	case FormatCloudWatch:
		formatter = NewCloudWatchFormatter(config)
	default:
		formatter = NewConsoleFormatter(config)
	}

	writer := config.Output
	if writer == nil {
		writer = os.Stdout
	}

	return &Logger{
		config:    config,
		formatter: formatter,
		writer:    writer,
		now:       time.Now,
		exitFunc:  os.Exit,
	}
}

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Level = level
}

func (l *Logger) GetLevel() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.config.Level
}

func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// Enabled reports whether level would be written.
func (l *Logger) Enabled(level Level) bool {
	return l.GetLevel().Enabled(level)
}

// callerSkip is the number of frames between runtime.Caller in write and
// the user's call site, through either the package API or an Entry.
const callerSkip = 4

func (l *Logger) write(level Level, msg string, fields Fields, data any, err error) {
	if !l.Enabled(level) {
		return
	}

	if l.config.Redact {
		fields = redactFields(fields)
	}

	entry := &LogEntry{
		Level:     level,
		Message:   msg,
		Fields:    fields,
		Data:      data,
		Error:     err,
		Timestamp: l.now(),
	}
	if l.config.EnableCaller {
		entry.Caller = caller(callerSkip)
	}

	out, ferr := l.formatter.Format(entry)
	if ferr != nil {
		fmt.Fprintf(os.Stderr, "logx: format: %v\n", ferr)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, werr := l.writer.Write(out); werr != nil {
		fmt.Fprintf(os.Stderr, "logx: write: %v\n", werr)
	}
}

func (l *Logger) entry() *Entry {
	return &Entry{logger: l}
}

func (l *Logger) WithField(key string, value any) *Entry {
	return l.entry().WithField(key, value)
}

func (l *Logger) WithFields(fields Fields) *Entry {
	return l.entry().WithFields(fields)
}

func (l *Logger) WithError(err error) *Entry {
	return l.entry().WithError(err)
}

func (l *Logger) exit(code int) {
	l.exitFunc(code)
}

func caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "???"
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}
