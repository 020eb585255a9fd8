package logx

import (
	"context"
	"fmt"
)

// Entry accumulates fields for one log line. Every With* call returns a new
// Entry, so a partially built entry can be shared and extended safely.
type Entry struct {
	logger *Logger
	fields Fields
	data   any
	err    error
}

func (e *Entry) clone(extra int) *Entry {
	fields := make(Fields, len(e.fields)+extra)
	for k, v := range e.fields {
		fields[k] = v
	}
	return &Entry{logger: e.logger, fields: fields, data: e.data, err: e.err}
}

func (e *Entry) WithField(key string, value any) *Entry {
	n := e.clone(1)
	n.fields[key] = value
	return n
}

func (e *Entry) WithFields(fields Fields) *Entry {
	n := e.clone(len(fields))
	for k, v := range fields {
		n.fields[k] = v
	}
	return n
}

func (e *Entry) WithError(err error) *Entry {
	n := e.clone(0)
	n.err = err
	return n
}

// WithContext adds the fields attached to ctx with NewContext.
func (e *Entry) WithContext(ctx context.Context) *Entry {
	return e.WithFields(FieldsFromContext(ctx))
}

// WithStruct attaches a value printed as JSON below the message.
func (e *Entry) WithStruct(data any) *Entry {
	n := e.clone(0)
	n.data = data
	return n
}

func (e *Entry) log(level Level, msg string) {
	e.logger.write(level, msg, e.fields, e.data, e.err)
}

func (e *Entry) Trace(msg string) { e.log(LevelTrace, msg) }
func (e *Entry) Debug(msg string) { e.log(LevelDebug, msg) }
func (e *Entry) Info(msg string)  { e.log(LevelInfo, msg) }
func (e *Entry) Warn(msg string)  { e.log(LevelWarn, msg) }
func (e *Entry) Error(msg string) { e.log(LevelError, msg) }

func (e *Entry) Fatal(msg string) {
	e.log(LevelFatal, msg)
	e.logger.exit(1)
}

func (e *Entry) Debugf(format string, args ...any) { e.log(LevelDebug, fmt.Sprintf(format, args...)) }
func (e *Entry) Infof(format string, args ...any)  { e.log(LevelInfo, fmt.Sprintf(format, args...)) }
func (e *Entry) Warnf(format string, args ...any)  { e.log(LevelWarn, fmt.Sprintf(format, args...)) }
func (e *Entry) Errorf(format string, args ...any) { e.log(LevelError, fmt.Sprintf(format, args...)) }

func (e *Entry) Fatalf(format string, args ...any) {
	e.log(LevelFatal, fmt.Sprintf(format, args...))
	e.logger.exit(1)
}
