package logx

import (
	"fmt"
	"strings"
)

const (
	ansiReset    = "\033[0m"
	ansiRed      = "\033[31m"
	ansiGray     = "\033[90m"
	ansiCyan     = "\033[36m"
	ansiWhite    = "\033[97m"
	ansiBoldRed  = "\033[1;31m"
	ansiBoldYel  = "\033[1;33m"
	ansiBoldCyan = "\033[1;36m"
	ansiBoldGrn  = "\033[1;32m"
)

var levelColors = map[Level]string{
	LevelTrace: ansiGray,
	LevelDebug: ansiBoldCyan,
	LevelInfo:  ansiBoldGrn,
	LevelWarn:  ansiBoldYel,
	LevelError: ansiBoldRed,
	LevelFatal: ansiBoldRed,
}

// ConsoleFormatter writes one human-readable line per entry, fields sorted by key.
type ConsoleFormatter struct {
	config *Config
}

func NewConsoleFormatter(config *Config) *ConsoleFormatter {
	return &ConsoleFormatter{config: config}
}

func (f *ConsoleFormatter) paint(b *strings.Builder, color, s string) {
	if f.config.EnableColors && color != "" {
		b.WriteString(color)
		b.WriteString(s)
		b.WriteString(ansiReset)
		return
	}
	b.WriteString(s)
}

func (f *ConsoleFormatter) Format(entry *LogEntry) ([]byte, error) {
	var b strings.Builder

	if f.config.EnableTimestamp {
		f.paint(&b, ansiGray, formatTimestamp(entry.Timestamp, f.config.TimeFormat))
		b.WriteByte(' ')
	}

	f.paint(&b, levelColors[entry.Level], fmt.Sprintf("[%-5s]", entry.Level))
	b.WriteByte(' ')

	if f.config.EnableCaller && entry.Caller != "" {
		f.paint(&b, ansiGray, "["+entry.Caller+"]")
		b.WriteByte(' ')
	}

	f.paint(&b, ansiWhite, entry.Message)

	if len(entry.Fields) > 0 {
		pairs := make([]string, 0, len(entry.Fields))
		for _, k := range entry.Fields.sortedKeys() {
			pairs = append(pairs, fmt.Sprintf("%s=%v", k, entry.Fields[k]))
		}
		b.WriteByte(' ')
		f.paint(&b, ansiCyan, strings.Join(pairs, " "))
	}

	if entry.Error != nil {
		b.WriteString("\n  ")
		f.paint(&b, ansiRed, "error: "+entry.Error.Error())
	}
	b.WriteByte('\n')

	if entry.Data != nil {
		for _, line := range strings.Split(prettyJSON(entry.Data), "\n") {
			b.WriteString("  ")
			f.paint(&b, ansiGray, line)
			b.WriteByte('\n')
		}
	}

	return []byte(b.String()), nil
}
