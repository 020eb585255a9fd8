package logx

import (
	"encoding/json"
	"time"
)

// JSONFormatter writes one JSON object per line. Fields are flattened into
// the object; reserved keys win over fields of the same name.
type JSONFormatter struct {
	config *Config
	keys   jsonKeys
}

type jsonKeys struct {
	message, time string
}

func NewJSONFormatter(config *Config) *JSONFormatter {
	return &JSONFormatter{config: config, keys: jsonKeys{message: "message", time: "timestamp"}}
}

func (f *JSONFormatter) Format(entry *LogEntry) ([]byte, error) {
	obj := make(map[string]any, len(entry.Fields)+6)
	for k, v := range entry.Fields {
		obj[k] = v
	}

	obj["level"] = entry.Level.String()
	obj[f.keys.message] = entry.Message
	if f.config.Service != "" {
		obj["service"] = f.config.Service
	}
	if f.config.EnableTimestamp {
		obj[f.keys.time] = f.timestamp(entry.Timestamp)
	}
	if f.config.EnableCaller && entry.Caller != "" {
		obj["caller"] = entry.Caller
	}
	if entry.Error != nil {
		obj["error"] = entry.Error.Error()
	}
	if entry.Data != nil {
		obj["data"] = entry.Data
	}

	out, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func (f *JSONFormatter) timestamp(t time.Time) any {
	switch f.config.TimeFormat {
	case "unix":
		return t.Unix()
	case "unixmilli":
		return t.UnixMilli()
	default:
		return t.Format(time.RFC3339Nano)
	}
}

// CloudWatchFormatter is the JSON layout CloudWatch Logs Insights picks up
// without a parse step: "msg" and "time" at the top level.
type CloudWatchFormatter struct {
	*JSONFormatter
}

func NewCloudWatchFormatter(config *Config) *CloudWatchFormatter {
	jf := NewJSONFormatter(config)
	jf.keys = jsonKeys{message: "msg", time: "time"}
	return &CloudWatchFormatter{JSONFormatter: jf}
}

// Format always stamps the time in RFC 3339, whatever TimeFormat says.
func (f *CloudWatchFormatter) Format(entry *LogEntry) ([]byte, error) {
	cfg := *f.config
	cfg.EnableTimestamp = true
	cfg.TimeFormat = time.RFC3339Nano
	inner := &JSONFormatter{config: &cfg, keys: f.keys}
	return inner.Format(entry)
}
