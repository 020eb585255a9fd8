package logx

import (
	"io"
	"os"
	"strings"
	"time"
)

// Format selects the output encoding.
type Format string

const (
	FormatConsole    Format = "console"
	FormatJSON       Format = "json"
	FormatCloudWatch Format = "cloudwatch"
)

// Config holds the logger configuration.
type Config struct {
	Level  Level
	Format Format

	// EnableColors only applies to the console format
	EnableColors    bool
	EnableCaller    bool
	EnableTimestamp bool

	// TimeFormat is a layout, or "unix" / "unixmilli"
	TimeFormat string

	// Service is stamped on every JSON and CloudWatch entry
	Service string

	// Redact masks OTP codes, tokens and contact details in fields.
	// Values wrapped with Reveal are always printed as is.
	Redact bool

	Output io.Writer
}

func DefaultConfig() *Config {
	return &Config{
		Level:           LevelInfo,
		Format:          FormatConsole,
		EnableColors:    true,
		EnableTimestamp: true,
		TimeFormat:      time.RFC3339,
		Service:         "contractorconnect",
		Redact:          true,
		Output:          os.Stdout,
	}
}

// LoadFromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_SERVICE, LOG_COLOR,
// LOG_CALLER, LOG_REDACT and LOG_TIME_FORMAT on top of the defaults.
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Level = ParseLevel(v)
	}

	switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
	case "json":
		cfg.Format = FormatJSON
	case "cloudwatch":
		cfg.Format = FormatCloudWatch
	case "console":
		cfg.Format = FormatConsole
	}

	if v := os.Getenv("LOG_SERVICE"); v != "" {
		cfg.Service = v
	}
	if v, ok := envBool("LOG_COLOR"); ok {
		cfg.EnableColors = v
	}
	if v, ok := envBool("LOG_CALLER"); ok {
		cfg.EnableCaller = v
	}
	if v, ok := envBool("LOG_REDACT"); ok {
		cfg.Redact = v
	}

	switch v := os.Getenv("LOG_TIME_FORMAT"); strings.ToUpper(v) {
	case "":
	case "RFC3339":
		cfg.TimeFormat = time.RFC3339
	case "RFC3339NANO":
		cfg.TimeFormat = time.RFC3339Nano
	case "UNIX":
		cfg.TimeFormat = "unix"
	case "UNIXMILLI":
		cfg.TimeFormat = "unixmilli"
	default:
		cfg.TimeFormat = v
	}

	return cfg
}

func envBool(key string) (bool, bool) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "":
		return false, false
	case "1", "true", "yes", "on":
		return true, true
	default:
		return false, true
	}
}
