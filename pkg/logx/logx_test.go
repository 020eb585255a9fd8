package logx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Abraxas-365/contractorconnect/pkg/logx"
)

func newLogger(format logx.Format, redact bool) (*logx.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := logx.DefaultConfig()
	cfg.Format = format
	cfg.EnableColors = false
	cfg.EnableTimestamp = false
	cfg.Redact = redact
	cfg.Output = &buf
	return logx.NewLogger(cfg), &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	return m
}

// --- Level tests ---

func TestParseLevel(t *testing.T) {
	cases := map[string]logx.Level{
		"debug":   logx.LevelDebug,
		" WARN ":  logx.LevelWarn,
		"warning": logx.LevelWarn,
		"Error":   logx.LevelError,
		"off":     logx.LevelOff,
		"loud":    logx.LevelInfo,
	}
	for in, want := range cases {
		if got := logx.ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newLogger(logx.FormatConsole, false)
	l.SetLevel(logx.LevelWarn)

	l.WithField("k", 1).Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
	l.WithField("k", 1).Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected warn to pass, got %q", buf.String())
	}

	buf.Reset()
	l.SetLevel(logx.LevelOff)
	l.WithField("k", 1).Error("silenced")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing at LevelOff, got %q", buf.String())
	}
}

// --- Formatter tests ---

func TestConsole_SortedFieldsAndError(t *testing.T) {
	l, buf := newLogger(logx.FormatConsole, false)
	l.WithFields(logx.Fields{"zeta": 1, "alpha": "a", "mid": true}).
		WithError(errors.New("boom")).
		Info("bid accepted")

	out := buf.String()
	if !strings.HasPrefix(out, "[INFO ] bid accepted alpha=a mid=true zeta=1") {
		t.Fatalf("unexpected console line %q", out)
	}
	if !strings.Contains(out, "error: boom") {
		t.Fatalf("expected error line, got %q", out)
	}
}

func TestJSON_ReservedKeysWin(t *testing.T) {
	l, buf := newLogger(logx.FormatJSON, false)
	l.WithFields(logx.Fields{"level": "spoofed", "bid_id": "b-1"}).Warn("stale bid")

	m := decode(t, buf)
	if m["level"] != "WARN" || m["message"] != "stale bid" || m["bid_id"] != "b-1" {
		t.Fatalf("unexpected JSON entry %v", m)
	}
	if m["service"] != "contractorconnect" {
		t.Fatalf("expected service stamp, got %v", m["service"])
	}
}

func TestJSON_StructData(t *testing.T) {
	l, buf := newLogger(logx.FormatJSON, false)
	l.WithField("component", "notifx").WithStruct(map[string]any{"primary": "console"}).Info("configured")

	m := decode(t, buf)
	data, ok := m["data"].(map[string]any)
	if !ok || data["primary"] != "console" {
		t.Fatalf("expected data object, got %v", m["data"])
	}
}

func TestCloudWatch_Layout(t *testing.T) {
	l, buf := newLogger(logx.FormatCloudWatch, false)
	l.WithField("request_id", "r-1").Error("transition failed")

	m := decode(t, buf)
	if m["msg"] != "transition failed" {
		t.Fatalf("expected msg key, got %v", m)
	}
	if _, ok := m["time"].(string); !ok {
		t.Fatalf("expected RFC 3339 time even with timestamps off, got %v", m["time"])
	}
}

// --- Redaction tests ---

func TestRedaction(t *testing.T) {
	l, buf := newLogger(logx.FormatJSON, true)
	l.WithFields(logx.Fields{
		"code":          "482913",
		"Refresh_Token": "eyJhbGciOi",
		"identifier":    "+919876543210",
		"email":         "board@greenpark.in",
		"purpose":       "login",
	}).Info("otp issued")

	m := decode(t, buf)
	if m["code"] != "[REDACTED]" || m["Refresh_Token"] != "[REDACTED]" {
		t.Fatalf("expected secrets to be redacted, got %v", m)
	}
	if m["identifier"] != "+91******3210" {
		t.Fatalf("unexpected masked phone %v", m["identifier"])
	}
	if m["email"] != "b****@greenpark.in" {
		t.Fatalf("unexpected masked email %v", m["email"])
	}
	if m["purpose"] != "login" {
		t.Fatalf("expected plain field untouched, got %v", m["purpose"])
	}
}

func TestRedaction_RevealAndDisabled(t *testing.T) {
	l, buf := newLogger(logx.FormatConsole, true)
	l.WithField("code", logx.Reveal("482913")).Info("dev code")
	if !strings.Contains(buf.String(), "code=482913") {
		t.Fatalf("expected revealed code, got %q", buf.String())
	}

	l, buf = newLogger(logx.FormatJSON, true)
	l.WithField("code", logx.Reveal("482913")).Info("dev code")
	if m := decode(t, buf); m["code"] != "482913" {
		t.Fatalf("expected revealed code in JSON, got %v", m["code"])
	}

	l, buf = newLogger(logx.FormatConsole, false)
	l.WithField("code", "482913").Info("no redaction")
	if !strings.Contains(buf.String(), "code=482913") {
		t.Fatalf("expected raw code with redaction off, got %q", buf.String())
	}
}

func TestMaskContact(t *testing.T) {
	cases := map[string]string{
		"":                "",
		"123":             "***",
		"9876543210":      "******3210",
		"+919876543210":   "+91******3210",
		"a@b.in":          "a***@b.in",
		"ops@build.right": "o***@build.right",
	}
	for in, want := range cases {
		if got := logx.MaskContact(in); got != want {
			t.Fatalf("MaskContact(%q) = %q, want %q", in, got, want)
		}
	}
}

// --- Entry tests ---

func TestEntriesDoNotShareFields(t *testing.T) {
	l, buf := newLogger(logx.FormatJSON, false)
	base := l.WithField("component", "market")

	base.WithField("bid_id", "b-1").Info("first")
	first := decode(t, buf)
	buf.Reset()

	base.Info("second")
	second := decode(t, buf)

	if first["bid_id"] != "b-1" {
		t.Fatalf("expected bid_id on first entry, got %v", first)
	}
	if _, ok := second["bid_id"]; ok {
		t.Fatalf("expected base entry to be unchanged, got %v", second)
	}
	if second["component"] != "market" {
		t.Fatalf("expected shared base field, got %v", second)
	}
}

func TestContextFields(t *testing.T) {
	l, buf := newLogger(logx.FormatJSON, false)

	ctx := logx.NewContext(context.Background(), logx.Fields{"req_id": "req-1"})
	ctx = logx.NewContext(ctx, logx.Fields{"actor_id": "u-1"})

	l.WithField("bid_id", "b-1").WithContext(ctx).Info("accepted")
	m := decode(t, buf)
	if m["req_id"] != "req-1" || m["actor_id"] != "u-1" || m["bid_id"] != "b-1" {
		t.Fatalf("expected context fields merged, got %v", m)
	}

	if logx.FieldsFromContext(context.Background()) != nil {
		t.Fatal("expected no fields on a bare context")
	}
}
