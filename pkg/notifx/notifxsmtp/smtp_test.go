package notifxsmtp_test

import (
	"strings"
	"testing"

	"github.com/Abraxas-365/contractorconnect/pkg/config"
	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	"github.com/Abraxas-365/contractorconnect/pkg/notifx"
	"github.com/Abraxas-365/contractorconnect/pkg/notifx/notifxsmtp"
)

func TestBuildMessage(t *testing.T) {
	raw, err := notifxsmtp.BuildMessage(notifx.EmailMessage{
		FromName: "ContractorConnect",
		To:       []string{"a@x.in", "b@x.in"},
		Subject:  "Your ContractorConnect OTP: 123456",
		TextBody: "plain 123456",
		HTMLBody: "<b>123456</b>",
	}, "noreply@x.in", "<id@x.in>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := string(raw)
	for _, want := range []string{
		"To: a@x.in, b@x.in\r\n",
		"Message-ID: <id@x.in>\r\n",
		"<noreply@x.in>",
		"multipart/alternative; boundary=",
		"text/plain; charset=UTF-8",
		"text/html; charset=UTF-8",
		"plain 123456",
		"<b>123456</b>",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("expected %q in message:\n%s", want, s)
		}
	}
}

func TestNewProvider_RequiresCredentials(t *testing.T) {
	_, err := notifxsmtp.NewProvider(config.SMTPConfig{Host: "smtp.x.in", User: "u"})
	if !errx.IsCode(err, notifx.ErrProviderNotConfigured) {
		t.Fatalf("expected not configured, got %v", err)
	}

	p, err := notifxsmtp.NewProvider(config.SMTPConfig{Host: "smtp.x.in", Port: 587, User: "u", Password: "p", From: "u@x.in"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "email" {
		t.Fatalf("expected email provider, got %q", p.Name())
	}
}
