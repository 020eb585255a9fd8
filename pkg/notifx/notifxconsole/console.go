package notifxconsole

import (
	"context"

	"github.com/Abraxas-365/contractorconnect/pkg/logx"
	"github.com/Abraxas-365/contractorconnect/pkg/notifx"
)

// ConsoleProvider prints OTPs to the terminal via logx. Intended for development and testing.
type ConsoleProvider struct{}

// NewConsoleProvider creates a new console provider.
func NewConsoleProvider() *ConsoleProvider {
	return &ConsoleProvider{}
}

func (p *ConsoleProvider) Name() string { return string(notifx.ChannelConsole) }

// Send logs the OTP instead of sending it.
func (p *ConsoleProvider) Send(_ context.Context, recipient, code, purpose string) (notifx.DeliveryResult, error) {
	logx.WithFields(logx.Fields{
		"recipient": logx.Reveal(recipient),
		"purpose":   purpose,
		"code":      logx.Reveal(code),
	}).Info("notifx/console: OTP issued (dev mode)")
	logx.Debugf("notifx/console: message body:\n%s", notifx.FormatMessage(code, purpose))

	return notifx.DeliveryResult{
		Success:   true,
		Provider:  p.Name(),
		MessageID: "console_" + code,
		Recipient: recipient,
		Status:    "logged",
	}, nil
}
