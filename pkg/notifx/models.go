package notifx

import (
	"errors"
	"strings"
)

// Channel is the closed set of delivery providers that can be configured.
type Channel string

const (
	ChannelConsole        Channel = "console"
	ChannelEmail          Channel = "email"
	ChannelEmailSES       Channel = "email_ses"
	ChannelSMSTwilio      Channel = "sms_twilio"
	ChannelWhatsAppTwilio Channel = "whatsapp_twilio"
	ChannelSMSMSG91       Channel = "sms_msg91"

	// ChannelNone disables the fallback provider
	ChannelNone Channel = "none"
)

// ParseChannel maps a configuration value onto a Channel.
func ParseChannel(s string) (Channel, error) {
	ch := Channel(strings.ToLower(strings.TrimSpace(s)))
	switch ch {
	case ChannelConsole, ChannelEmail, ChannelEmailSES, ChannelSMSTwilio,
		ChannelWhatsAppTwilio, ChannelSMSMSG91, ChannelNone:
		return ch, nil
	case "":
		return ChannelNone, nil
	default:
		return "", notifxErrors.New(ErrUnknownChannel).WithDetail("channel", s)
	}
}

// DeliveryResult is what a provider reports for one accepted message.
type DeliveryResult struct {
	Success   bool   `json:"success"`
	Provider  string `json:"provider"`
	MessageID string `json:"message_id,omitempty"`
	Recipient string `json:"recipient"`
	Status    string `json:"status,omitempty"`
}

// DeliveryOutcome is the result of a primary attempt plus an optional fallback.
// It never turns into an error for the caller; OK=false means nothing was delivered.
type DeliveryOutcome struct {
	OK           bool           `json:"ok"`
	Result       DeliveryResult `json:"result"`
	UsedFallback bool           `json:"used_fallback"`
	PrimaryErr   error          `json:"-"`
	FallbackErr  error          `json:"-"`
}

// Err joins the provider errors, nil when delivery succeeded.
func (o DeliveryOutcome) Err() error {
	if o.OK {
		return nil
	}
	return errors.Join(o.PrimaryErr, o.FallbackErr)
}

// EmailMessage represents an email to be sent.
type EmailMessage struct {
	From     string   `json:"from"`
	FromName string   `json:"from_name,omitempty"`
	To       []string `json:"to"`
	ReplyTo  string   `json:"reply_to,omitempty"`
	Subject  string   `json:"subject"`
	TextBody string   `json:"text_body,omitempty"`
	HTMLBody string   `json:"html_body,omitempty"`
}
