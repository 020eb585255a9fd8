package notifx

import (
	"context"
	"strings"
)

// Provider delivers an OTP code to a recipient over one channel.
type Provider interface {
	Name() string
	Send(ctx context.Context, recipient, code, purpose string) (DeliveryResult, error)
}

// Addresser is implemented by providers that can only reach some recipients.
// Providers without it are assumed to reach anyone.
type Addresser interface {
	CanAddress(recipient string) bool
}

// IsEmailAddress reports whether recipient is an email rather than a phone number.
func IsEmailAddress(recipient string) bool {
	return strings.Contains(recipient, "@")
}

// EmailSender sends a single email. Email providers are built on top of it.
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage, opts ...Option) (string, error)
}

// EmailProvider adapts an EmailSender into an OTP Provider, rendering the
// plain-text body and the HTML template for every message.
type EmailProvider struct {
	name      string
	sender    EmailSender
	from      string
	fromName  string
	templates *TemplateRegistry
	opts      []Option
}

// NewEmailProvider creates an OTP email provider over sender.
func NewEmailProvider(name string, sender EmailSender, from, fromName string, opts ...Option) (*EmailProvider, error) {
	if sender == nil {
		return nil, NewNotConfiguredError(name, "sender")
	}
	return &EmailProvider{
		name:      name,
		sender:    sender,
		from:      from,
		fromName:  fromName,
		templates: DefaultTemplates(),
		opts:      opts,
	}, nil
}

func (p *EmailProvider) Name() string { return p.name }

func (p *EmailProvider) CanAddress(recipient string) bool { return IsEmailAddress(recipient) }

// Send renders and sends the OTP email.
func (p *EmailProvider) Send(ctx context.Context, recipient, code, purpose string) (DeliveryResult, error) {
	if recipient == "" {
		return DeliveryResult{}, notifxErrors.New(ErrInvalidMessage).WithDetail("reason", "no recipient")
	}

	html, err := p.templates.Render(OTPEmailTemplateName, otpData(code, purpose))
	if err != nil {
		return DeliveryResult{}, err
	}

	msg := EmailMessage{
		From:     p.from,
		FromName: p.fromName,
		To:       []string{recipient},
		Subject:  EmailSubject(code),
		TextBody: FormatMessage(code, purpose),
		HTMLBody: html,
	}

	messageID, err := p.sender.SendEmail(ctx, msg, p.opts...)
	if err != nil {
		return DeliveryResult{}, NewSendError(p.name, err).WithDetail("recipient", recipient)
	}

	return DeliveryResult{
		Success:   true,
		Provider:  p.name,
		MessageID: messageID,
		Recipient: recipient,
		Status:    "sent",
	}, nil
}
