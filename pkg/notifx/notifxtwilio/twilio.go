package notifxtwilio

import (
	"context"
	"strings"

	"github.com/Abraxas-365/contractorconnect/pkg/config"
	"github.com/Abraxas-365/contractorconnect/pkg/logx"
	"github.com/Abraxas-365/contractorconnect/pkg/notifx"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// MessageAPI is the subset of the Twilio REST API used here.
type MessageAPI interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// NewMessageAPI builds the Twilio REST client from account credentials.
func NewMessageAPI(cfg config.TwilioConfig) MessageAPI {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return client.Api
}

// Provider sends OTPs as Twilio messages. The same type serves SMS and
// WhatsApp; they differ only in how numbers are addressed.
type Provider struct {
	name       string
	api        MessageAPI
	from       string
	addressFor func(string) string
}

// NewSMSProvider builds the "sms_twilio" provider. National numbers get countryPrefix.
func NewSMSProvider(api MessageAPI, cfg config.TwilioConfig, countryPrefix string) (*Provider, error) {
	if err := requireCredentials(string(notifx.ChannelSMSTwilio), cfg, cfg.PhoneNumber, "TWILIO_PHONE_NUMBER"); err != nil {
		return nil, err
	}
	return &Provider{
		name: string(notifx.ChannelSMSTwilio),
		api:  api,
		from: cfg.PhoneNumber,
		addressFor: func(recipient string) string {
			return E164(recipient, countryPrefix)
		},
	}, nil
}

// NewWhatsAppProvider builds the "whatsapp_twilio" provider.
func NewWhatsAppProvider(api MessageAPI, cfg config.TwilioConfig, countryPrefix string) (*Provider, error) {
	if err := requireCredentials(string(notifx.ChannelWhatsAppTwilio), cfg, cfg.WhatsAppNumber, "TWILIO_WHATSAPP_NUMBER"); err != nil {
		return nil, err
	}
	return &Provider{
		name: string(notifx.ChannelWhatsAppTwilio),
		api:  api,
		from: WhatsAppAddress(cfg.WhatsAppNumber, ""),
		addressFor: func(recipient string) string {
			return WhatsAppAddress(recipient, countryPrefix)
		},
	}, nil
}

func (p *Provider) Name() string { return p.name }

// CanAddress rejects email recipients; Twilio messages need a phone number.
func (p *Provider) CanAddress(recipient string) bool { return !notifx.IsEmailAddress(recipient) }

// Send creates one Twilio message carrying the OTP.
func (p *Provider) Send(_ context.Context, recipient, code, purpose string) (notifx.DeliveryResult, error) {
	to := p.addressFor(recipient)

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(p.from)
	params.SetTo(to)
	params.SetBody(notifx.FormatMessage(code, purpose))

	resp, err := p.api.CreateMessage(params)
	if err != nil {
		return notifx.DeliveryResult{}, notifx.NewSendError(p.name, err).WithDetail("recipient", to)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}

	logx.WithFields(logx.Fields{
		"provider": p.name,
		"to":       to,
		"sid":      sid,
	}).Info("notifx/twilio: message accepted")

	return notifx.DeliveryResult{
		Success:   true,
		Provider:  p.name,
		MessageID: sid,
		Recipient: recipient,
		Status:    "queued",
	}, nil
}

// E164 prefixes national numbers with countryPrefix; numbers already starting
// with "+" are kept.
func E164(number, countryPrefix string) string {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, "+") || countryPrefix == "" {
		return number
	}
	return countryPrefix + number
}

// WhatsAppAddress returns number in Twilio's "whatsapp:+E164" form.
func WhatsAppAddress(number, countryPrefix string) string {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + E164(number, countryPrefix)
}

func requireCredentials(provider string, cfg config.TwilioConfig, from, fromKey string) error {
	switch {
	case cfg.AccountSID == "":
		return notifx.NewNotConfiguredError(provider, "TWILIO_ACCOUNT_SID")
	case cfg.AuthToken == "":
		return notifx.NewNotConfiguredError(provider, "TWILIO_AUTH_TOKEN")
	case from == "":
		return notifx.NewNotConfiguredError(provider, fromKey)
	}
	return nil
}
