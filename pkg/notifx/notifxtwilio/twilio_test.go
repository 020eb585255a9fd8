package notifxtwilio_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Abraxas-365/contractorconnect/pkg/config"
	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	"github.com/Abraxas-365/contractorconnect/pkg/notifx"
	"github.com/Abraxas-365/contractorconnect/pkg/notifx/notifxtwilio"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeAPI struct {
	params *twilioApi.CreateMessageParams
	err    error
}

func (f *fakeAPI) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM123"
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

var creds = config.TwilioConfig{
	AccountSID:     "AC1",
	AuthToken:      "tok",
	PhoneNumber:    "+15550001111",
	WhatsAppNumber: "+14155238886",
}

// --- Address tests ---

func TestE164(t *testing.T) {
	if got := notifxtwilio.E164("9876543210", "+91"); got != "+919876543210" {
		t.Fatalf("got %q", got)
	}
	if got := notifxtwilio.E164("+447700900000", "+91"); got != "+447700900000" {
		t.Fatalf("international number must be kept, got %q", got)
	}
}

func TestWhatsAppAddress(t *testing.T) {
	if got := notifxtwilio.WhatsAppAddress("9876543210", "+91"); got != "whatsapp:+919876543210" {
		t.Fatalf("got %q", got)
	}
	if got := notifxtwilio.WhatsAppAddress("whatsapp:+1555", "+91"); got != "whatsapp:+1555" {
		t.Fatalf("prefixed address must be kept, got %q", got)
	}
}

// --- Provider tests ---

func TestSMSProvider_Send(t *testing.T) {
	api := &fakeAPI{}
	p, err := notifxtwilio.NewSMSProvider(api, creds, "+91")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := p.Send(context.Background(), "9876543210", "123456", "login")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.MessageID != "SM123" || res.Provider != "sms_twilio" {
		t.Fatalf("unexpected result %+v", res)
	}
	if *api.params.To != "+919876543210" || *api.params.From != creds.PhoneNumber {
		t.Fatalf("unexpected addressing to=%s from=%s", *api.params.To, *api.params.From)
	}
	if *api.params.Body != notifx.FormatMessage("123456", "login") {
		t.Fatalf("unexpected body %q", *api.params.Body)
	}
}

func TestWhatsAppProvider_Send(t *testing.T) {
	api := &fakeAPI{}
	p, err := notifxtwilio.NewWhatsAppProvider(api, creds, "+91")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := p.Send(context.Background(), "9876543210", "123456", "registration"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *api.params.To != "whatsapp:+919876543210" || *api.params.From != "whatsapp:+14155238886" {
		t.Fatalf("unexpected addressing to=%s from=%s", *api.params.To, *api.params.From)
	}
}

func TestProvider_AddressesPhonesOnly(t *testing.T) {
	p, err := notifxtwilio.NewSMSProvider(&fakeAPI{}, creds, "+91")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.CanAddress("9876543210") {
		t.Fatal("expected phone number to be addressable")
	}
	if p.CanAddress("asha@greenpark.in") {
		t.Fatal("email must not be addressable over SMS")
	}
}

func TestProvider_APIError(t *testing.T) {
	p, _ := notifxtwilio.NewSMSProvider(&fakeAPI{err: errors.New("21211 invalid number")}, creds, "+91")
	_, err := p.Send(context.Background(), "1", "123456", "login")
	if !errx.IsCode(err, notifx.ErrSendFailed) {
		t.Fatalf("expected send failed, got %v", err)
	}
}

func TestProvider_MissingCredentials(t *testing.T) {
	_, err := notifxtwilio.NewSMSProvider(&fakeAPI{}, config.TwilioConfig{AccountSID: "AC1"}, "+91")
	if !errx.IsCode(err, notifx.ErrProviderNotConfigured) {
		t.Fatalf("expected not configured, got %v", err)
	}

	noWhatsApp := creds
	noWhatsApp.WhatsAppNumber = ""
	if _, err := notifxtwilio.NewWhatsAppProvider(&fakeAPI{}, noWhatsApp, "+91"); err == nil {
		t.Fatal("expected error without a WhatsApp sender number")
	}
}
