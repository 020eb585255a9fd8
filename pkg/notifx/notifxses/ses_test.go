package notifxses_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	"github.com/Abraxas-365/contractorconnect/pkg/notifx"
	"github.com/Abraxas-365/contractorconnect/pkg/notifx/notifxses"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
}

func TestSESProvider_Send(t *testing.T) {
	client := &fakeSES{}
	p, err := notifxses.NewProvider(client, "noreply@x.in", "ContractorConnect")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := p.Send(context.Background(), "user@x.in", "123456", "registration")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.MessageID != "ses-1" || res.Provider != "email_ses" {
		t.Fatalf("unexpected result %+v", res)
	}
	if aws.ToString(client.input.Source) != "ContractorConnect <noreply@x.in>" {
		t.Fatalf("unexpected source %q", aws.ToString(client.input.Source))
	}
	if len(client.input.Tags) != 1 || aws.ToString(client.input.Tags[0].Name) != "category" {
		t.Fatalf("expected category tag, got %+v", client.input.Tags)
	}
}

func TestSESProvider_ClientError(t *testing.T) {
	p, _ := notifxses.NewProvider(&fakeSES{err: errors.New("throttled")}, "noreply@x.in", "")
	_, err := p.Send(context.Background(), "user@x.in", "123456", "login")
	if !errx.IsCode(err, notifx.ErrSendFailed) || !errx.IsCode(err, notifxses.ErrSendFailed) {
		t.Fatalf("expected wrapped SES send error, got %v", err)
	}
}
