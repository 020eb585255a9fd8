package notifxses

import (
	"context"
	"fmt"

	"github.com/Abraxas-365/contractorconnect/pkg/notifx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// API is the subset of the SES client used here.
type API interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender implements notifx.EmailSender using AWS SES.
type SESSender struct {
	client      API
	fromAddress string
}

// NewSESSender creates a new SES email sender.
func NewSESSender(client API, fromAddress string) *SESSender {
	return &SESSender{
		client:      client,
		fromAddress: fromAddress,
	}
}

// SendEmail sends a single email via SES and returns the SES message id.
func (p *SESSender) SendEmail(ctx context.Context, msg notifx.EmailMessage, opts ...notifx.Option) (string, error) {
	if len(msg.To) == 0 {
		return "", sesErrors.New(ErrBuildMessage).WithDetail("reason", "no recipients")
	}

	from := msg.From
	if from == "" {
		from = p.fromAddress
	}
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", msg.FromName, from)
	}

	body := &types.Body{}
	if msg.TextBody != "" {
		body.Text = &types.Content{
			Data:    aws.String(msg.TextBody),
			Charset: aws.String("UTF-8"),
		}
	}
	if msg.HTMLBody != "" {
		body.Html = &types.Content{
			Data:    aws.String(msg.HTMLBody),
			Charset: aws.String("UTF-8"),
		}
	}

	input := &ses.SendEmailInput{
		Source:      aws.String(from),
		Destination: &types.Destination{ToAddresses: msg.To},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(msg.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: body,
		},
	}

	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}

	so := notifx.ApplySendOptions(opts)
	if so.ConfigID != "" {
		input.ConfigurationSetName = aws.String(so.ConfigID)
	}
	for k, v := range so.Tags {
		input.Tags = append(input.Tags, types.MessageTag{Name: aws.String(k), Value: aws.String(v)})
	}

	out, err := p.client.SendEmail(ctx, input)
	if err != nil {
		return "", sesErrors.NewWithCause(ErrSendFailed, err).
			WithDetail("to", msg.To).
			WithDetail("subject", msg.Subject)
	}

	return aws.ToString(out.MessageId), nil
}

// NewProvider builds the "email_ses" OTP provider.
func NewProvider(client API, fromAddress, fromName string) (*notifx.EmailProvider, error) {
	if fromAddress == "" {
		return nil, notifx.NewNotConfiguredError(string(notifx.ChannelEmailSES), "NOTIFX_FROM_ADDRESS")
	}
	return notifx.NewEmailProvider(
		string(notifx.ChannelEmailSES),
		NewSESSender(client, fromAddress),
		fromAddress,
		fromName,
		notifx.WithTags(map[string]string{"category": "otp"}),
	)
}
