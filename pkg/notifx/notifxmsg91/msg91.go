package notifxmsg91

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/config"
	"github.com/Abraxas-365/contractorconnect/pkg/notifx"
)

const defaultTimeout = 10 * time.Second

// Provider sends OTPs through the MSG91 OTP API.
type Provider struct {
	cfg           config.MSG91Config
	countryPrefix string
	httpClient    *http.Client
}

// NewProvider builds the "sms_msg91" provider. httpClient may be nil.
func NewProvider(cfg config.MSG91Config, countryPrefix string, httpClient *http.Client) (*Provider, error) {
	if cfg.AuthKey == "" {
		return nil, notifx.NewNotConfiguredError(string(notifx.ChannelSMSMSG91), "MSG91_AUTH_KEY")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Provider{
		cfg:           cfg,
		countryPrefix: countryPrefix,
		httpClient:    httpClient,
	}, nil
}

func (p *Provider) Name() string { return string(notifx.ChannelSMSMSG91) }

func (p *Provider) CanAddress(recipient string) bool { return !notifx.IsEmailAddress(recipient) }

type sendRequest struct {
	Mobile     string `json:"mobile"`
	OTP        string `json:"otp"`
	Sender     string `json:"sender"`
	Route      string `json:"route"`
	TemplateID string `json:"template_id,omitempty"`
	Message    string `json:"message"`
}

type sendResponse struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// Send posts the OTP to MSG91. A response whose type is not "success" is a failure.
func (p *Provider) Send(ctx context.Context, recipient, code, purpose string) (notifx.DeliveryResult, error) {
	mobile := Mobile(recipient, p.countryPrefix)

	payload, err := json.Marshal(sendRequest{
		Mobile:     mobile,
		OTP:        code,
		Sender:     p.cfg.SenderID,
		Route:      p.cfg.Route,
		TemplateID: p.cfg.TemplateID,
		Message:    notifx.FormatMessage(code, purpose),
	})
	if err != nil {
		return notifx.DeliveryResult{}, notifx.NewSendError(p.Name(), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return notifx.DeliveryResult{}, notifx.NewSendError(p.Name(), err)
	}
	req.Header.Set("authkey", p.cfg.AuthKey)
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return notifx.DeliveryResult{}, notifx.NewSendError(p.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return notifx.DeliveryResult{}, notifx.NewSendError(p.Name(), err)
	}

	var out sendResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return notifx.DeliveryResult{}, notifx.NewSendError(p.Name(), fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	if resp.StatusCode >= 300 || out.Type != "success" {
		return notifx.DeliveryResult{}, notifx.NewSendError(p.Name(), fmt.Errorf("status %d: %s", resp.StatusCode, out.Message)).
			WithDetail("response_type", out.Type)
	}

	messageID := out.RequestID
	if messageID == "" {
		messageID = out.Message
	}

	return notifx.DeliveryResult{
		Success:   true,
		Provider:  p.Name(),
		MessageID: messageID,
		Recipient: recipient,
		Status:    out.Type,
	}, nil
}

// Mobile formats a number the way MSG91 expects: country code and digits, no "+".
func Mobile(number, countryPrefix string) string {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, "+") {
		return strings.TrimPrefix(number, "+")
	}
	return strings.TrimPrefix(countryPrefix, "+") + number
}
