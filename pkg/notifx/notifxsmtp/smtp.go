package notifxsmtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/config"
	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	"github.com/Abraxas-365/contractorconnect/pkg/notifx"
	"github.com/google/uuid"
)

var smtpErrors = errx.NewRegistry("NOTIFX_SMTP")

var (
	ErrConnect = smtpErrors.Register("CONNECT", errx.TypeExternal, 502, "SMTP connection failed")
	ErrAuth    = smtpErrors.Register("AUTH", errx.TypeExternal, 502, "SMTP authentication failed")
	ErrSend    = smtpErrors.Register("SEND", errx.TypeExternal, 502, "SMTP send failed")
)

const dialTimeout = 30 * time.Second

// SMTPSender implements notifx.EmailSender over SMTP. Port 465 uses implicit
// TLS, any other port upgrades with STARTTLS.
type SMTPSender struct {
	cfg config.SMTPConfig
}

// NewSMTPSender creates a sender for cfg.
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// SendEmail delivers msg and returns the generated Message-ID.
func (s *SMTPSender) SendEmail(ctx context.Context, msg notifx.EmailMessage, _ ...notifx.Option) (string, error) {
	from := msg.From
	if from == "" {
		from = s.cfg.From
	}
	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.cfg.Host)

	raw, err := BuildMessage(msg, from, messageID)
	if err != nil {
		return "", smtpErrors.NewWithCause(ErrSend, err)
	}

	client, err := s.dial(ctx)
	if err != nil {
		return "", smtpErrors.NewWithCause(ErrConnect, err).WithDetail("host", s.cfg.Host).WithDetail("port", s.cfg.Port)
	}
	defer client.Close()

	if s.cfg.User != "" {
		if err := client.Auth(smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)); err != nil {
			return "", smtpErrors.NewWithCause(ErrAuth, err)
		}
	}

	if err := client.Mail(from); err != nil {
		return "", smtpErrors.NewWithCause(ErrSend, err).WithDetail("stage", "MAIL FROM")
	}
	for _, to := range msg.To {
		if err := client.Rcpt(to); err != nil {
			return "", smtpErrors.NewWithCause(ErrSend, err).WithDetail("stage", "RCPT TO").WithDetail("to", to)
		}
	}

	w, err := client.Data()
	if err != nil {
		return "", smtpErrors.NewWithCause(ErrSend, err).WithDetail("stage", "DATA")
	}
	if _, err := w.Write(raw); err != nil {
		return "", smtpErrors.NewWithCause(ErrSend, err).WithDetail("stage", "DATA")
	}
	if err := w.Close(); err != nil {
		return "", smtpErrors.NewWithCause(ErrSend, err).WithDetail("stage", "DATA")
	}

	_ = client.Quit()
	return messageID, nil
}

func (s *SMTPSender) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	dialer := &net.Dialer{Timeout: dialTimeout}
	tlsCfg := &tls.Config{ServerName: s.cfg.Host}

	if s.cfg.Port == 465 {
		conn, err := tls.DialWithDialer(dialer, "tcp", addr, tlsCfg)
		if err != nil {
			return nil, err
		}
		return smtp.NewClient(conn, s.cfg.Host)
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(tlsCfg); err != nil {
			client.Close()
			return nil, err
		}
	}
	return client, nil
}

// BuildMessage renders msg as a multipart/alternative RFC 5322 message.
func BuildMessage(msg notifx.EmailMessage, from, messageID string) ([]byte, error) {
	var buf bytes.Buffer

	fromHeader := from
	if msg.FromName != "" {
		fromHeader = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", msg.FromName), from)
	}

	mw := multipart.NewWriter(&buf)
	headers := []string{
		"From: " + fromHeader,
		"To: " + strings.Join(msg.To, ", "),
		"Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject),
		"Message-ID: " + messageID,
		"Date: " + time.Now().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=" + mw.Boundary(),
	}
	if msg.ReplyTo != "" {
		headers = append(headers, "Reply-To: "+msg.ReplyTo)
	}

	var out bytes.Buffer
	out.WriteString(strings.Join(headers, "\r\n"))
	out.WriteString("\r\n\r\n")

	if msg.TextBody != "" {
		if err := writePart(mw, "text/plain", msg.TextBody); err != nil {
			return nil, err
		}
	}
	if msg.HTMLBody != "" {
		if err := writePart(mw, "text/html", msg.HTMLBody); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	out.Write(buf.Bytes())
	return out.Bytes(), nil
}

func writePart(mw *multipart.Writer, contentType, body string) error {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", contentType+"; charset=UTF-8")
	h.Set("Content-Transfer-Encoding", "8bit")
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write([]byte(body))
	return err
}

// NewProvider builds the "email" OTP provider. Host, user and password are required.
func NewProvider(cfg config.SMTPConfig) (*notifx.EmailProvider, error) {
	switch {
	case cfg.Host == "":
		return nil, notifx.NewNotConfiguredError(string(notifx.ChannelEmail), "SMTP_HOST")
	case cfg.User == "":
		return nil, notifx.NewNotConfiguredError(string(notifx.ChannelEmail), "SMTP_USER")
	case cfg.Password == "":
		return nil, notifx.NewNotConfiguredError(string(notifx.ChannelEmail), "SMTP_PASSWORD")
	}
	return notifx.NewEmailProvider(string(notifx.ChannelEmail), NewSMTPSender(cfg), cfg.From, cfg.FromName)
}
