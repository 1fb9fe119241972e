package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// Mailer delivers a single email.
type Mailer interface {
	Send(ctx context.Context, payload SendEmailPayload) error
}

// SMTPMailer sends mail through an unauthenticated SMTP relay such as Mailpit.
type SMTPMailer struct {
	Addr string
	From string
}

// NewSMTPMailer builds a mailer for host:port.
func NewSMTPMailer(host string, port int, from string) *SMTPMailer {
	return &SMTPMailer{Addr: net.JoinHostPort(host, strconv.Itoa(port)), From: from}
}

// Send delivers the payload as a plain-text message.
func (m *SMTPMailer) Send(ctx context.Context, payload SendEmailPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := smtp.SendMail(m.Addr, nil, m.From, []string{payload.To}, buildMessage(m.From, payload)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func buildMessage(from string, payload SendEmailPayload) []byte {
	var b strings.Builder
	b.WriteString("From: " + sanitizeHeader(from) + "\r\n")
	b.WriteString("To: " + sanitizeHeader(payload.To) + "\r\n")
	b.WriteString("Subject: " + sanitizeHeader(payload.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(payload.Body)
	return []byte(b.String())
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}

// LogMailer writes emails to the log instead of sending them. It is used
// when no SMTP host is configured.
type LogMailer struct {
	Logger *slog.Logger
}

// Send logs the envelope of the payload.
func (m LogMailer) Send(_ context.Context, payload SendEmailPayload) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("mail (log only)", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}

var (
	_ Mailer = (*SMTPMailer)(nil)
	_ Mailer = LogMailer{}
)
