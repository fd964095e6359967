package worker

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// SMTPConfig holds SMTP sender configuration.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers emails over plain SMTP with optional auth.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender creates an SMTP sender.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send delivers one email. The context is not honored mid-connection; SMTP
// dialing is bounded by the server's own timeouts.
func (s *SMTPSender) Send(_ context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogSender logs emails instead of delivering them. For development setups
// without an SMTP server.
type LogSender struct {
	Logger *zap.Logger
}

// Send logs the email.
func (s *LogSender) Send(_ context.Context, to, subject, _ string) error {
	s.Logger.Info("email (not sent, log sender)",
		zap.String("to", to), zap.String("subject", subject))
	return nil
}
