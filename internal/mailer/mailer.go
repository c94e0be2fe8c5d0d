// Package mailer sends transactional email (premium receipts) over SMTP.
// In development it points at Mailtrap (smtp.mailtrap.io:2525).
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// ErrNotConfigured is returned when SMTP credentials are missing.
var ErrNotConfigured = errors.New("smtp mailer not configured")

// Config holds SMTP settings.
type Config struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// SMTPMailer sends mail with net/smtp and PLAIN auth.
type SMTPMailer struct {
	cfg      Config
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New validates the config and returns a mailer.
func New(cfg Config) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.User == "" || cfg.Pass == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Port == "" {
		cfg.Port = "2525"
	}
	if cfg.From == "" {
		return nil, errors.New("sender email address cannot be empty")
	}
	return &SMTPMailer{cfg: cfg, sendMail: smtp.SendMail}, nil
}

// Send delivers one message. HTML bodies are detected from <html> or <p> tags.
// net/smtp has no context support; ctx is only checked before dialing.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return errors.New("recipient email address cannot be empty")
	}
	if subject == "" {
		return errors.New("email subject cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)
	if err := m.sendMail(addr, auth, m.cfg.From, []string{to}, buildMessage(m.cfg.From, to, subject, body)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	contentType := "text/plain; charset=UTF-8"
	lower := strings.ToLower(body)
	if strings.Contains(lower, "<html>") || strings.Contains(lower, "<p>") {
		contentType = "text/html; charset=UTF-8"
	}

	return []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: %s\r\n"+
		"\r\n"+
		"%s\r\n", to, from, subject, contentType, body))
}
