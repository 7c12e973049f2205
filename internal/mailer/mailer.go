// Package mailer sends group invite emails over SMTP.
package mailer

import (
	"fmt"
	"log/slog"
	"net/smtp"
)

// Mailer sends a plain-text email to one recipient.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPConfig holds the SMTP connection settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail through an authenticated SMTP relay.
type SMTPMailer struct {
	config SMTPConfig
}

// NewSMTPMailer creates a mailer for the given SMTP relay, or an error when
// the configuration is incomplete.
func NewSMTPMailer(config SMTPConfig) (*SMTPMailer, error) {
	if config.Host == "" || config.Port == "" || config.Username == "" || config.Password == "" {
		return nil, fmt.Errorf("incomplete SMTP configuration")
	}
	if config.From == "" {
		config.From = config.Username
	}
	return &SMTPMailer{config: config}, nil
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	auth := smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	msg := []byte("From: " + m.config.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" +
		body + "\r\n")

	if err := smtp.SendMail(m.config.Host+":"+m.config.Port, auth, m.config.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// LogMailer logs instead of sending. Used when SMTP is not configured, so
// invites still work in development without a relay.
type LogMailer struct{}

func (LogMailer) Send(to, subject, _ string) error {
	slog.Info("email suppressed (no SMTP configured)", "to", to, "subject", subject)
	return nil
}
