package notify

import (
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// Config carries the SMTP settings for order notifications.
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// Emailer sends order confirmation emails. An unconfigured emailer is
// a no-op, so the ordering flow works without SMTP set up.
type Emailer struct {
	cfg Config
}

// NewEmailer creates an emailer from config.
func NewEmailer(cfg Config) *Emailer {
	return &Emailer{cfg: cfg}
}

// Enabled reports whether sending is configured.
func (e *Emailer) Enabled() bool {
	return e != nil && e.cfg.Host != "" && e.cfg.From != "" && e.cfg.To != ""
}

// SendOrderConfirmation mails the confirmed order summary to the
// restaurant's order inbox.
func (e *Emailer) SendOrderConfirmation(subject, body string) error {
	if !e.Enabled() {
		return nil
	}

	port := e.cfg.Port
	if port == 0 {
		port = 587
	}
	addr := net.JoinHostPort(e.cfg.Host, fmt.Sprintf("%d", port))

	msg := strings.Join([]string{
		"From: " + e.cfg.From,
		"To: " + e.cfg.To,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, e.cfg.From, []string{e.cfg.To}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send order email: %w", err)
	}
	return nil
}
