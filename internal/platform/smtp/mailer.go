// Package smtp sends alert emails through a plain SMTP relay. The
// standard library client is enough here: one relay, plain text, no
// attachments.
package smtp

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"streamlog/internal/platform/config"
)

type Mailer struct {
	addr string
	from string
	auth smtp.Auth
}

// New builds a mailer from configuration. Returns nil when no relay is
// configured.
func New(cfg config.SMTP) *Mailer {
	if cfg.Addr == "" {
		return nil
	}
	var auth smtp.Auth
	if cfg.Username != "" {
		host := cfg.Addr
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, host)
	}
	return &Mailer{addr: cfg.Addr, from: cfg.From, auth: auth}
}

// Send delivers one plain-text message. net/smtp has no context
// support; the connection-level timeouts of the relay bound the call.
func (m *Mailer) Send(_ context.Context, to []string, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		m.from, strings.Join(to, ", "), subject, body)
	if err := smtp.SendMail(m.addr, m.auth, m.from, to, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
