package mailer

import (
	"gopkg.in/gomail.v2"

	"github.com/noah-isme/ideation-portal-api/pkg/config"
)

// Mailer delivers plain-text mail over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// New constructs a mailer from SMTP settings.
func New(cfg config.MailerConfig) *Mailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &Mailer{dialer: dialer, from: cfg.From}
}

// Send delivers a single message to one recipient.
func (m *Mailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}
