package mail

import (
	"context"

	"gopkg.in/gomail.v2"
)

// SMTP sends through a plain SMTP relay.
type SMTP struct {
	dialer *gomail.Dialer
}

func NewSMTP(host string, port int, username, password string) *SMTP {
	return &SMTP{dialer: gomail.NewDialer(host, port, username, password)}
}

func (s *SMTP) Name() string { return "smtp" }

// Send ignores ctx: gomail has no cancellation hook.
func (s *SMTP) Send(_ context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", msg.From.Email, msg.From.Name)

	to := make([]string, 0, len(msg.To))
	for _, a := range msg.To {
		to = append(to, m.FormatAddress(a.Email, a.Name))
	}
	m.SetHeader("To", to...)
	if msg.ReplyTo != nil {
		m.SetAddressHeader("Reply-To", msg.ReplyTo.Email, msg.ReplyTo.Name)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	return s.dialer.DialAndSend(m)
}
