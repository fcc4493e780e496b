package testkit

import (
	"context"
	"sync"
	"testing"

	"github.com/artisansally/ally/pkg/mail"
)

// Mailbox is a mail.Driver that records messages instead of sending them.
type Mailbox struct {
	mu   sync.Mutex
	sent []mail.Message
	// Err, when set, is returned from every Send.
	Err error
}

// CaptureMail installs a Mailbox as the active mail driver for the test.
func CaptureMail(t testing.TB) *Mailbox {
	t.Helper()
	prev := mail.Current()
	mb := &Mailbox{}
	mail.Use(mb)
	t.Cleanup(func() { mail.Use(prev) })
	return mb
}

func (*Mailbox) Name() string { return "mailbox" }

func (m *Mailbox) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *Mailbox) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

// Last returns the most recent message, or false when none was sent.
func (m *Mailbox) Last() (mail.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return mail.Message{}, false
	}
	return m.sent[len(m.sent)-1], true
}
