// Package mail sends transactional email through a pluggable Driver.
//
// MAIL_DRIVER selects the backend: "brevo" (HTTP API), "smtp" (gomail) or
// "log" (writes the message to the application log; the default).
//
//	err := mail.Send(ctx, mail.Message{
//	    To:      []mail.Address{{Email: user.Email}},
//	    Subject: "Verify your email",
//	    HTML:    body,
//	})
package mail

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/artisansally/ally/config"
)

// ErrNotConfigured means the selected driver is missing credentials.
var ErrNotConfigured = errors.New("mail: driver not configured")

type Address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// Message is one outgoing email. From is filled from config when empty.
type Message struct {
	From    Address
	To      []Address
	ReplyTo *Address
	Subject string
	HTML    string
}

type Driver interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

var (
	mu     sync.RWMutex
	driver Driver
)

// Use replaces the active driver. Tests install a recorder with it.
func Use(d Driver) {
	mu.Lock()
	defer mu.Unlock()
	driver = d
}

// Current returns the active driver, building it from config on first use.
func Current() Driver {
	mu.RLock()
	d := driver
	mu.RUnlock()
	if d != nil {
		return d
	}

	mu.Lock()
	defer mu.Unlock()
	if driver == nil {
		driver = FromConfig()
	}
	return driver
}

// FromConfig builds the driver named by MAIL_DRIVER.
func FromConfig() Driver {
	switch config.MailDriver() {
	case "brevo":
		return NewBrevo(config.BrevoAPIBase(), config.BrevoAPIKey())
	case "smtp":
		port, _ := strconv.Atoi(config.Get("MAIL_PORT", "587"))
		return NewSMTP(
			config.Get("MAIL_HOST", "localhost"),
			port,
			config.Get("MAIL_USERNAME", ""),
			config.Get("MAIL_PASSWORD", ""),
		)
	default:
		return NewLog()
	}
}

// DefaultFrom is the configured sender with an optional display-name override.
func DefaultFrom(name string) Address {
	if name == "" {
		name = config.MailFromName()
	}
	return Address{Name: name, Email: config.MailFrom()}
}

// Send delivers msg with the active driver.
func Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("mail: no recipients")
	}
	if msg.From.Email == "" {
		msg.From = DefaultFrom(msg.From.Name)
	}
	d := Current()
	if err := d.Send(ctx, msg); err != nil {
		return fmt.Errorf("mail: %s: %w", d.Name(), err)
	}
	return nil
}
