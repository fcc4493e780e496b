package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/artisansally/ally/config"
	"github.com/artisansally/ally/pkg/logger"
	"github.com/artisansally/ally/pkg/mail"
)

var (
	verifyTmpl = template.Must(template.New("verify").Parse(`<html><body>
<p>Hello,</p>
<p>Thanks for signing up to Artisan's Ally. Please confirm your email address. The link is valid for 1 hour.</p>
<p><a href="{{.URL}}">Click here to verify your email</a></p>
<p>If you did not create an account, please ignore this email.</p>
<p>Thanks,<br/>The Artisan's Ally Team</p>
</body></html>`))

	resetTmpl = template.Must(template.New("reset").Parse(`<html><body>
<p>Hello,</p>
<p>Someone (hopefully you) requested a password reset for your Artisan's Ally account.</p>
<p>If this was you, please click the link below to reset your password. The link is valid for 1 hour.</p>
<p><a href="{{.URL}}">Click here to reset your password</a></p>
<p>If you did not request this, please ignore this email.</p>
<p>Thanks,<br/>The Artisan's Ally Team</p>
</body></html>`))

	contactTmpl = template.Must(template.New("contact").Parse(`<html><body>
<h2>New Contact Form Submission</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<hr>
<p><strong>Message:</strong></p>
<p>{{.Message}}</p>
</body></html>`))
)

// Mailer composes and sends the application's transactional email.
type Mailer struct {
	frontendURL string
}

func NewMailer() *Mailer {
	return &Mailer{frontendURL: config.FrontendURL()}
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (m *Mailer) send(ctx context.Context, msg mail.Message) error {
	if err := mail.Send(ctx, msg); err != nil {
		logger.WithCtx(ctx).Error("mail send failed", "subject", msg.Subject, "error", err)
		if errors.Is(err, mail.ErrNotConfigured) {
			return ErrMailUnconfigured
		}
		return fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}
	return nil
}

func (m *Mailer) SendVerification(ctx context.Context, to, token string) error {
	html, err := render(verifyTmpl, map[string]string{"URL": m.frontendURL + "/verify-email/" + token})
	if err != nil {
		return err
	}
	return m.send(ctx, mail.Message{
		From:    mail.DefaultFrom("Artisan's Ally"),
		To:      []mail.Address{{Email: to}},
		Subject: "Verify your email for Artisan's Ally",
		HTML:    html,
	})
}

func (m *Mailer) SendPasswordReset(ctx context.Context, to, token string) error {
	html, err := render(resetTmpl, map[string]string{"URL": m.frontendURL + "/reset-password/" + token})
	if err != nil {
		return err
	}
	return m.send(ctx, mail.Message{
		From:    mail.DefaultFrom("Artisan's Ally"),
		To:      []mail.Address{{Email: to}},
		Subject: "Password Reset Request for Artisan's Ally",
		HTML:    html,
	})
}

type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// SendContact relays a contact-form message to CONTACT_EMAIL. Replies go to
// the sender.
func (m *Mailer) SendContact(ctx context.Context, f ContactForm) error {
	to := config.ContactEmail()
	if to == "" {
		logger.WithCtx(ctx).Error("contact form: CONTACT_EMAIL is not set")
		return ErrMailUnconfigured
	}

	// Escape first, then turn newlines into line breaks.
	lines := strings.Split(f.Message, "\n")
	for i, l := range lines {
		lines[i] = template.HTMLEscapeString(l)
	}
	html, err := render(contactTmpl, map[string]interface{}{
		"Name":    f.Name,
		"Email":   f.Email,
		"Message": template.HTML(strings.Join(lines, "<br>")),
	})
	if err != nil {
		return err
	}

	return m.send(ctx, mail.Message{
		From:    mail.DefaultFrom("Artisan's Ally Contact Form"),
		To:      []mail.Address{{Email: to}},
		ReplyTo: &mail.Address{Name: f.Name, Email: f.Email},
		Subject: "New Contact Form Message from " + f.Name,
		HTML:    html,
	})
}
