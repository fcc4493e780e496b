package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artisansally/ally/app/services"
	"github.com/artisansally/ally/config"
	"github.com/artisansally/ally/pkg/mail"
	"github.com/artisansally/ally/pkg/testkit"
)

func TestSendContact(t *testing.T) {
	config.Set("CONTACT_EMAIL", "owner@example.com")
	t.Cleanup(config.Reset)
	mb := testkit.CaptureMail(t)

	err := services.NewMailer().SendContact(context.Background(), services.ContactForm{
		Name:    "Sam <b>",
		Email:   "sam@example.com",
		Message: "Hello\n<script>x</script>",
	})
	require.NoError(t, err)

	msg, ok := mb.Last()
	require.True(t, ok)
	assert.Equal(t, "owner@example.com", msg.To[0].Email)
	assert.Equal(t, "Artisan's Ally Contact Form", msg.From.Name)
	assert.Equal(t, "New Contact Form Message from Sam <b>", msg.Subject)
	require.NotNil(t, msg.ReplyTo)
	assert.Equal(t, "sam@example.com", msg.ReplyTo.Email)
	assert.Contains(t, msg.HTML, "Sam &lt;b&gt;")
	assert.Contains(t, msg.HTML, "Hello<br>&lt;script&gt;x&lt;/script&gt;")
}

func TestSendContact_NotConfigured(t *testing.T) {
	config.Set("CONTACT_EMAIL", "")
	t.Cleanup(config.Reset)
	mb := testkit.CaptureMail(t)

	err := services.NewMailer().SendContact(context.Background(), services.ContactForm{Name: "a", Email: "a@b.co", Message: "m"})
	assert.ErrorIs(t, err, services.ErrMailUnconfigured)
	assert.Empty(t, mb.Sent())
}

func TestMailer_DriverNotConfigured(t *testing.T) {
	mb := testkit.CaptureMail(t)
	mb.Err = mail.ErrNotConfigured

	err := services.NewMailer().SendPasswordReset(context.Background(), "a@b.co", "tok")
	assert.ErrorIs(t, err, services.ErrMailUnconfigured)
}
