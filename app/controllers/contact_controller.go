package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/artisansally/ally/app/services"
	"github.com/artisansally/ally/pkg/ctx"
)

type ContactController struct {
	mailer *services.Mailer
}

func NewContactController(mailer *services.Mailer) *ContactController {
	return &ContactController{mailer: mailer}
}

// Send relays the public contact form to the site owner.
func (h *ContactController) Send(c *ctx.Context) {
	var in services.ContactForm
	_ = c.DecodeJSON(&in)
	in.Name, in.Email = strings.TrimSpace(in.Name), strings.TrimSpace(in.Email)
	if in.Name == "" || in.Email == "" || strings.TrimSpace(in.Message) == "" {
		c.Error(http.StatusBadRequest, "All fields are required.")
		return
	}

	err := h.mailer.SendContact(c.Context(), in)
	switch {
	case errors.Is(err, services.ErrMailUnconfigured):
		c.Error(http.StatusInternalServerError, "Server is not configured for mail.")
	case err != nil:
		c.Error(http.StatusInternalServerError, msgMailFailed)
	default:
		c.Message(http.StatusOK, "Thank you for your message! We will get back to you soon.")
	}
}
