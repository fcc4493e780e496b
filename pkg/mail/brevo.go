package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/artisansally/ally/pkg/http"
	"github.com/artisansally/ally/pkg/metrics"
)

// Brevo sends through the Brevo transactional email API (POST /smtp/email).
type Brevo struct {
	base   string
	apiKey string
}

func NewBrevo(base, apiKey string) *Brevo {
	return &Brevo{base: base, apiKey: apiKey}
}

func (b *Brevo) Name() string { return "brevo" }

type brevoPayload struct {
	Sender      Address   `json:"sender"`
	To          []Address `json:"to"`
	ReplyTo     *Address  `json:"replyTo,omitempty"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"htmlContent"`
}

// UpstreamError carries Brevo's status and body for logging.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Body)
}

func (b *Brevo) Send(ctx context.Context, msg Message) (err error) {
	if b.apiKey == "" {
		return ErrNotConfigured
	}
	defer metrics.ObserveUpstream("brevo", "send", time.Now(), &err)

	resp, err := http.Post(b.base+"/smtp/email").
		WithContext(ctx).
		Header("api-key", b.apiKey).
		Body(brevoPayload{
			Sender:      msg.From,
			To:          msg.To,
			ReplyTo:     msg.ReplyTo,
			Subject:     msg.Subject,
			HTMLContent: msg.HTML,
		}).
		Send()
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &UpstreamError{Status: resp.StatusCode, Body: resp.Text()}
	}
	return nil
}
