package mail

import (
	"context"

	"github.com/artisansally/ally/pkg/logger"
)

// Log writes messages to the application log instead of sending them.
type Log struct{}

func NewLog() *Log { return &Log{} }

func (*Log) Name() string { return "log" }

func (*Log) Send(ctx context.Context, msg Message) error {
	to := make([]string, 0, len(msg.To))
	for _, a := range msg.To {
		to = append(to, a.Email)
	}
	logger.WithCtx(ctx).Info("mail (log driver)", "to", to, "subject", msg.Subject, "html", msg.HTML)
	return nil
}
