package notify

import (
	"context"

	"github.com/yakoovad/hackathon-portal/pkg/logger"
	"go.uber.org/zap"
)

// LogSender writes messages to the log instead of delivering them. Used when
// no SMTP host is configured.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (LogSender) Send(ctx context.Context, msg *Message) error {
	logger.FromContext(ctx).Info("mail delivery disabled, message logged",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Text))
	return nil
}
