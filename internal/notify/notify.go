package notify

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Multi delivers to every notifier and reports all failures together.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Send(ctx, title, text))
	}
	return err
}

// Log writes alerts to the service log, so transitions are visible even
// without a webhook.
type Log struct {
	Logger *zap.Logger
}

func NewLog(l *zap.Logger) *Log {
	return &Log{Logger: l}
}

func (l *Log) Send(_ context.Context, title, text string) error {
	l.Logger.Info("alert", zap.String("title", title), zap.String("text", text))
	return nil
}
