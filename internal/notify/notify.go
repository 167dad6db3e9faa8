// Package notify delivers the daily quote to the user.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Notification is one message for the user.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Notifier is anything that can show a notification: the log, a desktop
// bridge, a push gateway.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the process log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	l.logger.Info("notification",
		zap.String("title", n.Title),
		zap.String("body", n.Body),
	)
	return nil
}
