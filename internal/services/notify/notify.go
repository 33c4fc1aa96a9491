// Package notify is the best-effort messaging port. Delivery failures
// are the caller's to log; nothing in the core treats a failed send as
// a workflow failure.
package notify

import (
	"context"
	"log/slog"
)

type Notifier interface {
	Send(ctx context.Context, phone, message string) error
}

// LogNotifier writes messages to the log instead of delivering them.
// Used in development and as the fallback when no SMS credentials are
// configured.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, phone, message string) error {
	slog.Info("notification (not delivered)", "phone", phone, "message", message)
	return nil
}
