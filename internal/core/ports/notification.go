package ports

import "context"

// NotificationDispatcher delivers account emails.
type NotificationDispatcher interface {
	Send(ctx context.Context, toEmail, subject, body string) error
}
