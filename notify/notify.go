// Package notify delivers low-stock alerts over outbound channels.
package notify

import "context"

// Notifier posts one alert message with a subject line.
type Notifier interface {
	Notify(ctx context.Context, subject, message string) error
}
