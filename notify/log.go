package notify

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/billingkit/billing"
)

// Log writes every notification to a structured logger. It never fails, which
// makes it the default provider for development and tests.
type Log struct {
	logger *slog.Logger
}

// NewLog returns a log-backed provider. A nil logger falls back to
// slog.Default.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// Send implements billing.NotificationProvider.
func (l *Log) Send(ctx context.Context, n billing.Notification) error {
	attrs := []any{
		slog.String("customer_id", n.CustomerID.String()),
		slog.String("message", n.Message),
	}
	if n.Invoice != nil {
		attrs = append(attrs,
			slog.String("invoice_id", n.Invoice.ID.String()),
			slog.String("amount", n.Invoice.Amount.String()),
		)
	}
	l.logger.InfoContext(ctx, "customer notification", attrs...)
	return nil
}
