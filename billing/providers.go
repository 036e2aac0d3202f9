package billing

import (
	"context"

	"github.com/google/uuid"
)

// PaymentProvider charges invoices against the payment network.
//
// Charge returns (false, nil) when the customer's balance did not allow the
// charge; that is a normal billing outcome, not an error. Error returns the
// engine understands:
//
//   - ErrNetworkFailure (possibly wrapped): transient, retried with a fixed
//     delay;
//   - *CurrencyMismatchError: the invoice currency does not match the
//     customer's; the engine re-issues the invoice and retries once;
//   - ErrCustomerNotFound: the account does not exist on the network;
//
// anything else is treated as fatal for the subscription being charged.
type PaymentProvider interface {
	Charge(ctx context.Context, invoice Invoice) (bool, error)
}

// Notification is a user-visible message about a billing event, optionally
// carrying the invoice it refers to.
type Notification struct {
	CustomerID uuid.UUID
	Message    string
	Invoice    *Invoice
}

// NotificationProvider delivers notifications to customers. Sends are
// fire-and-forget from the engine's point of view: failures are logged and
// never roll back the state change that triggered them.
type NotificationProvider interface {
	Send(ctx context.Context, n Notification) error
}

// PaymentFunc adapts a function to PaymentProvider, mirroring http.HandlerFunc.
type PaymentFunc func(ctx context.Context, invoice Invoice) (bool, error)

func (f PaymentFunc) Charge(ctx context.Context, invoice Invoice) (bool, error) {
	return f(ctx, invoice)
}

// NotificationFunc adapts a function to NotificationProvider.
type NotificationFunc func(ctx context.Context, n Notification) error

func (f NotificationFunc) Send(ctx context.Context, n Notification) error {
	return f(ctx, n)
}
