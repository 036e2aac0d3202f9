package billing

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrCustomerNotFound     = errors.New("customer not found")
	ErrInvoiceNotFound      = errors.New("invoice not found")
	ErrPlanNotFound         = errors.New("plan not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrStatusNotFound       = errors.New("status record not found")

	// ErrWriteFailed is returned when a storage write did not affect exactly
	// one row, including optimistic-concurrency conflicts on subscriptions.
	ErrWriteFailed = errors.New("storage write failed")

	// ErrDuplicatePlanCode is returned when creating a plan whose symbolic
	// code already exists.
	ErrDuplicatePlanCode = errors.New("plan code already exists")

	// ErrNetworkFailure marks a transient payment-network error; the engine
	// retries these with a fixed delay before giving up on the sweep cycle.
	ErrNetworkFailure = errors.New("payment network failure")

	// ErrCurrencyMismatch marks a charge rejected because the invoice
	// currency does not match the customer's; recovered by re-issuing the
	// invoice in the right currency.
	ErrCurrencyMismatch = errors.New("invoice currency mismatch")

	// ErrInvalidStatus is returned for unknown symbolic status codes.
	ErrInvalidStatus = errors.New("invalid status code")
)

// CurrencyMismatchError carries the identifiers the payment provider reports
// with a currency-mismatch rejection. It unwraps to ErrCurrencyMismatch.
type CurrencyMismatchError struct {
	InvoiceID  uuid.UUID
	CustomerID uuid.UUID
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("invoice %s currency mismatch for customer %s", e.InvoiceID, e.CustomerID)
}

func (e *CurrencyMismatchError) Unwrap() error { return ErrCurrencyMismatch }

// NotFoundError annotates a missing entity with its kind and id. It unwraps
// to the matching sentinel so callers can keep using errors.Is.
type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	switch e.Entity {
	case "customer":
		return ErrCustomerNotFound
	case "invoice":
		return ErrInvoiceNotFound
	case "plan":
		return ErrPlanNotFound
	case "subscription":
		return ErrSubscriptionNotFound
	}
	return ErrStatusNotFound
}
