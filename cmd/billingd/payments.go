package main

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/billing"
)

// devPayments fakes a payment network for development: it verifies the
// customer and the invoice currency the way a real provider would, then
// approves or declines at random. Roughly one call in fifty fails with a
// transient network error to exercise the retry path.
type devPayments struct {
	customers *billing.CustomerService
}

func newDevPayments(customers *billing.CustomerService) *devPayments {
	return &devPayments{customers: customers}
}

// Charge implements billing.PaymentProvider.
func (p *devPayments) Charge(ctx context.Context, inv billing.Invoice) (bool, error) {
	customer, err := p.customers.Get(ctx, inv.CustomerID)
	if err != nil {
		return false, err
	}
	if inv.Amount.Currency != customer.Currency {
		return false, &billing.CurrencyMismatchError{InvoiceID: inv.ID, CustomerID: customer.ID}
	}
	if rand.IntN(50) == 0 {
		return false, fmt.Errorf("payment network unreachable: %w", billing.ErrNetworkFailure)
	}
	return rand.IntN(100) < 90, nil
}

// customerEmail resolves notification recipients from the customer record.
func customerEmail(customers *billing.CustomerService) func(ctx context.Context, id uuid.UUID) (string, error) {
	return func(ctx context.Context, id uuid.UUID) (string, error) {
		c, err := customers.Get(ctx, id)
		if err != nil {
			return "", err
		}
		if c.Email == "" {
			return "", fmt.Errorf("customer %s has no email on file", id)
		}
		return c.Email, nil
	}
}
