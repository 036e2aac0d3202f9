package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/currency"
)

// InvoiceService is a thin façade over InvoiceStore. Status changes go
// through MarkPaid/MarkCanceled so every write enforces the one-row rule.
type InvoiceService struct {
	store InvoiceStore
}

// NewInvoiceService panics on a nil store to fail fast during wiring.
func NewInvoiceService(store InvoiceStore) *InvoiceService {
	if store == nil {
		panic("billing: InvoiceStore is required")
	}
	return &InvoiceService{store: store}
}

// Create opens a pending invoice for the customer.
func (s *InvoiceService) Create(ctx context.Context, amount currency.Money, customerID uuid.UUID) (*Invoice, error) {
	now := time.Now().UTC()
	inv := &Invoice{
		ID:         uuid.New(),
		CustomerID: customerID,
		Amount:     amount,
		Status:     InvoicePending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateInvoice(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invoice for customer %s: %w", customerID, err)
	}
	return inv, nil
}

// Get returns ErrInvoiceNotFound when the id is unknown.
func (s *InvoiceService) Get(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return s.store.GetInvoice(ctx, id)
}

// List returns all invoices.
func (s *InvoiceService) List(ctx context.Context) ([]Invoice, error) {
	return s.store.ListInvoices(ctx)
}

// ListByCustomer returns the customer's invoices.
func (s *InvoiceService) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]Invoice, error) {
	return s.store.ListInvoicesByCustomer(ctx, customerID)
}

// PendingByCustomer returns the customer's open pending invoice, or
// ErrInvoiceNotFound when there is none.
func (s *InvoiceService) PendingByCustomer(ctx context.Context, customerID uuid.UUID) (*Invoice, error) {
	return s.store.PendingInvoiceByCustomer(ctx, customerID)
}

// MarkPaid settles the invoice after a successful charge.
func (s *InvoiceService) MarkPaid(ctx context.Context, inv *Invoice) error {
	return s.setStatus(ctx, inv, InvoicePaid)
}

// MarkCanceled abandons the invoice; a canceled invoice is never reused.
func (s *InvoiceService) MarkCanceled(ctx context.Context, inv *Invoice) error {
	return s.setStatus(ctx, inv, InvoiceCanceled)
}

func (s *InvoiceService) setStatus(ctx context.Context, inv *Invoice, status InvoiceStatus) error {
	inv.Status = status
	inv.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateInvoice(ctx, inv); err != nil {
		return fmt.Errorf("update invoice %s to %s: %w", inv.ID, status, err)
	}
	return nil
}
