package pgstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/billingkit/billing"
	"github.com/dmitrymomot/billingkit/pkg/pg"
)

const selectInvoice = `
SELECT i.id, i.customer_id, i.amount::text, i.currency, s.code, i.created_at, i.updated_at
FROM invoices i
JOIN billing_statuses s ON s.id = i.status_id`

func scanInvoice(row pgx.Row) (*billing.Invoice, error) {
	var (
		inv          billing.Invoice
		amount, code string
		status       string
	)
	if err := row.Scan(&inv.ID, &inv.CustomerID, &amount, &code, &status, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, err
	}
	m, err := scanMoney(amount, code)
	if err != nil {
		return nil, err
	}
	inv.Amount = m
	inv.Status = billing.InvoiceStatus(status)
	return &inv, nil
}

// CreateInvoice implements billing.InvoiceStore.
func (s *Store) CreateInvoice(ctx context.Context, inv *billing.Invoice) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO invoices (id, customer_id, amount, currency, status_id, created_at, updated_at)
VALUES ($1, $2, $3, $4,
        (SELECT id FROM billing_statuses WHERE kind = $5 AND code = $6),
        $7, $8)`,
		inv.ID, inv.CustomerID, inv.Amount.Amount.StringFixed(2), string(inv.Amount.Currency),
		string(billing.StatusKindInvoice), string(inv.Status),
		inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert invoice %s: %w", inv.ID, err)
	}
	return nil
}

// GetInvoice implements billing.InvoiceStore.
func (s *Store) GetInvoice(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	inv, err := scanInvoice(s.db.QueryRow(ctx, selectInvoice+` WHERE i.id = $1`, id))
	if pg.IsNotFoundError(err) {
		return nil, &billing.NotFoundError{Entity: "invoice", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("select invoice %s: %w", id, err)
	}
	return inv, nil
}

// ListInvoices implements billing.InvoiceStore.
func (s *Store) ListInvoices(ctx context.Context) ([]billing.Invoice, error) {
	return s.listInvoices(ctx, selectInvoice+` ORDER BY i.created_at, i.id`)
}

// ListInvoicesByCustomer implements billing.InvoiceStore.
func (s *Store) ListInvoicesByCustomer(ctx context.Context, customerID uuid.UUID) ([]billing.Invoice, error) {
	return s.listInvoices(ctx, selectInvoice+` WHERE i.customer_id = $1 ORDER BY i.created_at, i.id`, customerID)
}

// PendingInvoiceByCustomer implements billing.InvoiceStore.
func (s *Store) PendingInvoiceByCustomer(ctx context.Context, customerID uuid.UUID) (*billing.Invoice, error) {
	inv, err := scanInvoice(s.db.QueryRow(ctx, selectInvoice+`
WHERE i.customer_id = $1 AND s.kind = $2 AND s.code = $3
ORDER BY i.created_at, i.id
LIMIT 1`,
		customerID, string(billing.StatusKindInvoice), string(billing.InvoicePending)))
	if pg.IsNotFoundError(err) {
		return nil, fmt.Errorf("no pending invoice for customer %s: %w", customerID, billing.ErrInvoiceNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select pending invoice for customer %s: %w", customerID, err)
	}
	return inv, nil
}

// UpdateInvoice implements billing.InvoiceStore. Exactly one row must change;
// anything else is a failed write.
func (s *Store) UpdateInvoice(ctx context.Context, inv *billing.Invoice) error {
	tag, err := s.db.Exec(ctx, `
UPDATE invoices
SET amount = $2, currency = $3,
    status_id = (SELECT id FROM billing_statuses WHERE kind = $4 AND code = $5),
    updated_at = $6
WHERE id = $1`,
		inv.ID, inv.Amount.Amount.StringFixed(2), string(inv.Amount.Currency),
		string(billing.StatusKindInvoice), string(inv.Status),
		inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update invoice %s: %w", inv.ID, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("invoice %s: %w", inv.ID, billing.ErrWriteFailed)
	}
	return nil
}

func (s *Store) listInvoices(ctx context.Context, query string, args ...any) ([]billing.Invoice, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select invoices: %w", err)
	}
	defer rows.Close()

	var out []billing.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}
