package pgstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/billing"
	"github.com/dmitrymomot/billingkit/currency"
	"github.com/dmitrymomot/billingkit/pkg/pg"
)

// CreateCustomer implements billing.CustomerStore.
func (s *Store) CreateCustomer(ctx context.Context, c *billing.Customer) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO customers (id, currency, email, created_at) VALUES ($1, $2, $3, $4)`,
		c.ID, string(c.Currency), c.Email, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert customer %s: %w", c.ID, err)
	}
	return nil
}

// GetCustomer implements billing.CustomerStore.
func (s *Store) GetCustomer(ctx context.Context, id uuid.UUID) (*billing.Customer, error) {
	var (
		c    billing.Customer
		code string
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, currency, email, created_at FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &code, &c.Email, &c.CreatedAt)
	if pg.IsNotFoundError(err) {
		return nil, &billing.NotFoundError{Entity: "customer", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("select customer %s: %w", id, err)
	}
	c.Currency = currency.Currency(code)
	return &c, nil
}

// ListCustomers implements billing.CustomerStore. Order follows creation time
// so listings are stable across calls.
func (s *Store) ListCustomers(ctx context.Context) ([]billing.Customer, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, currency, email, created_at FROM customers ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("select customers: %w", err)
	}
	defer rows.Close()

	var out []billing.Customer
	for rows.Next() {
		var (
			c    billing.Customer
			code string
		)
		if err := rows.Scan(&c.ID, &code, &c.Email, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		c.Currency = currency.Currency(code)
		out = append(out, c)
	}
	return out, rows.Err()
}
