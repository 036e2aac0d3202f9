package pgstore

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/billingkit/billing"
	"github.com/dmitrymomot/billingkit/currency"
)

// Store implements billing.Store on a pgx connection pool.
type Store struct {
	db *pgxpool.Pool
}

var _ billing.Store = (*Store)(nil)

// New panics on a nil pool to fail fast during wiring.
func New(db *pgxpool.Pool) *Store {
	if db == nil {
		panic("pgstore: pgxpool.Pool is required")
	}
	return &Store{db: db}
}

// scanMoney rebuilds a Money value from its text-cast NUMERIC amount and
// currency code columns.
func scanMoney(amount, code string) (currency.Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return currency.Money{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return currency.Money{Amount: d, Currency: currency.Currency(code)}, nil
}
