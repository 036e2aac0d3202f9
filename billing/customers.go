package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/currency"
)

// CustomerService is a thin façade over CustomerStore.
type CustomerService struct {
	store CustomerStore
}

// NewCustomerService panics on a nil store to fail fast during wiring.
func NewCustomerService(store CustomerStore) *CustomerService {
	if store == nil {
		panic("billing: CustomerStore is required")
	}
	return &CustomerService{store: store}
}

// Create registers a customer billed in the given currency.
func (s *CustomerService) Create(ctx context.Context, cur currency.Currency, email string) (*Customer, error) {
	if !currency.IsSupported(cur) {
		return nil, fmt.Errorf("%w: %s", currency.ErrInvalidCurrency, cur)
	}
	c := &Customer{
		ID:        uuid.New(),
		Currency:  cur,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateCustomer(ctx, c); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

// Get returns ErrCustomerNotFound when the id is unknown.
func (s *CustomerService) Get(ctx context.Context, id uuid.UUID) (*Customer, error) {
	return s.store.GetCustomer(ctx, id)
}

// List returns all customers.
func (s *CustomerService) List(ctx context.Context) ([]Customer, error) {
	return s.store.ListCustomers(ctx)
}
