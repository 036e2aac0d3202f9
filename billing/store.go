package billing

import (
	"context"

	"github.com/google/uuid"
)

// CustomerStore persists customers.
type CustomerStore interface {
	CreateCustomer(ctx context.Context, c *Customer) error
	GetCustomer(ctx context.Context, id uuid.UUID) (*Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
}

// InvoiceStore persists invoices.
type InvoiceStore interface {
	CreateInvoice(ctx context.Context, inv *Invoice) error
	GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error)
	ListInvoices(ctx context.Context) ([]Invoice, error)
	ListInvoicesByCustomer(ctx context.Context, customerID uuid.UUID) ([]Invoice, error)
	// PendingInvoiceByCustomer returns the customer's open pending invoice,
	// or ErrInvoiceNotFound when there is none.
	PendingInvoiceByCustomer(ctx context.Context, customerID uuid.UUID) (*Invoice, error)
	// UpdateInvoice must affect exactly one row or fail with ErrWriteFailed.
	UpdateInvoice(ctx context.Context, inv *Invoice) error
}

// PlanStore persists plans.
type PlanStore interface {
	CreatePlan(ctx context.Context, p *Plan) error
	GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error)
	GetPlanByCode(ctx context.Context, code string) (*Plan, error)
	ListPlans(ctx context.Context) ([]Plan, error)
}

// SubscriptionStore persists subscriptions.
type SubscriptionStore interface {
	CreateSubscription(ctx context.Context, s *Subscription) error
	GetSubscription(ctx context.Context, id uuid.UUID) (*Subscription, error)
	// ListSubscriptions returns subscriptions in a stable order (creation
	// time); the sweep relies on the order being stable, nothing more.
	ListSubscriptions(ctx context.Context) ([]Subscription, error)
	// UpdateSubscription performs a conditional write on s.Version and bumps
	// it on success. A concurrent update surfaces as ErrWriteFailed and
	// leaves the row untouched.
	UpdateSubscription(ctx context.Context, s *Subscription) error
}

// Store aggregates every persistence capability the engine needs from its
// storage collaborator.
type Store interface {
	CustomerStore
	InvoiceStore
	PlanStore
	SubscriptionStore
	StatusStore
}
