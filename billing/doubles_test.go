package billing_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/billing"
	"github.com/dmitrymomot/billingkit/billing/memstore"
	"github.com/dmitrymomot/billingkit/currency"
)

// recorder captures notifications for assertions.
type recorder struct {
	mu   sync.Mutex
	sent []billing.Notification
}

func (r *recorder) Send(ctx context.Context, n billing.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.sent))
	for i, n := range r.sent {
		out[i] = n.Message
	}
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func (r *recorder) recipients() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uuid.UUID, len(r.sent))
	for i, n := range r.sent {
		out[i] = n.CustomerID
	}
	return out
}

// switchablePayments lets a test swap the charge behavior mid-scenario.
type switchablePayments struct {
	mu sync.Mutex
	fn billing.PaymentFunc
}

func (s *switchablePayments) Charge(ctx context.Context, inv billing.Invoice) (bool, error) {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()
	return fn(ctx, inv)
}

func (s *switchablePayments) set(fn billing.PaymentFunc) {
	s.mu.Lock()
	s.fn = fn
	s.mu.Unlock()
}

// env bundles a fully wired engine over an in-memory store.
type env struct {
	store         *memstore.Store
	customers     *billing.CustomerService
	invoices      *billing.InvoiceService
	plans         *billing.PlanService
	subscriptions *billing.SubscriptionService
	notifications *recorder
	payments      *switchablePayments
	operator      uuid.UUID
	engine        *billing.Engine
}

func (e *env) setPayments(fn billing.PaymentFunc) { e.payments.set(fn) }

// paymentAlwaysSucceeds approves every charge.
func paymentAlwaysSucceeds() billing.PaymentFunc {
	return func(ctx context.Context, inv billing.Invoice) (bool, error) { return true, nil }
}

// paymentAlwaysDeclines reports insufficient funds on every charge.
func paymentAlwaysDeclines() billing.PaymentFunc {
	return func(ctx context.Context, inv billing.Invoice) (bool, error) { return false, nil }
}

// paymentNeverCalled fails the test if the provider is invoked at all.
func paymentNeverCalled(t *testing.T) billing.PaymentFunc {
	return func(ctx context.Context, inv billing.Invoice) (bool, error) {
		t.Errorf("payment provider must not be called, got invoice %s", inv.ID)
		return false, nil
	}
}

var testDay = time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

func newEnv(t *testing.T, payments billing.PaymentFunc) *env {
	t.Helper()

	store := memstore.New()
	e := &env{
		store:         store,
		customers:     billing.NewCustomerService(store),
		invoices:      billing.NewInvoiceService(store),
		plans:         billing.NewPlanService(store),
		subscriptions: billing.NewSubscriptionService(store, store),
		notifications: &recorder{},
		payments:      &switchablePayments{fn: payments},
		operator:      uuid.New(),
	}

	cfg := billing.Config{
		SweepInterval: time.Hour,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond, // keep retry waits negligible in tests
	}
	e.engine = billing.NewEngine(cfg,
		e.payments,
		currency.NewRateTable(currency.DefaultRates()),
		e.notifications,
		e.customers,
		e.invoices,
		e.plans,
		e.subscriptions,
		billing.WithClock(func() time.Time { return testDay }),
		billing.WithOperatorID(e.operator),
	)
	return e
}

func (e *env) newCustomer(t *testing.T, cur currency.Currency) *billing.Customer {
	t.Helper()
	c, err := e.customers.Create(context.Background(), cur, "")
	require.NoError(t, err)
	return c
}

func (e *env) newPlan(t *testing.T, code, amount string, cur currency.Currency) *billing.Plan {
	t.Helper()
	m, err := currency.NewMoneyFromString(amount, cur)
	require.NoError(t, err)
	p, err := e.plans.Create(context.Background(), code, m, billing.IntervalMonth)
	require.NoError(t, err)
	return p
}

func (e *env) subscribe(t *testing.T, c *billing.Customer, p *billing.Plan) *billing.Subscription {
	t.Helper()
	sub, err := e.engine.Subscribe(context.Background(), c, p)
	require.NoError(t, err)
	return sub
}

func (e *env) reload(t *testing.T, sub *billing.Subscription) *billing.Subscription {
	t.Helper()
	got, err := e.subscriptions.Get(context.Background(), sub.ID)
	require.NoError(t, err)
	return got
}

func newUUID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}
