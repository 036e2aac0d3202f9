package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/billing"
)

// Store is an in-memory billing.Store. The zero value is not usable;
// construct with New.
type Store struct {
	mu sync.RWMutex

	customers     map[uuid.UUID]billing.Customer
	invoices      map[uuid.UUID]billing.Invoice
	plans         map[uuid.UUID]billing.Plan
	subscriptions map[uuid.UUID]billing.Subscription
	statuses      map[billing.StatusKind]map[string]billing.StatusRecord

	// seq preserves insertion order for stable listings.
	seq        map[uuid.UUID]int64
	nextSeq    int64
	nextStatus int32
}

var _ billing.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		customers:     make(map[uuid.UUID]billing.Customer),
		invoices:      make(map[uuid.UUID]billing.Invoice),
		plans:         make(map[uuid.UUID]billing.Plan),
		subscriptions: make(map[uuid.UUID]billing.Subscription),
		statuses:      make(map[billing.StatusKind]map[string]billing.StatusRecord),
		seq:           make(map[uuid.UUID]int64),
	}
}

func (s *Store) track(id uuid.UUID) {
	s.nextSeq++
	s.seq[id] = s.nextSeq
}

// CreateCustomer implements billing.CustomerStore.
func (s *Store) CreateCustomer(ctx context.Context, c *billing.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.customers[c.ID]; exists {
		return fmt.Errorf("customer %s: %w", c.ID, billing.ErrWriteFailed)
	}
	s.customers[c.ID] = *c
	s.track(c.ID)
	return nil
}

// GetCustomer implements billing.CustomerStore.
func (s *Store) GetCustomer(ctx context.Context, id uuid.UUID) (*billing.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, &billing.NotFoundError{Entity: "customer", ID: id}
	}
	return &c, nil
}

// ListCustomers implements billing.CustomerStore.
func (s *Store) ListCustomers(ctx context.Context) ([]billing.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]billing.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, c)
	}
	sortByInsertion(s.seq, out, func(c billing.Customer) uuid.UUID { return c.ID })
	return out, nil
}

// CreateInvoice implements billing.InvoiceStore.
func (s *Store) CreateInvoice(ctx context.Context, inv *billing.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.invoices[inv.ID]; exists {
		return fmt.Errorf("invoice %s: %w", inv.ID, billing.ErrWriteFailed)
	}
	s.invoices[inv.ID] = *inv
	s.track(inv.ID)
	return nil
}

// GetInvoice implements billing.InvoiceStore.
func (s *Store) GetInvoice(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[id]
	if !ok {
		return nil, &billing.NotFoundError{Entity: "invoice", ID: id}
	}
	return &inv, nil
}

// ListInvoices implements billing.InvoiceStore.
func (s *Store) ListInvoices(ctx context.Context) ([]billing.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]billing.Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		out = append(out, inv)
	}
	sortByInsertion(s.seq, out, func(inv billing.Invoice) uuid.UUID { return inv.ID })
	return out, nil
}

// ListInvoicesByCustomer implements billing.InvoiceStore.
func (s *Store) ListInvoicesByCustomer(ctx context.Context, customerID uuid.UUID) ([]billing.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []billing.Invoice
	for _, inv := range s.invoices {
		if inv.CustomerID == customerID {
			out = append(out, inv)
		}
	}
	sortByInsertion(s.seq, out, func(inv billing.Invoice) uuid.UUID { return inv.ID })
	return out, nil
}

// PendingInvoiceByCustomer implements billing.InvoiceStore.
func (s *Store) PendingInvoiceByCustomer(ctx context.Context, customerID uuid.UUID) (*billing.Invoice, error) {
	invoices, err := s.ListInvoicesByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	for i := range invoices {
		if invoices[i].Status == billing.InvoicePending {
			return &invoices[i], nil
		}
	}
	return nil, fmt.Errorf("no pending invoice for customer %s: %w", customerID, billing.ErrInvoiceNotFound)
}

// UpdateInvoice implements billing.InvoiceStore.
func (s *Store) UpdateInvoice(ctx context.Context, inv *billing.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.invoices[inv.ID]; !exists {
		return fmt.Errorf("invoice %s: %w", inv.ID, billing.ErrWriteFailed)
	}
	s.invoices[inv.ID] = *inv
	return nil
}

// CreatePlan implements billing.PlanStore.
func (s *Store) CreatePlan(ctx context.Context, p *billing.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.plans {
		if existing.Code == p.Code {
			return fmt.Errorf("plan %q: %w", p.Code, billing.ErrDuplicatePlanCode)
		}
	}
	s.plans[p.ID] = *p
	s.track(p.ID)
	return nil
}

// GetPlan implements billing.PlanStore.
func (s *Store) GetPlan(ctx context.Context, id uuid.UUID) (*billing.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, &billing.NotFoundError{Entity: "plan", ID: id}
	}
	return &p, nil
}

// GetPlanByCode implements billing.PlanStore.
func (s *Store) GetPlanByCode(ctx context.Context, code string) (*billing.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.plans {
		if p.Code == code {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("plan %q: %w", code, billing.ErrPlanNotFound)
}

// ListPlans implements billing.PlanStore.
func (s *Store) ListPlans(ctx context.Context) ([]billing.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]billing.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, p)
	}
	sortByInsertion(s.seq, out, func(p billing.Plan) uuid.UUID { return p.ID })
	return out, nil
}

// CreateSubscription implements billing.SubscriptionStore.
func (s *Store) CreateSubscription(ctx context.Context, sub *billing.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.subscriptions[sub.ID]; exists {
		return fmt.Errorf("subscription %s: %w", sub.ID, billing.ErrWriteFailed)
	}
	s.subscriptions[sub.ID] = *sub
	s.track(sub.ID)
	return nil
}

// GetSubscription implements billing.SubscriptionStore.
func (s *Store) GetSubscription(ctx context.Context, id uuid.UUID) (*billing.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subscriptions[id]
	if !ok {
		return nil, &billing.NotFoundError{Entity: "subscription", ID: id}
	}
	return &sub, nil
}

// ListSubscriptions implements billing.SubscriptionStore.
func (s *Store) ListSubscriptions(ctx context.Context) ([]billing.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]billing.Subscription, 0, len(s.subscriptions))
	for _, sub := range s.subscriptions {
		out = append(out, sub)
	}
	sortByInsertion(s.seq, out, func(sub billing.Subscription) uuid.UUID { return sub.ID })
	return out, nil
}

// UpdateSubscription implements billing.SubscriptionStore with optimistic
// concurrency: the write only lands when the caller's version matches the
// stored one.
func (s *Store) UpdateSubscription(ctx context.Context, sub *billing.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, exists := s.subscriptions[sub.ID]
	if !exists {
		return fmt.Errorf("subscription %s: %w", sub.ID, billing.ErrWriteFailed)
	}
	if stored.Version != sub.Version {
		return fmt.Errorf("subscription %s version conflict: %w", sub.ID, billing.ErrWriteFailed)
	}
	sub.Version++
	s.subscriptions[sub.ID] = *sub
	return nil
}

// EnsureStatus implements billing.StatusStore.
func (s *Store) EnsureStatus(ctx context.Context, kind billing.StatusKind, code, description string) (billing.StatusRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byCode, ok := s.statuses[kind]
	if !ok {
		byCode = make(map[string]billing.StatusRecord)
		s.statuses[kind] = byCode
	}
	if rec, ok := byCode[code]; ok {
		return rec, nil
	}
	s.nextStatus++
	rec := billing.StatusRecord{ID: s.nextStatus, Code: code, Description: description}
	byCode[code] = rec
	return rec, nil
}

// GetStatus implements billing.StatusStore.
func (s *Store) GetStatus(ctx context.Context, kind billing.StatusKind, code string) (billing.StatusRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if byCode, ok := s.statuses[kind]; ok {
		if rec, ok := byCode[code]; ok {
			return rec, nil
		}
	}
	return billing.StatusRecord{}, fmt.Errorf("%s status %q: %w", kind, code, billing.ErrStatusNotFound)
}

// sortByInsertion orders a slice by the store's insertion sequence, giving
// listings a stable creation order. Callers must hold at least a read lock.
func sortByInsertion[T any](seq map[uuid.UUID]int64, items []T, id func(T) uuid.UUID) {
	sort.SliceStable(items, func(i, j int) bool {
		return seq[id(items[i])] < seq[id(items[j])]
	})
}
