package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SubscriptionService is a thin façade over SubscriptionStore. It owns the
// mechanical status writes; the decision of when to apply them belongs to the
// Engine.
type SubscriptionService struct {
	store    SubscriptionStore
	invoices InvoiceStore
}

// NewSubscriptionService panics on nil stores to fail fast during wiring.
// The invoice store is used to attach a customer's open pending invoice when
// subscribing.
func NewSubscriptionService(store SubscriptionStore, invoices InvoiceStore) *SubscriptionService {
	if store == nil {
		panic("billing: SubscriptionStore is required")
	}
	if invoices == nil {
		panic("billing: InvoiceStore is required")
	}
	return &SubscriptionService{store: store, invoices: invoices}
}

// Get returns ErrSubscriptionNotFound when the id is unknown.
func (s *SubscriptionService) Get(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	return s.store.GetSubscription(ctx, id)
}

// List returns all subscriptions in creation order.
func (s *SubscriptionService) List(ctx context.Context) ([]Subscription, error) {
	return s.store.ListSubscriptions(ctx)
}

// Subscribe creates an INCOMPLETE subscription for the customer starting
// today. If the customer already has an open pending invoice it becomes the
// subscription's latest invoice so the first charge settles it.
func (s *SubscriptionService) Subscribe(ctx context.Context, customer *Customer, plan *Plan, today time.Time) (*Subscription, error) {
	var latest *uuid.UUID
	if pending, err := s.invoices.PendingInvoiceByCustomer(ctx, customer.ID); err == nil {
		latest = &pending.ID
	}

	start := DateOf(today)
	sub := &Subscription{
		ID:                     uuid.New(),
		CustomerID:             customer.ID,
		PlanID:                 plan.ID,
		Status:                 SubscriptionIncomplete,
		CancelAtPeriodEnd:      false,
		CurrentPeriodStart:     start,
		CurrentPeriodEnd:       start.AddDate(0, 0, plan.Interval.Days()),
		CreatedAt:              start,
		PendingInvoiceInterval: plan.Interval,
		LatestInvoiceID:        latest,
	}
	if err := s.store.CreateSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("subscribe customer %s to plan %s: %w", customer.ID, plan.ID, err)
	}
	return sub, nil
}

// Renew advances the period by one plan interval and restores ACTIVE status:
// currentPeriodStart := currentPeriodEnd; currentPeriodEnd += interval.
func (s *SubscriptionService) Renew(ctx context.Context, sub *Subscription) error {
	sub.CurrentPeriodStart = sub.CurrentPeriodEnd
	sub.CurrentPeriodEnd = sub.CurrentPeriodEnd.AddDate(0, 0, sub.PendingInvoiceInterval.Days())
	sub.Status = SubscriptionActive
	return s.update(ctx, sub)
}

// Activate marks the subscription ACTIVE after its first successful charge.
func (s *SubscriptionService) Activate(ctx context.Context, sub *Subscription) error {
	sub.Status = SubscriptionActive
	return s.update(ctx, sub)
}

// PastDue marks a failed renewal inside the grace window.
func (s *SubscriptionService) PastDue(ctx context.Context, sub *Subscription) error {
	sub.Status = SubscriptionPastDue
	return s.update(ctx, sub)
}

// Expire marks an INCOMPLETE subscription that outlived its activation window.
func (s *SubscriptionService) Expire(ctx context.Context, sub *Subscription) error {
	sub.Status = SubscriptionIncompleteExpired
	return s.update(ctx, sub)
}

// Cancel terminates the subscription and records when it happened.
func (s *SubscriptionService) Cancel(ctx context.Context, sub *Subscription, today time.Time) error {
	canceled := DateOf(today)
	sub.Status = SubscriptionCanceled
	sub.CanceledAt = &canceled
	return s.update(ctx, sub)
}

// RequestCancellation flags the subscription to end at the current period
// instead of renewing.
func (s *SubscriptionService) RequestCancellation(ctx context.Context, sub *Subscription) error {
	sub.CancelAtPeriodEnd = true
	return s.update(ctx, sub)
}

// UpdateLatestInvoice repoints the weak latest-invoice reference.
func (s *SubscriptionService) UpdateLatestInvoice(ctx context.Context, sub *Subscription, invoiceID uuid.UUID) error {
	sub.LatestInvoiceID = &invoiceID
	return s.update(ctx, sub)
}

func (s *SubscriptionService) update(ctx context.Context, sub *Subscription) error {
	if err := s.store.UpdateSubscription(ctx, sub); err != nil {
		return fmt.Errorf("update subscription %s: %w", sub.ID, err)
	}
	return nil
}
