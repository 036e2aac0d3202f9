package pgstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/billingkit/billing"
	"github.com/dmitrymomot/billingkit/pkg/pg"
)

const selectSubscription = `
SELECT sub.id, sub.customer_id, sub.plan_id, st.code, sub.cancel_at_period_end,
       sub.current_period_start, sub.current_period_end, sub.created_at,
       sub.canceled_at, sub.pending_invoice_interval, sub.latest_invoice_id, sub.version
FROM subscriptions sub
JOIN billing_statuses st ON st.id = sub.status_id`

func scanSubscription(row pgx.Row) (*billing.Subscription, error) {
	var (
		sub      billing.Subscription
		status   string
		interval string
	)
	if err := row.Scan(&sub.ID, &sub.CustomerID, &sub.PlanID, &status, &sub.CancelAtPeriodEnd,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.CreatedAt,
		&sub.CanceledAt, &interval, &sub.LatestInvoiceID, &sub.Version); err != nil {
		return nil, err
	}
	sub.Status = billing.SubscriptionStatus(status)
	sub.PendingInvoiceInterval = billing.Interval(interval)
	return &sub, nil
}

// CreateSubscription implements billing.SubscriptionStore.
func (s *Store) CreateSubscription(ctx context.Context, sub *billing.Subscription) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO subscriptions (id, customer_id, plan_id, status_id, cancel_at_period_end,
                           current_period_start, current_period_end, created_at,
                           canceled_at, pending_invoice_interval, latest_invoice_id, version)
VALUES ($1, $2, $3,
        (SELECT id FROM billing_statuses WHERE kind = $4 AND code = $5),
        $6, $7, $8, $9, $10, $11, $12, $13)`,
		sub.ID, sub.CustomerID, sub.PlanID,
		string(billing.StatusKindSubscription), string(sub.Status),
		sub.CancelAtPeriodEnd, sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CreatedAt,
		sub.CanceledAt, string(sub.PendingInvoiceInterval), sub.LatestInvoiceID, sub.Version)
	if err != nil {
		return fmt.Errorf("insert subscription %s: %w", sub.ID, err)
	}
	return nil
}

// GetSubscription implements billing.SubscriptionStore.
func (s *Store) GetSubscription(ctx context.Context, id uuid.UUID) (*billing.Subscription, error) {
	sub, err := scanSubscription(s.db.QueryRow(ctx, selectSubscription+` WHERE sub.id = $1`, id))
	if pg.IsNotFoundError(err) {
		return nil, &billing.NotFoundError{Entity: "subscription", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("select subscription %s: %w", id, err)
	}
	return sub, nil
}

// ListSubscriptions implements billing.SubscriptionStore. Creation order keeps
// sweep passes deterministic.
func (s *Store) ListSubscriptions(ctx context.Context) ([]billing.Subscription, error) {
	rows, err := s.db.Query(ctx, selectSubscription+` ORDER BY sub.created_at, sub.id`)
	if err != nil {
		return nil, fmt.Errorf("select subscriptions: %w", err)
	}
	defer rows.Close()

	var out []billing.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		out = append(out, *sub)
	}
	return out, rows.Err()
}

// UpdateSubscription implements billing.SubscriptionStore with optimistic
// concurrency: the write only lands when the caller's version matches the
// stored one, and bumps the version on success.
func (s *Store) UpdateSubscription(ctx context.Context, sub *billing.Subscription) error {
	tag, err := s.db.Exec(ctx, `
UPDATE subscriptions
SET status_id = (SELECT id FROM billing_statuses WHERE kind = $2 AND code = $3),
    cancel_at_period_end = $4,
    current_period_start = $5,
    current_period_end = $6,
    canceled_at = $7,
    pending_invoice_interval = $8,
    latest_invoice_id = $9,
    version = version + 1
WHERE id = $1 AND version = $10`,
		sub.ID,
		string(billing.StatusKindSubscription), string(sub.Status),
		sub.CancelAtPeriodEnd, sub.CurrentPeriodStart, sub.CurrentPeriodEnd,
		sub.CanceledAt, string(sub.PendingInvoiceInterval), sub.LatestInvoiceID,
		sub.Version)
	if err != nil {
		return fmt.Errorf("update subscription %s: %w", sub.ID, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("subscription %s version conflict: %w", sub.ID, billing.ErrWriteFailed)
	}
	sub.Version++
	return nil
}
