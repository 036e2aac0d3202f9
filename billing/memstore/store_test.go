package memstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/billing"
	"github.com/dmitrymomot/billingkit/billing/memstore"
	"github.com/dmitrymomot/billingkit/currency"
)

func money(t *testing.T, amount string) currency.Money {
	t.Helper()
	d, err := decimal.NewFromString(amount)
	require.NoError(t, err)
	return currency.Money{Amount: d, Currency: currency.USD}
}

func TestListingsKeepInsertionOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memstore.New()

	var want []uuid.UUID
	for range 5 {
		c := &billing.Customer{ID: uuid.New(), Currency: currency.USD, CreatedAt: time.Now()}
		require.NoError(t, s.CreateCustomer(ctx, c))
		want = append(want, c.ID)
	}

	for range 3 {
		got, err := s.ListCustomers(ctx)
		require.NoError(t, err)
		require.Len(t, got, len(want))
		for i, c := range got {
			assert.Equal(t, want[i], c.ID)
		}
	}
}

func TestUpdateMissingInvoiceFails(t *testing.T) {
	t.Parallel()
	s := memstore.New()

	inv := &billing.Invoice{ID: uuid.New(), Amount: money(t, "10.00"), Status: billing.InvoicePending}
	err := s.UpdateInvoice(context.Background(), inv)
	assert.ErrorIs(t, err, billing.ErrWriteFailed)
}

func TestSubscriptionVersioning(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memstore.New()

	sub := &billing.Subscription{ID: uuid.New(), Status: billing.SubscriptionIncomplete}
	require.NoError(t, s.CreateSubscription(ctx, sub))

	// A write with the stored version lands and bumps the counter.
	fresh, err := s.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	fresh.Status = billing.SubscriptionActive
	require.NoError(t, s.UpdateSubscription(ctx, fresh))
	assert.Equal(t, int64(1), fresh.Version)

	// A write against the old version loses.
	stale := &billing.Subscription{ID: sub.ID, Status: billing.SubscriptionCanceled, Version: 0}
	err = s.UpdateSubscription(ctx, stale)
	assert.ErrorIs(t, err, billing.ErrWriteFailed)

	got, err := s.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.SubscriptionActive, got.Status)
}

func TestEnsureStatusIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memstore.New()

	first, err := s.EnsureStatus(ctx, billing.StatusKindInvoice, "pending", "awaiting charge")
	require.NoError(t, err)
	again, err := s.EnsureStatus(ctx, billing.StatusKindInvoice, "pending", "awaiting charge")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	other, err := s.EnsureStatus(ctx, billing.StatusKindSubscription, "pending", "different kind")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)

	_, err = s.GetStatus(ctx, billing.StatusKindInvoice, "refunded")
	assert.ErrorIs(t, err, billing.ErrStatusNotFound)
}
