package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/billing"
	"github.com/dmitrymomot/billingkit/currency"
)

func TestSweepIncomplete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("successful charge activates", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, paymentAlwaysSucceeds())
		c := e.newCustomer(t, currency.USD)
		p := e.newPlan(t, "standard", "15.00", currency.USD)
		sub := e.subscribe(t, c, p)

		require.NoError(t, e.engine.Sweep(ctx, testDay))

		got := e.reload(t, sub)
		assert.Equal(t, billing.SubscriptionActive, got.Status)
		require.NotNil(t, got.LatestInvoiceID)
		inv, err := e.invoices.Get(ctx, *got.LatestInvoiceID)
		require.NoError(t, err)
		assert.Equal(t, billing.InvoicePaid, inv.Status)
		assert.Contains(t, e.notifications.messages(), "Your subscription is now active, thank you.")
	})

	t.Run("failed charge stays incomplete", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, paymentAlwaysDeclines())
		c := e.newCustomer(t, currency.USD)
		p := e.newPlan(t, "standard", "15.00", currency.USD)
		sub := e.subscribe(t, c, p)

		require.NoError(t, e.engine.Sweep(ctx, testDay))

		got := e.reload(t, sub)
		assert.Equal(t, billing.SubscriptionIncomplete, got.Status)
		// No transition happened, so no notification either.
		assert.Zero(t, e.notifications.count())
	})

	t.Run("older than activation window expires without a charge", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, paymentNeverCalled(t))
		c := e.newCustomer(t, currency.USD)
		p := e.newPlan(t, "standard", "15.00", currency.USD)
		sub := e.subscribe(t, c, p)

		fourDaysOn := testDay.AddDate(0, 0, 4)
		require.NoError(t, e.engine.Sweep(ctx, fourDaysOn))

		got := e.reload(t, sub)
		assert.Equal(t, billing.SubscriptionIncompleteExpired, got.Status)
		assert.Equal(t, 1, e.notifications.count())
	})

	t.Run("exactly three days old is still chargeable", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, paymentAlwaysSucceeds())
		c := e.newCustomer(t, currency.USD)
		p := e.newPlan(t, "standard", "15.00", currency.USD)
		sub := e.subscribe(t, c, p)

		require.NoError(t, e.engine.Sweep(ctx, testDay.AddDate(0, 0, 3)))
		assert.Equal(t, billing.SubscriptionActive, e.reload(t, sub).Status)
	})
}

func TestSweepActive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// activate brings a fresh subscription to ACTIVE with a paid invoice.
	activate := func(t *testing.T, e *env, sub *billing.Subscription) *billing.Subscription {
		t.Helper()
		require.NoError(t, e.engine.Sweep(ctx, testDay))
		got := e.reload(t, sub)
		require.Equal(t, billing.SubscriptionActive, got.Status)
		return got
	}

	t.Run("due subscription renews by one interval", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, paymentAlwaysSucceeds())
		c := e.newCustomer(t, currency.USD)
		p := e.newPlan(t, "standard", "15.00", currency.USD)
		sub := activate(t, e, e.subscribe(t, c, p))

		wantStart := sub.CurrentPeriodEnd
		wantEnd := sub.CurrentPeriodEnd.AddDate(0, 0, billing.IntervalMonth.Days())

		require.NoError(t, e.engine.Sweep(ctx, sub.CurrentPeriodEnd))

		got := e.reload(t, sub)
		assert.Equal(t, billing.SubscriptionActive, got.Status)
		assert.True(t, got.CurrentPeriodStart.Equal(wantStart), "period start %s != %s", got.CurrentPeriodStart, wantStart)
		assert.True(t, got.CurrentPeriodEnd.Equal(wantEnd), "period end %s != %s", got.CurrentPeriodEnd, wantEnd)
		assert.Contains(t, e.notifications.messages(), "Your subscription has been renewed, thank you.")
	})

	t.Run("not yet due is untouched", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, paymentAlwaysSucceeds())
		c := e.newCustomer(t, currency.USD)
		p := e.newPlan(t, "standard", "15.00", currency.USD)
		sub := activate(t, e, e.subscribe(t, c, p))

		before := e.notifications.count()
		require.NoError(t, e.engine.Sweep(ctx, sub.CurrentPeriodEnd.AddDate(0, 0, -1)))

		got := e.reload(t, sub)
		assert.True(t, got.CurrentPeriodEnd.Equal(sub.CurrentPeriodEnd))
		assert.Equal(t, before, e.notifications.count())
	})

	t.Run("failed renewal goes past due", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, paymentAlwaysSucceeds())
		c := e.newCustomer(t, currency.USD)
		p := e.newPlan(t, "standard", "15.00", currency.USD)
		sub := activate(t, e, e.subscribe(t, c, p))

		e.setPayments(paymentAlwaysDeclines())
		require.NoError(t, e.engine.Sweep(ctx, sub.CurrentPeriodEnd))

		got := e.reload(t, sub)
		assert.Equal(t, billing.SubscriptionPastDue, got.Status)
	})

	t.Run("cancel at period end skips the charge", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, paymentAlwaysSucceeds())
		c := e.newCustomer(t, currency.USD)
		p := e.newPlan(t, "standard", "15.00", currency.USD)
		sub := activate(t, e, e.subscribe(t, c, p))

		require.NoError(t, e.subscriptions.RequestCancellation(ctx, sub))

		e.setPayments(paymentNeverCalled(t))
		require.NoError(t, e.engine.Sweep(ctx, sub.CurrentPeriodEnd))

		got := e.reload(t, sub)
		assert.Equal(t, billing.SubscriptionCanceled, got.Status)
		require.NotNil(t, got.CanceledAt)
		assert.Contains(t, e.notifications.messages(), "As requested, your subscription is now canceled, thank you.")
	})
}

func TestSweepPastDue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// makePastDue drives a subscription into PAST_DUE with a pending invoice.
	makePastDue := func(t *testing.T, e *env) *billing.Subscription {
		t.Helper()
		c := e.newCustomer(t, currency.USD)
		p := e.newPlan(t, "standard", "15.00", currency.USD)
		sub := e.subscribe(t, c, p)
		require.NoError(t, e.engine.Sweep(ctx, testDay))
		sub = e.reload(t, sub)
		require.Equal(t, billing.SubscriptionActive, sub.Status)

		e.setPayments(paymentAlwaysDeclines())
		require.NoError(t, e.engine.Sweep(ctx, sub.CurrentPeriodEnd))
		sub = e.reload(t, sub)
		require.Equal(t, billing.SubscriptionPastDue, sub.Status)
		return sub
	}

	t.Run("rescued within the grace window", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, paymentAlwaysSucceeds())
		sub := makePastDue(t, e)

		e.setPayments(paymentAlwaysSucceeds())
		require.NoError(t, e.engine.Sweep(ctx, sub.CurrentPeriodEnd.AddDate(0, 0, 3)))

		got := e.reload(t, sub)
		assert.Equal(t, billing.SubscriptionActive, got.Status)
	})

	t.Run("still failing within the grace window stays past due", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, paymentAlwaysSucceeds())
		sub := makePastDue(t, e)

		e.setPayments(paymentAlwaysDeclines())
		require.NoError(t, e.engine.Sweep(ctx, sub.CurrentPeriodEnd.AddDate(0, 0, 2)))

		got := e.reload(t, sub)
		assert.Equal(t, billing.SubscriptionPastDue, got.Status)
	})

	t.Run("canceled after the grace window without a charge", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, paymentAlwaysSucceeds())
		sub := makePastDue(t, e)

		e.setPayments(paymentNeverCalled(t))
		require.NoError(t, e.engine.Sweep(ctx, sub.CurrentPeriodEnd.AddDate(0, 0, 4)))

		got := e.reload(t, sub)
		assert.Equal(t, billing.SubscriptionCanceled, got.Status)
	})
}

func TestSweepSkipsTerminalStates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := newEnv(t, paymentNeverCalled(t))
	c := e.newCustomer(t, currency.USD)
	p := e.newPlan(t, "standard", "15.00", currency.USD)

	canceled := e.subscribe(t, c, p)
	require.NoError(t, e.subscriptions.Cancel(ctx, canceled, testDay))
	expired := e.subscribe(t, c, p)
	require.NoError(t, e.subscriptions.Expire(ctx, expired))

	require.NoError(t, e.engine.Sweep(ctx, testDay.AddDate(0, 1, 0)))

	assert.Equal(t, billing.SubscriptionCanceled, e.reload(t, canceled).Status)
	assert.Equal(t, billing.SubscriptionIncompleteExpired, e.reload(t, expired).Status)
}

func TestSweepIsolatesFailingSubscriptions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// First customer is unknown to the payment step (subscription created
	// against a customer that was never persisted); second must still be
	// processed.
	e := newEnv(t, paymentAlwaysSucceeds())
	p := e.newPlan(t, "standard", "15.00", currency.USD)

	ghost := &billing.Customer{ID: newUUID(t), Currency: currency.USD}
	orphan, err := e.subscriptions.Subscribe(ctx, ghost, p, testDay)
	require.NoError(t, err)

	c := e.newCustomer(t, currency.USD)
	healthy := e.subscribe(t, c, p)

	require.NoError(t, e.engine.Sweep(ctx, testDay))

	assert.Equal(t, billing.SubscriptionCanceled, e.reload(t, orphan).Status)
	assert.Equal(t, billing.SubscriptionActive, e.reload(t, healthy).Status)
}
