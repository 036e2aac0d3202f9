package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/billingkit/currency"
	"github.com/dmitrymomot/billingkit/pkg/retry"
)

// InvoiceSubscription charges the subscription's current invoice and reports
// whether the money was collected.
//
// Transient network failures are retried with a fixed delay; when the retry
// budget runs out the last failure is returned and the invoice stays pending
// for the next sweep. A missing customer, an unconvertible currency, or any
// unexpected fault cancels the subscription, alerts the operator, and counts
// as "not charged". A declined charge is a plain false with no side effects.
func (e *Engine) InvoiceSubscription(ctx context.Context, sub *Subscription) (bool, error) {
	retrier := retry.New(
		retry.WithAttempts(e.cfg.RetryAttempts),
		retry.WithDelay(e.cfg.RetryDelay),
	)

	for {
		charged, err := e.charge(ctx, sub, false)
		if err == nil {
			return charged, nil
		}

		switch {
		case errors.Is(err, ErrNetworkFailure):
			if rerr := retrier.Failure(ctx, err); rerr != nil {
				e.logger.Error("charge abandoned after retries",
					slog.String("subscription_id", sub.ID.String()),
					slog.String("error", err.Error()))
				return false, fmt.Errorf("charge subscription %s: %w", sub.ID, rerr)
			}
			e.logger.Warn("network failure while charging subscription, retrying",
				slog.String("subscription_id", sub.ID.String()),
				slog.Int("retries_left", retrier.Remaining()))

		case errors.Is(err, ErrCustomerNotFound):
			e.logger.Error("customer missing while charging subscription",
				slog.String("subscription_id", sub.ID.String()),
				slog.String("error", err.Error()))
			e.notifyOperator(ctx, fmt.Sprintf("customer not found while charging subscription %s", sub.ID))
			e.cancelAfterFault(ctx, sub)
			return false, nil

		case errors.Is(err, currency.ErrInvalidCurrency):
			e.logger.Error("currency conversion impossible for subscription",
				slog.String("subscription_id", sub.ID.String()),
				slog.String("error", err.Error()))
			e.notifyOperator(ctx, fmt.Sprintf("failed to convert currency for subscription %s", sub.ID))
			e.cancelAfterFault(ctx, sub)
			return false, nil

		default:
			e.logger.Error("unexpected failure while charging subscription",
				slog.String("subscription_id", sub.ID.String()),
				slog.String("error", err.Error()))
			e.notifyOperator(ctx, fmt.Sprintf("unexpected failure while charging subscription %s", sub.ID))
			e.cancelAfterFault(ctx, sub)
			return false, nil
		}
	}
}

// charge performs one attempt against the payment provider. adjusted marks
// that the invoice was already re-issued once for a currency mismatch;
// a second mismatch on the same charge is a provider logic error and is
// returned as fatal instead of recursing forever.
func (e *Engine) charge(ctx context.Context, sub *Subscription, adjusted bool) (bool, error) {
	customer, err := e.customers.Get(ctx, sub.CustomerID)
	if err != nil {
		return false, err
	}

	invoice, err := e.resolveInvoice(ctx, sub, customer)
	if err != nil {
		return false, err
	}

	charged, err := e.payments.Charge(ctx, *invoice)
	if err != nil {
		var mismatch *CurrencyMismatchError
		if errors.As(err, &mismatch) {
			if adjusted {
				return false, fmt.Errorf("currency mismatch persists after re-issuing invoice %s: %w", invoice.ID, errUnrecoverableMismatch)
			}
			e.logger.Warn("currency mismatch, re-issuing invoice in customer currency",
				slog.String("invoice_id", invoice.ID.String()),
				slog.String("customer_id", customer.ID.String()))
			replacement, aerr := e.adjustCurrency(ctx, invoice, customer)
			if aerr != nil {
				return false, aerr
			}
			if uerr := e.subscriptions.UpdateLatestInvoice(ctx, sub, replacement.ID); uerr != nil {
				return false, uerr
			}
			return e.charge(ctx, sub, true)
		}
		return false, err
	}

	if !charged {
		e.logger.Warn("charge declined, account balance insufficient",
			slog.String("invoice_id", invoice.ID.String()),
			slog.String("customer_id", customer.ID.String()))
		return false, nil
	}

	if err := e.invoices.MarkPaid(ctx, invoice); err != nil {
		return false, err
	}
	e.logger.Info("customer charged successfully",
		slog.String("invoice_id", invoice.ID.String()),
		slog.String("customer_id", customer.ID.String()),
		slog.String("amount", invoice.Amount.String()))
	e.notify(ctx, customer.ID, msgChargeSucceeded, invoice)
	return true, nil
}

// errUnrecoverableMismatch deliberately does not unwrap to
// ErrCurrencyMismatch so a repeated mismatch falls through to the fatal
// branch of InvoiceSubscription.
var errUnrecoverableMismatch = errors.New("unrecoverable currency mismatch")

// resolveInvoice returns the invoice to charge: the subscription's latest
// invoice when it is still pending, otherwise a fresh pending invoice for the
// plan amount in the customer's currency, recorded as the new latest.
func (e *Engine) resolveInvoice(ctx context.Context, sub *Subscription, customer *Customer) (*Invoice, error) {
	if sub.LatestInvoiceID != nil {
		latest, err := e.invoices.Get(ctx, *sub.LatestInvoiceID)
		switch {
		case err == nil && latest.Status == InvoicePending:
			return latest, nil
		case err != nil && !errors.Is(err, ErrInvoiceNotFound):
			return nil, err
		case err != nil:
			e.logger.Warn("latest invoice missing, issuing a new one",
				slog.String("subscription_id", sub.ID.String()))
		}
	}

	invoice, err := e.issueInvoice(ctx, sub, customer)
	if err != nil {
		return nil, err
	}
	if err := e.subscriptions.UpdateLatestInvoice(ctx, sub, invoice.ID); err != nil {
		return nil, err
	}
	return invoice, nil
}

// issueInvoice creates a pending invoice for the plan amount, converted into
// the customer's currency when the plan is priced in another one.
func (e *Engine) issueInvoice(ctx context.Context, sub *Subscription, customer *Customer) (*Invoice, error) {
	plan, err := e.plans.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	amount := plan.Amount
	if amount.Currency != customer.Currency {
		amount, err = e.converter.Convert(plan.Amount, customer.Currency)
		if err != nil {
			return nil, err
		}
	}
	return e.invoices.Create(ctx, amount, customer.ID)
}

// adjustCurrency recovers from a provider-reported mismatch: the old invoice
// is canceled (never reused) and replaced by a pending one in the customer's
// currency.
func (e *Engine) adjustCurrency(ctx context.Context, invoice *Invoice, customer *Customer) (*Invoice, error) {
	converted, err := e.converter.Convert(invoice.Amount, customer.Currency)
	if err != nil {
		return nil, err
	}
	if err := e.invoices.MarkCanceled(ctx, invoice); err != nil {
		return nil, err
	}
	return e.invoices.Create(ctx, converted, customer.ID)
}

// cancelAfterFault terminates a subscription the engine cannot keep charging.
// A failed write here is logged and left for the next sweep.
func (e *Engine) cancelAfterFault(ctx context.Context, sub *Subscription) {
	if err := e.subscriptions.Cancel(ctx, sub, e.now()); err != nil {
		e.deferToNextSweep(sub, err)
	}
}
