package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/currency"
	"github.com/dmitrymomot/billingkit/pkg/scheduler"
)

// Customer-facing notification texts, one per lifecycle transition.
const (
	msgSubscriptionActivated = "Your subscription is now active, thank you."
	msgSubscriptionRenewed   = "Your subscription has been renewed, thank you."
	msgSubscriptionPastDue   = "Your subscription was renewed but the payment failed; please make sure your account covers the subscription fee."
	msgSubscriptionCanceled  = "As requested, your subscription is now canceled, thank you."
	msgSubscriptionExpired   = "We could not charge the first invoice for your subscription, so we are canceling it."
	msgGracePeriodOver       = "We could not charge the invoice that keeps your subscription running, so we are canceling it."
	msgChargeSucceeded       = "Your subscription fee has been charged successfully. The invoice is attached."
)

// Engine owns the subscription lifecycle: the periodic sweep, the charging
// algorithm, and the decisions in between. It is polymorphic over the three
// external capabilities and keeps no state besides its background task.
type Engine struct {
	cfg           Config
	payments      PaymentProvider
	converter     currency.Converter
	notifier      NotificationProvider
	customers     *CustomerService
	invoices      *InvoiceService
	plans         *PlanService
	subscriptions *SubscriptionService

	logger     *slog.Logger
	now        func() time.Time
	operatorID uuid.UUID

	task *scheduler.Task
}

// EngineOption configures optional Engine behavior.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides the wall clock; sweeps are keyed off this so tests can
// pin "today".
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithOperatorID routes operational notifications (customer missing, currency
// not convertible) to the given account.
func WithOperatorID(id uuid.UUID) EngineOption {
	return func(e *Engine) { e.operatorID = id }
}

// NewEngine wires the engine. All collaborators are required; nil values
// panic to fail fast during initialization.
func NewEngine(
	cfg Config,
	payments PaymentProvider,
	converter currency.Converter,
	notifier NotificationProvider,
	customers *CustomerService,
	invoices *InvoiceService,
	plans *PlanService,
	subscriptions *SubscriptionService,
	opts ...EngineOption,
) *Engine {
	if payments == nil {
		panic("billing: PaymentProvider is required")
	}
	if converter == nil {
		panic("billing: currency.Converter is required")
	}
	if notifier == nil {
		panic("billing: NotificationProvider is required")
	}
	if customers == nil || invoices == nil || plans == nil || subscriptions == nil {
		panic("billing: entity services are required")
	}
	cfg = cfg.normalized()

	e := &Engine{
		cfg:           cfg,
		payments:      payments,
		converter:     converter,
		notifier:      notifier,
		customers:     customers,
		invoices:      invoices,
		plans:         plans,
		subscriptions: subscriptions,
		logger:        slog.Default(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.task = scheduler.New("billing-sweep",
		func(ctx context.Context) error { return e.Sweep(ctx, e.now()) },
		scheduler.WithInitialDelay(cfg.SweepInitialDelay),
		scheduler.WithRepeat(cfg.SweepInterval),
		scheduler.WithLogger(e.logger),
	)
	return e
}

// StartBillingTask starts the recurring sweep. Idempotent.
func (e *Engine) StartBillingTask() { e.task.Start() }

// StopBillingTask stops the sweep gracefully: an in-flight sweep completes.
func (e *Engine) StopBillingTask() { e.task.Shutdown() }

// ForceStopBillingTask interrupts the sweep immediately. A subscription mid
// charge may be left with a pending invoice; the next sweep resolves it.
func (e *Engine) ForceStopBillingTask() { e.task.Cancel() }

// BillingTaskRunning reports whether the sweep task is alive.
func (e *Engine) BillingTaskRunning() bool { return e.task.Running() }

// Subscribe enrolls a customer into a plan, starting INCOMPLETE today.
func (e *Engine) Subscribe(ctx context.Context, customer *Customer, plan *Plan) (*Subscription, error) {
	return e.subscriptions.Subscribe(ctx, customer, plan, e.now())
}

// Sweep advances every subscription exactly once, keyed off the given date.
// One subscription's failure never aborts the pass; the only error that
// escapes is a charge abandoned after retry exhaustion, which ends this cycle
// and is retried by the scheduler on the next one.
func (e *Engine) Sweep(ctx context.Context, today time.Time) error {
	e.logger.Debug("billing sweep started", slog.Time("today", DateOf(today)))

	subs, err := e.subscriptions.List(ctx)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}

	for i := range subs {
		if err := e.sweepOne(ctx, &subs[i], today); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) sweepOne(ctx context.Context, sub *Subscription, today time.Time) error {
	switch sub.Status {
	case SubscriptionCanceled, SubscriptionIncompleteExpired:
		// Terminal, nothing to do.
		return nil

	case SubscriptionIncomplete:
		if DaysBetween(sub.CreatedAt, today) <= incompleteWindowDays {
			charged, err := e.InvoiceSubscription(ctx, sub)
			if err != nil {
				return err
			}
			if charged {
				if err := e.subscriptions.Activate(ctx, sub); err != nil {
					e.deferToNextSweep(sub, err)
					return nil
				}
				e.logger.Info("subscription activated", slog.String("subscription_id", sub.ID.String()))
				e.notify(ctx, sub.CustomerID, msgSubscriptionActivated, nil)
			}
			return nil
		}
		if err := e.subscriptions.Expire(ctx, sub); err != nil {
			e.deferToNextSweep(sub, err)
			return nil
		}
		e.logger.Info("subscription expired", slog.String("subscription_id", sub.ID.String()))
		e.notify(ctx, sub.CustomerID, msgSubscriptionExpired, nil)
		return nil

	case SubscriptionActive:
		if sub.CurrentPeriodEnd.After(DateOf(today)) {
			return nil // not due yet
		}
		if sub.CancelAtPeriodEnd {
			if err := e.subscriptions.Cancel(ctx, sub, today); err != nil {
				e.deferToNextSweep(sub, err)
				return nil
			}
			e.logger.Info("subscription canceled on request", slog.String("subscription_id", sub.ID.String()))
			e.notify(ctx, sub.CustomerID, msgSubscriptionCanceled, nil)
			return nil
		}
		charged, err := e.InvoiceSubscription(ctx, sub)
		if err != nil {
			return err
		}
		if charged {
			if err := e.subscriptions.Renew(ctx, sub); err != nil {
				e.deferToNextSweep(sub, err)
				return nil
			}
			e.logger.Info("subscription renewed", slog.String("subscription_id", sub.ID.String()))
			e.notify(ctx, sub.CustomerID, msgSubscriptionRenewed, nil)
			return nil
		}
		if err := e.subscriptions.PastDue(ctx, sub); err != nil {
			e.deferToNextSweep(sub, err)
			return nil
		}
		e.logger.Info("subscription past due", slog.String("subscription_id", sub.ID.String()))
		e.notify(ctx, sub.CustomerID, msgSubscriptionPastDue, nil)
		return nil

	case SubscriptionPastDue:
		if DaysBetween(sub.CurrentPeriodEnd, today) <= graceWindowDays {
			charged, err := e.InvoiceSubscription(ctx, sub)
			if err != nil {
				return err
			}
			if charged {
				if err := e.subscriptions.Renew(ctx, sub); err != nil {
					e.deferToNextSweep(sub, err)
					return nil
				}
				e.logger.Info("subscription rescued within grace window",
					slog.String("subscription_id", sub.ID.String()))
				e.notify(ctx, sub.CustomerID, msgSubscriptionRenewed, nil)
			}
			return nil
		}
		if err := e.subscriptions.Cancel(ctx, sub, today); err != nil {
			e.deferToNextSweep(sub, err)
			return nil
		}
		e.logger.Info("subscription canceled after grace window",
			slog.String("subscription_id", sub.ID.String()))
		e.notify(ctx, sub.CustomerID, msgGracePeriodOver, nil)
		return nil
	}

	e.logger.Warn("subscription in unknown status skipped",
		slog.String("subscription_id", sub.ID.String()),
		slog.String("status", string(sub.Status)))
	return nil
}

// deferToNextSweep logs a failed state write. Optimistic-concurrency
// conflicts land here: the subscription keeps its stored state and the next
// sweep re-evaluates it.
func (e *Engine) deferToNextSweep(sub *Subscription, err error) {
	level := slog.LevelError
	if errors.Is(err, ErrWriteFailed) {
		level = slog.LevelWarn
	}
	e.logger.Log(context.Background(), level, "subscription state write failed; left for next sweep",
		slog.String("subscription_id", sub.ID.String()),
		slog.String("error", err.Error()))
}

// notify delivers a customer notification. Failures are logged and dropped:
// notification delivery is best-effort and never rolls back a state change.
func (e *Engine) notify(ctx context.Context, customerID uuid.UUID, message string, inv *Invoice) {
	if err := e.notifier.Send(ctx, Notification{CustomerID: customerID, Message: message, Invoice: inv}); err != nil {
		e.logger.Warn("notification delivery failed",
			slog.String("customer_id", customerID.String()),
			slog.String("error", err.Error()))
	}
}

// notifyOperator reports an operational fault on the operator account.
func (e *Engine) notifyOperator(ctx context.Context, message string) {
	e.notify(ctx, e.operatorID, message, nil)
}

// SetupInitialData subscribes every existing customer to a plan and performs
// the first charge, activating the subscriptions that settle. Plans are
// assigned round-robin so repeated runs against the same data set behave the
// same way.
func (e *Engine) SetupInitialData(ctx context.Context) error {
	customers, err := e.customers.List(ctx)
	if err != nil {
		return fmt.Errorf("list customers: %w", err)
	}
	plans, err := e.plans.List(ctx)
	if err != nil {
		return fmt.Errorf("list plans: %w", err)
	}
	if len(plans) == 0 {
		return ErrPlanNotFound
	}

	for i := range customers {
		customer := &customers[i]
		plan := &plans[i%len(plans)]

		sub, err := e.Subscribe(ctx, customer, plan)
		if err != nil {
			e.logger.Error("failed to subscribe customer",
				slog.String("customer_id", customer.ID.String()),
				slog.String("error", err.Error()))
			e.notifyOperator(ctx, fmt.Sprintf("failed to create subscription for customer %s", customer.ID))
			continue
		}

		charged, err := e.InvoiceSubscription(ctx, sub)
		if err != nil {
			e.logger.Error("failed to charge initial subscription",
				slog.String("subscription_id", sub.ID.String()),
				slog.String("error", err.Error()))
			e.notifyOperator(ctx, fmt.Sprintf("failed to charge subscription %s", sub.ID))
			continue
		}
		if charged {
			if err := e.subscriptions.Activate(ctx, sub); err != nil {
				e.deferToNextSweep(sub, err)
			}
		}
	}
	return nil
}
