package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/currency"
)

// InvoiceStatus is the symbolic lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoicePending  InvoiceStatus = "pending"
	InvoicePaid     InvoiceStatus = "paid"
	InvoiceCanceled InvoiceStatus = "canceled"
)

// InvoiceStatuses returns all invoice statuses with their descriptions, in a
// stable order. Used to seed the status registry.
func InvoiceStatuses() map[InvoiceStatus]string {
	return map[InvoiceStatus]string{
		InvoicePending:  "invoice created, awaiting a successful charge",
		InvoicePaid:     "invoice settled by a successful charge",
		InvoiceCanceled: "invoice abandoned; never charged again",
	}
}

// SubscriptionStatus is the symbolic lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionActive            SubscriptionStatus = "active"
	SubscriptionPastDue           SubscriptionStatus = "past_due"
	SubscriptionCanceled          SubscriptionStatus = "canceled"
)

// SubscriptionStatuses returns all subscription statuses with their
// descriptions. Used to seed the status registry.
func SubscriptionStatuses() map[SubscriptionStatus]string {
	return map[SubscriptionStatus]string{
		SubscriptionIncomplete:        "first invoice not yet paid",
		SubscriptionIncompleteExpired: "first invoice unpaid for more than the activation window",
		SubscriptionActive:            "subscription paid up for the current period",
		SubscriptionPastDue:           "renewal charge failed, inside the grace window",
		SubscriptionCanceled:          "subscription terminated",
	}
}

// Terminal reports whether the status admits no further transitions.
func (s SubscriptionStatus) Terminal() bool {
	return s == SubscriptionCanceled || s == SubscriptionIncompleteExpired
}

// Interval is a billing period length.
type Interval string

const (
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

// Days returns the period length in days. Months are fixed at 30 days and
// years at 365, matching the invoicing model rather than the calendar.
func (i Interval) Days() int {
	switch i {
	case IntervalDay:
		return 1
	case IntervalWeek:
		return 7
	case IntervalYear:
		return 365
	default:
		return 30
	}
}

// Valid reports whether i is a known interval.
func (i Interval) Valid() bool {
	switch i {
	case IntervalDay, IntervalWeek, IntervalMonth, IntervalYear:
		return true
	}
	return false
}

// Customer owns invoices and subscriptions and is billed in one currency.
type Customer struct {
	ID        uuid.UUID         `json:"id"`
	Currency  currency.Currency `json:"currency"`
	Email     string            `json:"email,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Plan is immutable reference data describing what a subscription costs.
type Plan struct {
	ID       uuid.UUID      `json:"id"`
	Code     string         `json:"code"` // unique symbolic name, e.g. "standard"
	Amount   currency.Money `json:"amount"`
	Interval Interval       `json:"interval"`
}

// Invoice is a single charge attempt target. Exactly one invoice is the
// "current" one for a subscription at any time; a canceled invoice is never
// reused.
type Invoice struct {
	ID         uuid.UUID      `json:"id"`
	CustomerID uuid.UUID      `json:"customer_id"`
	Amount     currency.Money `json:"amount"`
	Status     InvoiceStatus  `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Subscription ties a customer to a plan across billing periods.
// LatestInvoiceID is a weak reference: it is re-validated on every charge
// attempt and must point at an invoice of the same customer.
// Version backs optimistic concurrency on updates.
type Subscription struct {
	ID                     uuid.UUID          `json:"id"`
	CustomerID             uuid.UUID          `json:"customer_id"`
	PlanID                 uuid.UUID          `json:"plan_id"`
	Status                 SubscriptionStatus `json:"status"`
	CancelAtPeriodEnd      bool               `json:"cancel_at_period_end"`
	CurrentPeriodStart     time.Time          `json:"current_period_start"`
	CurrentPeriodEnd       time.Time          `json:"current_period_end"`
	CreatedAt              time.Time          `json:"created_at"`
	CanceledAt             *time.Time         `json:"canceled_at,omitempty"`
	PendingInvoiceInterval Interval           `json:"pending_invoice_interval"`
	LatestInvoiceID        *uuid.UUID         `json:"latest_invoice_id,omitempty"`
	Version                int64              `json:"-"`
}

// DateOf truncates t to a UTC calendar date. All period arithmetic in the
// engine happens on dates, never on instants.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from a to b, negative when b
// precedes a.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)) / (24 * time.Hour))
}
