package billing

import (
	"context"
	"fmt"
	"sync"
)

// StatusKind distinguishes the two status tables.
type StatusKind string

const (
	StatusKindInvoice      StatusKind = "invoice"
	StatusKindSubscription StatusKind = "subscription"
)

// StatusRecord is the persisted form of a symbolic status: the engine works
// with symbolic codes only, and stores translate to the record id at the
// persistence boundary.
type StatusRecord struct {
	ID          int32  `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// StatusStore persists status records.
type StatusStore interface {
	// EnsureStatus creates the record if missing and returns it; it is
	// idempotent per (kind, code).
	EnsureStatus(ctx context.Context, kind StatusKind, code, description string) (StatusRecord, error)
	// GetStatus returns ErrStatusNotFound for unknown codes.
	GetStatus(ctx context.Context, kind StatusKind, code string) (StatusRecord, error)
}

// StatusRegistry is the authoritative symbol-to-record mapping, resolved once
// at startup and cached for the process lifetime.
type StatusRegistry struct {
	store StatusStore

	mu    sync.RWMutex
	cache map[StatusKind]map[string]StatusRecord
}

// NewStatusRegistry wraps a StatusStore with an in-process cache.
func NewStatusRegistry(store StatusStore) *StatusRegistry {
	return &StatusRegistry{
		store: store,
		cache: make(map[StatusKind]map[string]StatusRecord),
	}
}

// EnsureStatuses creates every invoice and subscription status record once
// and warms the cache. Safe to call on every startup.
func (r *StatusRegistry) EnsureStatuses(ctx context.Context) error {
	for code, desc := range InvoiceStatuses() {
		rec, err := r.store.EnsureStatus(ctx, StatusKindInvoice, string(code), desc)
		if err != nil {
			return fmt.Errorf("ensure invoice status %q: %w", code, err)
		}
		r.put(StatusKindInvoice, rec)
	}
	for code, desc := range SubscriptionStatuses() {
		rec, err := r.store.EnsureStatus(ctx, StatusKindSubscription, string(code), desc)
		if err != nil {
			return fmt.Errorf("ensure subscription status %q: %w", code, err)
		}
		r.put(StatusKindSubscription, rec)
	}
	return nil
}

// Resolve returns the cached record for a symbolic code, falling back to the
// store on a cold cache.
func (r *StatusRegistry) Resolve(ctx context.Context, kind StatusKind, code string) (StatusRecord, error) {
	r.mu.RLock()
	if byCode, ok := r.cache[kind]; ok {
		if rec, ok := byCode[code]; ok {
			r.mu.RUnlock()
			return rec, nil
		}
	}
	r.mu.RUnlock()

	rec, err := r.store.GetStatus(ctx, kind, code)
	if err != nil {
		return StatusRecord{}, err
	}
	r.put(kind, rec)
	return rec, nil
}

func (r *StatusRegistry) put(kind StatusKind, rec StatusRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byCode, ok := r.cache[kind]
	if !ok {
		byCode = make(map[string]StatusRecord)
		r.cache[kind] = byCode
	}
	byCode[rec.Code] = rec
}
