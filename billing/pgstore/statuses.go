package pgstore

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/billingkit/billing"
	"github.com/dmitrymomot/billingkit/pkg/pg"
)

// EnsureStatus implements billing.StatusStore. The upsert keeps the call
// idempotent per (kind, code) while letting descriptions evolve.
func (s *Store) EnsureStatus(ctx context.Context, kind billing.StatusKind, code, description string) (billing.StatusRecord, error) {
	var rec billing.StatusRecord
	err := s.db.QueryRow(ctx, `
INSERT INTO billing_statuses (kind, code, description)
VALUES ($1, $2, $3)
ON CONFLICT (kind, code) DO UPDATE SET description = EXCLUDED.description
RETURNING id, code, description`,
		string(kind), code, description).
		Scan(&rec.ID, &rec.Code, &rec.Description)
	if err != nil {
		return billing.StatusRecord{}, fmt.Errorf("ensure %s status %q: %w", kind, code, err)
	}
	return rec, nil
}

// GetStatus implements billing.StatusStore.
func (s *Store) GetStatus(ctx context.Context, kind billing.StatusKind, code string) (billing.StatusRecord, error) {
	var rec billing.StatusRecord
	err := s.db.QueryRow(ctx,
		`SELECT id, code, description FROM billing_statuses WHERE kind = $1 AND code = $2`,
		string(kind), code).
		Scan(&rec.ID, &rec.Code, &rec.Description)
	if pg.IsNotFoundError(err) {
		return billing.StatusRecord{}, fmt.Errorf("%s status %q: %w", kind, code, billing.ErrStatusNotFound)
	}
	if err != nil {
		return billing.StatusRecord{}, fmt.Errorf("select %s status %q: %w", kind, code, err)
	}
	return rec, nil
}
