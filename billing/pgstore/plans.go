package pgstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/billingkit/billing"
	"github.com/dmitrymomot/billingkit/pkg/pg"
)

const selectPlan = `SELECT id, code, amount::text, currency, billing_interval FROM plans`

func scanPlan(row pgx.Row) (*billing.Plan, error) {
	var (
		p            billing.Plan
		amount, code string
		interval     string
	)
	if err := row.Scan(&p.ID, &p.Code, &amount, &code, &interval); err != nil {
		return nil, err
	}
	m, err := scanMoney(amount, code)
	if err != nil {
		return nil, err
	}
	p.Amount = m
	p.Interval = billing.Interval(interval)
	return &p, nil
}

// CreatePlan implements billing.PlanStore. A duplicate code surfaces as
// billing.ErrDuplicatePlanCode.
func (s *Store) CreatePlan(ctx context.Context, p *billing.Plan) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO plans (id, code, amount, currency, billing_interval) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Code, p.Amount.Amount.StringFixed(2), string(p.Amount.Currency), string(p.Interval))
	if pg.IsDuplicateKeyError(err) {
		return fmt.Errorf("plan %q: %w", p.Code, billing.ErrDuplicatePlanCode)
	}
	if err != nil {
		return fmt.Errorf("insert plan %q: %w", p.Code, err)
	}
	return nil
}

// GetPlan implements billing.PlanStore.
func (s *Store) GetPlan(ctx context.Context, id uuid.UUID) (*billing.Plan, error) {
	p, err := scanPlan(s.db.QueryRow(ctx, selectPlan+` WHERE id = $1`, id))
	if pg.IsNotFoundError(err) {
		return nil, &billing.NotFoundError{Entity: "plan", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("select plan %s: %w", id, err)
	}
	return p, nil
}

// GetPlanByCode implements billing.PlanStore.
func (s *Store) GetPlanByCode(ctx context.Context, code string) (*billing.Plan, error) {
	p, err := scanPlan(s.db.QueryRow(ctx, selectPlan+` WHERE code = $1`, code))
	if pg.IsNotFoundError(err) {
		return nil, fmt.Errorf("plan %q: %w", code, billing.ErrPlanNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select plan %q: %w", code, err)
	}
	return p, nil
}

// ListPlans implements billing.PlanStore.
func (s *Store) ListPlans(ctx context.Context) ([]billing.Plan, error) {
	rows, err := s.db.Query(ctx, selectPlan+` ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("select plans: %w", err)
	}
	defer rows.Close()

	var out []billing.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
