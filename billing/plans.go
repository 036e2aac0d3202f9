package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/currency"
)

// PlanService is a thin façade over PlanStore. Plans are immutable reference
// data; there is no update path.
type PlanService struct {
	store PlanStore
}

// NewPlanService panics on a nil store to fail fast during wiring.
func NewPlanService(store PlanStore) *PlanService {
	if store == nil {
		panic("billing: PlanStore is required")
	}
	return &PlanService{store: store}
}

// Create registers a plan under a unique symbolic code.
func (s *PlanService) Create(ctx context.Context, code string, amount currency.Money, interval Interval) (*Plan, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("%w: empty code", ErrPlanNotFound)
	}
	if !interval.Valid() {
		interval = IntervalMonth
	}
	p := &Plan{
		ID:       uuid.New(),
		Code:     code,
		Amount:   amount,
		Interval: interval,
	}
	if err := s.store.CreatePlan(ctx, p); err != nil {
		return nil, fmt.Errorf("create plan %q: %w", code, err)
	}
	return p, nil
}

// Get returns ErrPlanNotFound when the id is unknown.
func (s *PlanService) Get(ctx context.Context, id uuid.UUID) (*Plan, error) {
	return s.store.GetPlan(ctx, id)
}

// GetByCode looks a plan up by its symbolic code.
func (s *PlanService) GetByCode(ctx context.Context, code string) (*Plan, error) {
	return s.store.GetPlanByCode(ctx, strings.ToLower(strings.TrimSpace(code)))
}

// List returns all plans.
func (s *PlanService) List(ctx context.Context) ([]Plan, error) {
	return s.store.ListPlans(ctx)
}

// First returns the first plan on record, used as the fallback assignment
// when a requested plan is missing.
func (s *PlanService) First(ctx context.Context) (*Plan, error) {
	plans, err := s.store.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, ErrPlanNotFound
	}
	return &plans[0], nil
}
