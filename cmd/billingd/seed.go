package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/billingkit/billing"
	"github.com/dmitrymomot/billingkit/currency"
)

const seedCustomerCount = 100

// planCatalog is the on-disk plan seed format.
type planCatalog struct {
	Plans []planSpec `yaml:"plans"`
}

type planSpec struct {
	Code     string `yaml:"code"`
	Amount   string `yaml:"amount"`
	Currency string `yaml:"currency"`
	Interval string `yaml:"interval"`
}

// seed loads the plan catalog and generates a population of customers, each
// with one open pending invoice. Plans already present are kept, so seeding is
// safe to repeat.
func seed(
	ctx context.Context,
	plansPath string,
	customers *billing.CustomerService,
	invoices *billing.InvoiceService,
	plans *billing.PlanService,
	log *slog.Logger,
) error {
	if err := seedPlans(ctx, plansPath, plans, log); err != nil {
		return err
	}
	return seedCustomers(ctx, customers, invoices, log)
}

func seedPlans(ctx context.Context, path string, plans *billing.PlanService, log *slog.Logger) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read plan catalog %s: %w", path, err)
	}
	var catalog planCatalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return fmt.Errorf("parse plan catalog %s: %w", path, err)
	}
	if len(catalog.Plans) == 0 {
		return fmt.Errorf("plan catalog %s is empty", path)
	}

	for _, spec := range catalog.Plans {
		cur, err := currency.Parse(spec.Currency)
		if err != nil {
			return fmt.Errorf("plan %q: %w", spec.Code, err)
		}
		amount, err := currency.NewMoneyFromString(spec.Amount, cur)
		if err != nil {
			return fmt.Errorf("plan %q: %w", spec.Code, err)
		}
		interval := billing.Interval(spec.Interval)
		if !interval.Valid() {
			return fmt.Errorf("plan %q: unknown interval %q", spec.Code, spec.Interval)
		}

		if _, err := plans.Create(ctx, spec.Code, amount, interval); err != nil {
			if errors.Is(err, billing.ErrDuplicatePlanCode) {
				continue
			}
			return fmt.Errorf("create plan %q: %w", spec.Code, err)
		}
		log.Info("plan seeded", slog.String("code", spec.Code), slog.String("amount", amount.String()))
	}
	return nil
}

func seedCustomers(
	ctx context.Context,
	customers *billing.CustomerService,
	invoices *billing.InvoiceService,
	log *slog.Logger,
) error {
	existing, err := customers.List(ctx)
	if err != nil {
		return fmt.Errorf("list customers: %w", err)
	}
	if len(existing) > 0 {
		log.Info("customers already present, skipping customer seed",
			slog.Int("count", len(existing)))
		return nil
	}

	supported := currency.Supported()
	for i := range seedCustomerCount {
		cur := supported[rand.IntN(len(supported))]
		email := fmt.Sprintf("customer-%03d@example.com", i+1)

		c, err := customers.Create(ctx, cur, email)
		if err != nil {
			return fmt.Errorf("create customer: %w", err)
		}

		amount, err := currency.NewMoneyFromString(randomAmount(), cur)
		if err != nil {
			return fmt.Errorf("seed invoice amount: %w", err)
		}
		if _, err := invoices.Create(ctx, amount, c.ID); err != nil {
			return fmt.Errorf("create invoice for customer %s: %w", c.ID, err)
		}
	}
	log.Info("customers seeded", slog.Int("count", seedCustomerCount))
	return nil
}

// randomAmount returns a value between 1.00 and 500.99.
func randomAmount() string {
	return fmt.Sprintf("%d.%02d", rand.IntN(500)+1, rand.IntN(100))
}
