package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/billingkit/api"
	"github.com/dmitrymomot/billingkit/billing"
	"github.com/dmitrymomot/billingkit/billing/memstore"
	"github.com/dmitrymomot/billingkit/billing/pgstore"
	"github.com/dmitrymomot/billingkit/currency"
	"github.com/dmitrymomot/billingkit/notify"
	"github.com/dmitrymomot/billingkit/pkg/config"
	"github.com/dmitrymomot/billingkit/pkg/httpserver"
	"github.com/dmitrymomot/billingkit/pkg/logger"
	"github.com/dmitrymomot/billingkit/pkg/pg"
)

type appConfig struct {
	AppName     string `env:"APP_NAME" envDefault:"billingd"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	// Storage selects the backing store: "postgres" or "memory". The memory
	// store is for local development only; it loses everything on restart.
	Storage   string `env:"STORAGE" envDefault:"postgres"`
	Seed      bool   `env:"SEED" envDefault:"false"`
	PlansPath string `env:"PLANS_PATH" envDefault:"plans.yml"`
	// OperatorID is the account that receives operational fault alerts
	// (missing customers, unconvertible currencies).
	OperatorID string `env:"BILLING_OPERATOR_ID"`
}

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("billingd exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var app appConfig
	if err := config.Load(&app); err != nil {
		return fmt.Errorf("load app config: %w", err)
	}
	var billingCfg billing.Config
	if err := config.Load(&billingCfg); err != nil {
		return fmt.Errorf("load billing config: %w", err)
	}
	var notifyCfg notify.Config
	if err := config.Load(&notifyCfg); err != nil {
		return fmt.Errorf("load notify config: %w", err)
	}
	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return fmt.Errorf("load http config: %w", err)
	}

	log := logger.New(logger.WithEnvironment(app.Environment, app.AppName))
	logger.SetAsDefault(log)

	store, closeStore, err := openStore(ctx, app, log)
	if err != nil {
		return err
	}
	defer closeStore()

	registry := billing.NewStatusRegistry(store)
	if err := registry.EnsureStatuses(ctx); err != nil {
		return fmt.Errorf("ensure statuses: %w", err)
	}

	customers := billing.NewCustomerService(store)
	invoices := billing.NewInvoiceService(store)
	plans := billing.NewPlanService(store)
	subscriptions := billing.NewSubscriptionService(store, store)

	notifier := buildNotifier(notifyCfg, customers, log)
	payments := newDevPayments(customers)

	engineOpts := []billing.EngineOption{billing.WithLogger(log)}
	if app.OperatorID != "" {
		operator, err := uuid.Parse(app.OperatorID)
		if err != nil {
			return fmt.Errorf("parse BILLING_OPERATOR_ID: %w", err)
		}
		engineOpts = append(engineOpts, billing.WithOperatorID(operator))
	} else {
		log.Warn("no operator account configured, operational alerts have no recipient")
	}

	engine := billing.NewEngine(billingCfg,
		payments,
		currency.NewRateTable(currency.DefaultRates()),
		notifier,
		customers, invoices, plans, subscriptions,
		engineOpts...,
	)

	if app.Seed {
		if err := seed(ctx, app.PlansPath, customers, invoices, plans, log); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		if err := engine.SetupInitialData(ctx); err != nil {
			return fmt.Errorf("setup initial data: %w", err)
		}
	}

	server := api.NewServer(engine, customers, invoices, plans, subscriptions)

	srv := httpserver.NewFromConfig(httpCfg,
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(l *slog.Logger) {
			engine.StartBillingTask()
			l.Info("billing task started")
		}),
		httpserver.WithStopHook(func(l *slog.Logger) {
			// Stop scheduling first, then interrupt the inter-cycle wait so
			// shutdown does not hang for up to a full sweep interval. A sweep
			// cut short leaves pending invoices for the next run.
			engine.StopBillingTask()
			engine.ForceStopBillingTask()
			l.Info("billing task stopped")
		}),
	)
	return srv.Run(ctx, server.Router())
}

// openStore builds the configured billing.Store and its teardown.
func openStore(ctx context.Context, app appConfig, log *slog.Logger) (billing.Store, func(), error) {
	if app.Storage == "memory" {
		log.Warn("using in-memory store; all data is lost on restart")
		return memstore.New(), func() {}, nil
	}

	var pgCfg pg.Config
	if err := config.Load(&pgCfg); err != nil {
		return nil, nil, fmt.Errorf("load pg config: %w", err)
	}
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return pgstore.New(pool), closePool(pool), nil
}

func closePool(pool *pgxpool.Pool) func() {
	return func() { pool.Close() }
}

// buildNotifier prefers Postmark when the tokens are configured and falls
// back to the log provider otherwise.
func buildNotifier(cfg notify.Config, customers *billing.CustomerService, log *slog.Logger) billing.NotificationProvider {
	if cfg.PostmarkServerToken == "" || cfg.PostmarkAccountToken == "" {
		log.Info("postmark not configured, notifications go to the log")
		return notify.NewLog(log)
	}
	email, err := notify.NewEmail(cfg, notify.AddressLookup(customerEmail(customers)))
	if err != nil {
		log.Warn("email notifier misconfigured, falling back to log",
			slog.String("error", err.Error()))
		return notify.NewLog(log)
	}
	return email
}
