package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/api"
	"github.com/dmitrymomot/billingkit/billing"
	"github.com/dmitrymomot/billingkit/billing/memstore"
	"github.com/dmitrymomot/billingkit/currency"
)

type fixture struct {
	srv           *httptest.Server
	engine        *billing.Engine
	customers     *billing.CustomerService
	invoices      *billing.InvoiceService
	plans         *billing.PlanService
	subscriptions *billing.SubscriptionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()
	customers := billing.NewCustomerService(store)
	invoices := billing.NewInvoiceService(store)
	plans := billing.NewPlanService(store)
	subscriptions := billing.NewSubscriptionService(store, store)

	engine := billing.NewEngine(
		billing.Config{SweepInterval: time.Hour, RetryAttempts: 3},
		billing.PaymentFunc(func(ctx context.Context, inv billing.Invoice) (bool, error) { return true, nil }),
		currency.NewRateTable(currency.DefaultRates()),
		billing.NotificationFunc(func(ctx context.Context, n billing.Notification) error { return nil }),
		customers, invoices, plans, subscriptions,
	)

	server := api.NewServer(engine, customers, invoices, plans, subscriptions)
	srv := httptest.NewServer(server.Router())
	t.Cleanup(srv.Close)
	t.Cleanup(engine.ForceStopBillingTask)

	return &fixture{
		srv:           srv,
		engine:        engine,
		customers:     customers,
		invoices:      invoices,
		plans:         plans,
		subscriptions: subscriptions,
	}
}

func (f *fixture) do(t *testing.T, method, path string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, nil)
	require.NoError(t, err)
	resp, err := f.srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var body map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestHealth(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body["data"]))
}

func TestEntityEndpoints(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	c, err := f.customers.Create(ctx, currency.USD, "jane@example.com")
	require.NoError(t, err)
	amount, err := currency.NewMoneyFromString("15.00", currency.USD)
	require.NoError(t, err)
	inv, err := f.invoices.Create(ctx, amount, c.ID)
	require.NoError(t, err)
	p, err := f.plans.Create(ctx, "standard", amount, billing.IntervalMonth)
	require.NoError(t, err)
	sub, err := f.subscriptions.Subscribe(ctx, c, p, time.Now())
	require.NoError(t, err)

	t.Run("get by id", func(t *testing.T) {
		t.Parallel()
		for _, path := range []string{
			"/v1/customers/" + c.ID.String(),
			"/v1/invoices/" + inv.ID.String(),
			"/v1/plans/" + p.ID.String(),
			"/v1/subscriptions/" + sub.ID.String(),
		} {
			resp, body := f.do(t, http.MethodGet, path)
			assert.Equal(t, http.StatusOK, resp.StatusCode, path)
			assert.NotEmpty(t, body["data"], path)
		}
	})

	t.Run("lists", func(t *testing.T) {
		t.Parallel()
		resp, body := f.do(t, http.MethodGet, "/v1/invoices")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var invoices []billing.Invoice
		require.NoError(t, json.Unmarshal(body["data"], &invoices))
		require.Len(t, invoices, 1)
		assert.Equal(t, inv.ID, invoices[0].ID)
	})

	t.Run("customer invoices", func(t *testing.T) {
		t.Parallel()
		resp, body := f.do(t, http.MethodGet, "/v1/customers/"+c.ID.String()+"/invoices")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var invoices []billing.Invoice
		require.NoError(t, json.Unmarshal(body["data"], &invoices))
		require.Len(t, invoices, 1)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		t.Parallel()
		for _, path := range []string{
			"/v1/customers/9d5e7a88-46f6-4f17-9d63-01111a1f5c3d",
			"/v1/invoices/9d5e7a88-46f6-4f17-9d63-01111a1f5c3d",
			"/v1/plans/9d5e7a88-46f6-4f17-9d63-01111a1f5c3d",
			"/v1/subscriptions/9d5e7a88-46f6-4f17-9d63-01111a1f5c3d",
		} {
			resp, _ := f.do(t, http.MethodGet, path)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		}
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		t.Parallel()
		resp, body := f.do(t, http.MethodGet, "/v1/invoices/not-a-uuid")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, string(body["error"]), "bad_request")
	})
}

func TestBillingControl(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/v1/billing/status")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"running":false}`, string(body["data"]))

	resp, body = f.do(t, http.MethodPost, "/v1/billing/start")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.JSONEq(t, `{"running":true}`, string(body["data"]))

	// Graceful stop lets the current cycle finish; the task stays alive until
	// its wait elapses, so only the forced stop is observable here.
	resp, _ = f.do(t, http.MethodPost, "/v1/billing/stop")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/v1/billing/force-stop")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		return !f.engine.BillingTaskRunning()
	}, time.Second, 10*time.Millisecond)
}
