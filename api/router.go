package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/billing"
)

// Server bundles the handlers for the billing HTTP surface.
type Server struct {
	engine        *billing.Engine
	customers     *billing.CustomerService
	invoices      *billing.InvoiceService
	plans         *billing.PlanService
	subscriptions *billing.SubscriptionService
}

// NewServer panics on nil collaborators to fail fast during wiring.
func NewServer(
	engine *billing.Engine,
	customers *billing.CustomerService,
	invoices *billing.InvoiceService,
	plans *billing.PlanService,
	subscriptions *billing.SubscriptionService,
) *Server {
	if engine == nil {
		panic("api: billing.Engine is required")
	}
	if customers == nil || invoices == nil || plans == nil || subscriptions == nil {
		panic("api: entity services are required")
	}
	return &Server{
		engine:        engine,
		customers:     customers,
		invoices:      invoices,
		plans:         plans,
		subscriptions: subscriptions,
	}
}

// Router mounts the full surface.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)

	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/invoices", s.listInvoices)
		v1.Get("/invoices/{id}", s.getInvoice)
		v1.Get("/customers", s.listCustomers)
		v1.Get("/customers/{id}", s.getCustomer)
		v1.Get("/customers/{id}/invoices", s.listCustomerInvoices)
		v1.Get("/plans", s.listPlans)
		v1.Get("/plans/{id}", s.getPlan)
		v1.Get("/subscriptions", s.listSubscriptions)
		v1.Get("/subscriptions/{id}", s.getSubscription)

		v1.Route("/billing", func(b chi.Router) {
			b.Post("/start", s.startBilling)
			b.Post("/stop", s.stopBilling)
			b.Post("/force-stop", s.forceStopBilling)
			b.Get("/status", s.billingStatus)
		})
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pathID parses the {id} route parameter; a malformed id is a 400.
func pathID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id %q", errBadRequest, raw)
	}
	return id, nil
}

func (s *Server) listInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := s.invoices.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, invoices)
}

func (s *Server) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	inv, err := s.invoices.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, inv)
}

func (s *Server) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := s.customers.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, customers)
}

func (s *Server) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	c, err := s.customers.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, c)
}

func (s *Server) listCustomerInvoices(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if _, err := s.customers.Get(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	invoices, err := s.invoices.ListByCustomer(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, invoices)
}

func (s *Server) listPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.plans.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, plans)
}

func (s *Server) getPlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	p, err := s.plans.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (s *Server) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.subscriptions.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, subs)
}

func (s *Server) getSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	sub, err := s.subscriptions.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, sub)
}

func (s *Server) startBilling(w http.ResponseWriter, r *http.Request) {
	s.engine.StartBillingTask()
	respond(w, http.StatusAccepted, map[string]bool{"running": s.engine.BillingTaskRunning()})
}

func (s *Server) stopBilling(w http.ResponseWriter, r *http.Request) {
	s.engine.StopBillingTask()
	respond(w, http.StatusAccepted, map[string]bool{"running": s.engine.BillingTaskRunning()})
}

func (s *Server) forceStopBilling(w http.ResponseWriter, r *http.Request) {
	s.engine.ForceStopBillingTask()
	respond(w, http.StatusAccepted, map[string]bool{"running": s.engine.BillingTaskRunning()})
}

func (s *Server) billingStatus(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]bool{"running": s.engine.BillingTaskRunning()})
}
