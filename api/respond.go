package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/billingkit/billing"
)

// response is the standard JSON envelope.
type response struct {
	Data  any          `json:"data,omitempty"`
	Error *errorDetail `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response{Data: data})
}

// respondError maps domain errors onto HTTP statuses: unknown entities are
// 404, malformed input is 400, everything else is a 500 with the message
// redacted.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	detail := errorDetail{Code: "internal_error", Message: "internal server error"}

	switch {
	case errors.Is(err, billing.ErrCustomerNotFound),
		errors.Is(err, billing.ErrInvoiceNotFound),
		errors.Is(err, billing.ErrPlanNotFound),
		errors.Is(err, billing.ErrSubscriptionNotFound),
		errors.Is(err, billing.ErrStatusNotFound):
		status = http.StatusNotFound
		detail = errorDetail{Code: "not_found", Message: err.Error()}
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
		detail = errorDetail{Code: "bad_request", Message: err.Error()}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response{Error: &detail})
}

var errBadRequest = errors.New("bad request")
