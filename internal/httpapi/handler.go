// Package httpapi exposes the ledger over JSON/HTTP.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/report"
)

// Handler serves the ledger's HTTP endpoints.
type Handler struct {
	ledger   *ledger.Ledger
	reporter *report.Reporter
}

// NewHandler creates a Handler.
func NewHandler(l *ledger.Ledger, r *report.Reporter) *Handler {
	return &Handler{ledger: l, reporter: r}
}

// NewRouter wires the API routes. Everything under /api requires a bearer
// token; /metrics and /healthz are public.
func NewRouter(h *Handler, validator middleware.TokenValidator, gatherer prometheus.Gatherer) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Logging)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, envelope{Success: true, Message: "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(func(next http.Handler) http.Handler {
		return middleware.RequireAuth(validator, next)
	})

	api.HandleFunc("/expenses", h.CreateExpense).Methods(http.MethodPost)
	api.HandleFunc("/expenses", h.ListExpenses).Methods(http.MethodGet)
	api.HandleFunc("/expenses/{id}", h.GetExpense).Methods(http.MethodGet)
	api.HandleFunc("/expenses/{id}", h.UpdateExpense).Methods(http.MethodPatch)
	api.HandleFunc("/expenses/{id}", h.DeleteExpense).Methods(http.MethodDelete)

	api.HandleFunc("/settlements", h.CreateSettlement).Methods(http.MethodPost)
	api.HandleFunc("/settlements", h.ListSettlements).Methods(http.MethodGet)
	api.HandleFunc("/settlements/{id}", h.GetSettlement).Methods(http.MethodGet)
	api.HandleFunc("/settlements/{id}", h.DeleteSettlement).Methods(http.MethodDelete)

	api.HandleFunc("/balances", h.GetBalances).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet)

	return r
}
