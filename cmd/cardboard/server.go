package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/cardwire/bootstrap"
	"github.com/c360studio/cardwire/card"
)

// cardsResponse is the body of GET /cards.
type cardsResponse struct {
	RunID    string   `json:"run_id"`
	Strategy string   `json:"strategy"`
	Cards    []string `json:"cards"`
}

// Handler serves the registered cards over HTTP.
type Handler struct {
	logger   *slog.Logger
	registry *card.Registry
	report   *bootstrap.Report
	gatherer prometheus.Gatherer
}

// NewHandler creates a handler for a bootstrapped registry.
func NewHandler(logger *slog.Logger, registry *card.Registry, report *bootstrap.Report, gatherer prometheus.Gatherer) *Handler {
	return &Handler{
		logger:   logger,
		registry: registry,
		report:   report,
		gatherer: gatherer,
	}
}

// Register registers the card routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Get("/cards", h.handleListCards)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
}

// NewRouter wires all endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

// handleListCards returns the names of all registered cards in order.
func (h *Handler) handleListCards(w http.ResponseWriter, r *http.Request) {
	resp := cardsResponse{
		RunID:    h.report.RunID.String(),
		Strategy: string(h.report.Strategy),
		Cards:    h.registry.Names(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode cards response",
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
	}
}
