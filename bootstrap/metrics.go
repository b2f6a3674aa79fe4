package bootstrap

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records bootstrap outcomes.
type Metrics struct {
	RegistrarInvocations *prometheus.CounterVec
	CardsRegistered      prometheus.Gauge
	BootstrapDuration    prometheus.Histogram
}

// NewMetrics registers the bootstrap metrics with reg. A nil registerer uses
// the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		RegistrarInvocations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cardwire_registrar_invocations_total",
			Help: "Registrar invocations by strategy and outcome",
		}, []string{"strategy", "status"}),
		CardsRegistered: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cardwire_cards_registered",
			Help: "Number of cards in the registry after bootstrap",
		}),
		BootstrapDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cardwire_bootstrap_duration_seconds",
			Help:    "Duration of the bootstrap run",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}

// ObserveInvocation counts one registrar call.
func (m *Metrics) ObserveInvocation(strategy Strategy, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.RegistrarInvocations.WithLabelValues(string(strategy), status).Inc()
}

// ObserveRun records the registry size and run duration.
// Call with time.Now() at the start of the run.
func (m *Metrics) ObserveRun(cards int, start time.Time) {
	m.CardsRegistered.Set(float64(cards))
	m.BootstrapDuration.Observe(time.Since(start).Seconds())
}
