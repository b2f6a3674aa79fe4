// Package bootstrap fills a card registry once at process start, either by
// calling the generated aggregate entry point or by walking the registrar
// table that generated files populate from init().
package bootstrap

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/cardwire/card"
)

// aggregatorName labels the aggregator result in reports.
const aggregatorName = "InitAll"

// Option configures a Bootstrapper.
type Option func(*Bootstrapper)

// WithAggregator sets the generated entry point that calls every registrar.
// When set, the registrar table is not consulted.
func WithAggregator(fn card.RegistrarFunc) Option {
	return func(b *Bootstrapper) {
		b.aggregator = fn
	}
}

// WithFallback sets the registrar table walked when no aggregator is
// configured. Only entries whose names start with prefix are invoked; an
// empty prefix selects card.RegistrarPrefix.
func WithFallback(table *card.RegistrarTable, prefix string) Option {
	return func(b *Bootstrapper) {
		if prefix == "" {
			prefix = card.RegistrarPrefix
		}
		b.table = table
		b.prefix = prefix
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bootstrapper) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics records invocation outcomes into m.
func WithMetrics(m *Metrics) Option {
	return func(b *Bootstrapper) {
		b.metrics = m
	}
}

// Bootstrapper invokes registrars into a registry exactly once.
type Bootstrapper struct {
	registry   *card.Registry
	aggregator card.RegistrarFunc
	table      *card.RegistrarTable
	prefix     string
	logger     *slog.Logger
	metrics    *Metrics

	mu   sync.Mutex
	done bool
}

// New creates a bootstrapper for reg.
func New(reg *card.Registry, opts ...Option) *Bootstrapper {
	b := &Bootstrapper{
		registry: reg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run invokes the configured strategy. Registrar failures do not abort the
// run; they are recorded in the report, see Report.Err. Run returns an error
// only when nothing could be invoked.
func (b *Bootstrapper) Run() (*Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.done {
		return nil, ErrAlreadyBootstrapped
	}

	var strategy Strategy
	switch {
	case b.aggregator != nil:
		strategy = StrategyAggregator
	case b.table != nil:
		strategy = StrategyFallback
	default:
		return nil, ErrNoStrategy
	}
	b.done = true

	start := time.Now()
	report := &Report{
		RunID:    uuid.New(),
		Strategy: strategy,
	}

	if strategy == StrategyAggregator {
		report.Results = append(report.Results, b.invoke(strategy, aggregatorName, b.aggregator))
	} else {
		for _, entry := range b.table.Entries() {
			if !strings.HasPrefix(entry.Name, b.prefix) {
				continue
			}
			report.Results = append(report.Results, b.invoke(strategy, entry.Name, entry.Fn))
		}
	}

	report.Registered = b.registry.Len()
	report.Duration = time.Since(start)
	if b.metrics != nil {
		b.metrics.ObserveRun(report.Registered, start)
	}

	b.logger.Info("Bootstrap complete",
		"run_id", report.RunID.String(),
		"strategy", string(strategy),
		"registrars", len(report.Results),
		"failed", len(report.Failed()),
		"cards", report.Registered,
		"duration", report.Duration)
	return report, nil
}

// invoke calls one registrar, converting a missing function or a panic into
// the result's error.
func (b *Bootstrapper) invoke(strategy Strategy, name string, fn card.RegistrarFunc) (res Result) {
	res.Name = name
	before := b.registry.Len()

	defer func() {
		if r := recover(); r != nil {
			res.Err = &InvokeError{Name: name, Cause: fmt.Errorf("panic: %v", r)}
		}
		res.Cards = b.registry.Len() - before
		if res.Err != nil {
			b.logger.Warn("Registrar failed, continuing",
				"name", name,
				"error", res.Err)
		} else {
			b.logger.Debug("Registrar invoked",
				"name", name,
				"cards", res.Cards)
		}
		if b.metrics != nil {
			b.metrics.ObserveInvocation(strategy, res.Err)
		}
	}()

	if fn == nil {
		res.Err = fmt.Errorf("%s: %w", name, ErrMissingEntryPoint)
		return res
	}
	fn(b.registry)
	return res
}
