package bootstrap

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Strategy names the invocation path a run took.
type Strategy string

const (
	// StrategyAggregator calls the generated InitAll entry point.
	StrategyAggregator Strategy = "aggregator"

	// StrategyFallback walks the link-time registrar table.
	StrategyFallback Strategy = "fallback"
)

// Result is the outcome of one registrar invocation.
type Result struct {
	// Name is the registrar name, or "InitAll" for the aggregator
	Name string

	// Cards is how many cards the call added to the registry
	Cards int

	// Err is nil on success
	Err error
}

// Report summarizes a bootstrap run.
type Report struct {
	RunID      uuid.UUID
	Strategy   Strategy
	Results    []Result
	Registered int
	Duration   time.Duration
}

// Failed returns the results that carry an error.
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Err joins the errors of all failed results, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, res.Err)
	}
	return errors.Join(errs...)
}
