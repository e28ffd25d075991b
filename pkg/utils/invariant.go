// Invariants are conditions the code relies on and that only a bug can break, e.g. a shard count that the
// constructor already clamped, or a command table entry without a handler. Violations are logged, counted in
// `invariants_total` for alerting and, in test builds, turned into panics. Production keeps serving; the caller
// still has to handle the broken case itself, usually by returning early.
//
// Conditions that depend on the outside world (bad client input, a closed socket) are errors, not invariants.

package utils

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	promclient "github.com/prometheus/client_model/go"
)

var invariantsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "invariants_total",
	Help: "The total number of invariant violations",
}, []string{
	"module", // The module in which this invariant occurred.
	"type",   // The type of the invariant that occurred.
})

// RaiseInvariant records a violation of `invariantType` inside `module`. `args` are slog attributes.
func RaiseInvariant(module, invariantType, msg string, args ...any) {
	invariantsMetric.WithLabelValues(module, invariantType).Inc()
	slog.With("invariant", invariantType, "module", module).Error(msg, args...)
	if IsTestMode {
		panic("invariant violated: " + invariantType)
	}
}

// GetMetricValue returns how many times `invariantType` has been raised inside `module`.
func GetMetricValue(module, invariantType string) int {
	return int(CounterValue(invariantsMetric.WithLabelValues(module, invariantType)))
}

// CounterValue reads the current value of a prometheus counter, or 0 if it can't be read.
func CounterValue(counter prometheus.Counter) float64 {
	metric := new(promclient.Metric)
	if err := counter.Write(metric); err != nil {
		slog.Error("Failed to read counter value.", "error", err)
		return 0
	}
	return metric.GetCounter().GetValue()
}
