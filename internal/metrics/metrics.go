package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the solver.
	Registry = prometheus.NewRegistry()

	// Iterations counts search iterations by outcome (best, accepted, rejected).
	Iterations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solver_iterations_total", Help: "Search iterations by outcome."},
		[]string{"outcome"},
	)
	// PackAttempts counts packing attempts by result (feasible, infeasible).
	PackAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pack_attempts_total", Help: "Packing attempts by result."},
		[]string{"result"},
	)
	// PackCache counts memo cache lookups by outcome (hit, miss).
	PackCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pack_cache_total", Help: "Pack memo cache lookups by outcome."},
		[]string{"outcome"},
	)
	// PackDuration records packing attempt durations in seconds.
	PackDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "pack_duration_seconds", Help: "Packing attempt duration in seconds.", Buckets: prometheus.DefBuckets},
	)
	// BestCost tracks the best objective found in the current run.
	BestCost = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "solver_best_cost", Help: "Best weighted cost found so far."},
	)
)

// RegisterDefault registers all solver collectors on the registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(Iterations)
		Registry.MustRegister(PackAttempts)
		Registry.MustRegister(PackCache)
		Registry.MustRegister(PackDuration)
		Registry.MustRegister(BestCost)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
