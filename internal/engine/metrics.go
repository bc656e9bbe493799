// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PlantOutcomes is the counter for resolved plant triggers by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var PlantOutcomes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "grove_plant_outcomes_total",
		Help: "Total number of resolved plant triggers by outcome",
	},
	[]string{"outcome"},
)

// PurchaseOutcomes is the counter for terminal purchase states.
// Use RegisterMetrics to register this with a Prometheus registry.
var PurchaseOutcomes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "grove_purchase_outcomes_total",
		Help: "Total number of purchases by terminal state",
	},
	[]string{"state"},
)

// PlantDuration is the histogram for plant trigger resolution time.
// Use RegisterMetrics to register this with a Prometheus registry.
var PlantDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "grove_plant_duration_seconds",
		Help:    "Plant trigger resolution duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
)

// RegisterMetrics registers engine metrics with the given Prometheus
// registry. Call at startup to make them available on /metrics. Panics if
// registration fails (prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(PlantOutcomes)
	reg.MustRegister(PurchaseOutcomes)
	reg.MustRegister(PlantDuration)
}
