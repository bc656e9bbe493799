// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package command

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status constants for command execution metrics.
const (
	StatusSuccess     = "success"
	StatusError       = "error"
	StatusNotFound    = "not_found"
	StatusDenied      = "denied"
	StatusRateLimited = "rate_limited"
)

// CommandExecutions is the counter for command executions.
// Use RegisterMetrics to register this with a Prometheus registry.
var CommandExecutions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "grove_command_executions_total",
		Help: "Total number of command executions",
	},
	[]string{"command", "status"},
)

// CommandDuration is the histogram for command execution duration.
// Use RegisterMetrics to register this with a Prometheus registry.
var CommandDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "grove_command_duration_seconds",
		Help:    "Command execution duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"command"},
)

// OutputFailures is the counter for failed command output writes.
// Use RegisterMetrics to register this with a Prometheus registry.
var OutputFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "grove_command_output_failures_total",
		Help: "Total number of failed command output writes",
	},
	[]string{"command"},
)

// RegisterMetrics registers command package metrics with the given
// Prometheus registry. Panics if registration fails.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(CommandExecutions)
	reg.MustRegister(CommandDuration)
	reg.MustRegister(OutputFailures)
}

// RecordOutputFailure increments the output failure counter.
func RecordOutputFailure(command string) {
	OutputFailures.WithLabelValues(command).Inc()
}

// RecordExecution increments the command execution counter. Use the
// Status* constants for status.
func RecordExecution(command, status string) {
	CommandExecutions.WithLabelValues(command, status).Inc()
}

// RecordDuration records the duration of a command execution.
func RecordDuration(command string, duration time.Duration) {
	CommandDuration.WithLabelValues(command).Observe(duration.Seconds())
}
