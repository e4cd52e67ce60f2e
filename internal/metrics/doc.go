// Package metrics exports alternator activity to Prometheus.
package metrics
