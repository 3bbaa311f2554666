// Package metrics defines the Prometheus counters recorded during a
// notification run and exports them in the node-exporter textfile format.
package metrics
