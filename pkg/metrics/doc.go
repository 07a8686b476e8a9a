// Package metrics defines the Prometheus collectors drift exports:
// record throughput, protocol round/sub-round/violation counters, and
// simulated traffic per network and endpoint. The CLI can expose them
// over HTTP for long simulations.
package metrics
