// Package results defines the result tables a simulation emits
// (dataset, comm, gm), the writers that receive their rows, and the
// BoltDB store that keeps rows across runs. Emission is triggered by
// the RESULTS lifecycle event.
package results
