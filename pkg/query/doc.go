// Package query binds a continuous aggregate query (self-join or
// two-way join over AGMS sketches) to the state vectors and safe zones
// the geometric-method protocols monitor.
package query
