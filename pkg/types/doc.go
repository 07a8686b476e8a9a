// Package types contains the core data model shared by all drift
// packages: stream records, dataset metadata, and query descriptors.
package types
