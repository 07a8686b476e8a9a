package source

import (
	"github.com/cuemby/drift/pkg/types"
)

// Source is a cursor over a record stream. While Valid() is true,
// Get() returns the current record; Advance() moves to the next one.
// Implementations must yield records in non-decreasing timestamp order.
type Source interface {
	Valid() bool
	Get() types.Record
	Advance() error
}

// FilterFunc inspects and possibly rewrites a record. Returning false
// ends the stream (it does not skip the record): this matches the
// bounded-length semantics where the first rejected record terminates
// the source.
type FilterFunc func(r *types.Record) bool

// filteredSource applies a filter function to the records of a
// sub-source.
type filteredSource struct {
	sub   Source
	fn    FilterFunc
	rec   types.Record
	valid bool
}

// Filtered wraps src so that every record passes through fn before
// being observed.
func Filtered(src Source, fn FilterFunc) Source {
	f := &filteredSource{sub: src, fn: fn, valid: true}
	// position on the first record; a filter error here cannot occur
	// because Advance only fails through the sub-source
	_ = f.Advance()
	return f
}

func (f *filteredSource) Valid() bool       { return f.valid }
func (f *filteredSource) Get() types.Record { return f.rec }

func (f *filteredSource) Advance() error {
	if !f.valid {
		return nil
	}
	if !f.sub.Valid() {
		f.valid = false
		return nil
	}
	f.rec = f.sub.Get()
	f.valid = f.fn(&f.rec)
	return f.sub.Advance()
}

// MaxLength passes through the first n records and then ends the
// stream.
func MaxLength(n int) FilterFunc {
	count := 0
	return func(*types.Record) bool {
		if count < n {
			count++
			return true
		}
		return false
	}
}

// ModuloStreams rewrites stream ids modulo h, partitioning the dataset
// into h logical streams.
func ModuloStreams(h types.StreamID) FilterFunc {
	return func(r *types.Record) bool {
		r.SID = r.SID % h
		return true
	}
}

// ModuloSources rewrites source ids modulo k, partitioning the dataset
// across k sites.
func ModuloSources(k types.SourceID) FilterFunc {
	return func(r *types.Record) bool {
		r.HID = r.HID % k
		return true
	}
}
