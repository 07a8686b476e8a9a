package source

import (
	"github.com/cuemby/drift/pkg/types"
)

// timeWindowSource implements a sliding time window of width tw over a
// sub-source: every INSERT of the sub-stream is re-emitted as a DELETE
// at its timestamp plus tw, expiring it from all downstream state.
// DELETE records of the sub-stream pass through once and are not
// re-emitted.
type timeWindowSource struct {
	sub    Source
	tw     types.Timestamp
	window []types.Record // pending expirations, FIFO in timestamp order
	rec    types.Record
	valid  bool
}

// TimeWindow wraps src in a sliding window that expires records after
// tw time units.
func TimeWindow(src Source, tw types.Timestamp) Source {
	w := &timeWindowSource{sub: src, tw: tw, valid: true}
	_ = w.Advance()
	return w
}

func (w *timeWindowSource) Valid() bool       { return w.valid }
func (w *timeWindowSource) Get() types.Record { return w.rec }

func (w *timeWindowSource) Advance() error {
	subValid := w.sub.Valid()
	switch {
	case subValid && len(w.window) > 0 && w.window[0].TS <= w.sub.Get().TS:
		w.advanceFromWindow()
	case subValid:
		return w.advanceFromSub()
	case len(w.window) > 0:
		w.advanceFromWindow()
	default:
		w.valid = false
	}
	return nil
}

func (w *timeWindowSource) advanceFromSub() error {
	w.rec = w.sub.Get()
	if w.rec.Op == types.Insert {
		expired := w.rec
		expired.TS += w.tw
		expired.Op = types.Delete
		w.window = append(w.window, expired)
	}
	return w.sub.Advance()
}

func (w *timeWindowSource) advanceFromWindow() {
	w.rec = w.window[0]
	w.window = w.window[1:]
}
