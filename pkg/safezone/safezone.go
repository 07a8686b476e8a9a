package safezone

import (
	"math"

	"github.com/cuemby/drift/pkg/sketch"
)

// Scratch is opaque per-holder state enabling O(Depth) incremental
// zeta evaluation. It is allocated by the Func that understands it and
// owned by the Zone holding it, never aliased.
type Scratch any

// Func is an immutable safe-zone function over sketch space. The zone
// is the region {U : Zeta(U) > 0}; admissibility at the reference point
// requires Zeta(0) > 0. Funcs are shared by all holders of copies of a
// Zone and must not carry mutable state: anything mutable lives in the
// Scratch.
type Func interface {
	// Zeta fully evaluates the safe-zone function at drift U.
	Zeta(sc Scratch, u sketch.Vec) float64

	// ZetaDelta evaluates incrementally: u has already been updated and
	// delta carries the (old, new) pairs of the changed positions.
	ZetaDelta(sc Scratch, delta sketch.Delta, u sketch.Vec) float64

	// NewScratch allocates scratch for one holder.
	NewScratch() Scratch

	// ZetaSize is the number of float32 words the zone occupies on the
	// wire, for byte accounting.
	ZetaSize() int
}

// Zone wraps a Func for transmission and holding. It is a value type:
// plain assignment transfers the scratch (a move), Clone produces a
// copy that allocates fresh scratch on first use. The zero Zone is
// invalid and evaluates to NaN.
type Zone struct {
	fn Func
	sc Scratch
}

// New wraps fn in a Zone with no scratch; scratch is allocated lazily
// on first evaluation.
func New(fn Func) Zone {
	return Zone{fn: fn}
}

// Valid reports whether the zone wraps a function.
func (z *Zone) Valid() bool {
	return z.fn != nil
}

// Clone returns a copy sharing the immutable Func but owning no
// scratch yet.
func (z *Zone) Clone() Zone {
	return Zone{fn: z.fn}
}

func (z *Zone) scratch() Scratch {
	if z.sc == nil {
		z.sc = z.fn.NewScratch()
	}
	return z.sc
}

// Eval fully evaluates the zone at drift u.
func (z *Zone) Eval(u sketch.Vec) float64 {
	if z.fn == nil {
		return math.NaN()
	}
	return z.fn.Zeta(z.scratch(), u)
}

// EvalDelta evaluates the zone incrementally after the update recorded
// in delta has been applied to u.
func (z *Zone) EvalDelta(delta sketch.Delta, u sketch.Vec) float64 {
	if z.fn == nil {
		return math.NaN()
	}
	return z.fn.ZetaDelta(z.scratch(), delta, u)
}

// ByteSize is the simulated wire size of transmitting this zone.
func (z *Zone) ByteSize() int {
	if z.fn == nil {
		return 0
	}
	return z.fn.ZetaSize() * 4
}
