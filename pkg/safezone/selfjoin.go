package safezone

import (
	"math"
	"sort"

	"github.com/cuemby/drift/pkg/sketch"
)

// admissibilityFloor keeps the upper band strictly positive when the
// reference estimate is still zero (cold start before any warmup).
const admissibilityFloor = 1.0

// SelfJoin monitors the self-join estimate of a sketched stream inside
// the band [(1-theta)*Qest, (1+theta)*Qest] around the reference E.
// Per sketch row it tracks the squared norm of E_d + U_d; rows combine
// by lower median. The eikonal variant uses the square-root distance
// forms, the non-eikonal variant raw quadratic forms.
type SelfJoin struct {
	proj    *sketch.Projection
	ref     sketch.Vec
	tLow    float64
	tHigh   float64
	eikonal bool
}

// NewSelfJoin builds a zone around reference e with band width theta.
func NewSelfJoin(proj *sketch.Projection, e sketch.Vec, theta float64, eikonal bool) *SelfJoin {
	qest := proj.SelfJoin(e)
	return &SelfJoin{
		proj:    proj,
		ref:     e.Clone(),
		tLow:    (1 - theta) * qest,
		tHigh:   math.Max((1+theta)*qest, admissibilityFloor),
		eikonal: eikonal,
	}
}

type selfJoinScratch struct {
	rowNorm2 []float64 // ||E_d + U_d||^2 per row
	valid    bool
}

func (z *SelfJoin) NewScratch() Scratch {
	return &selfJoinScratch{rowNorm2: make([]float64, z.proj.Depth)}
}

func (z *SelfJoin) ZetaSize() int {
	return len(z.ref) + 2
}

func (z *SelfJoin) Zeta(sc Scratch, u sketch.Vec) float64 {
	s := sc.(*selfJoinScratch)
	for d := 0; d < z.proj.Depth; d++ {
		eRow := z.proj.Row(z.ref, d)
		uRow := z.proj.Row(u, d)
		var m float64
		for i, e := range eRow {
			x := e + uRow[i]
			m += x * x
		}
		s.rowNorm2[d] = m
	}
	s.valid = true
	return z.zetaFromScratch(s)
}

func (z *SelfJoin) ZetaDelta(sc Scratch, delta sketch.Delta, u sketch.Vec) float64 {
	s := sc.(*selfJoinScratch)
	if !s.valid {
		return z.Zeta(sc, u)
	}
	width := z.proj.Width
	for _, e := range delta.Entries {
		d := e.Index / width
		ref := z.ref[e.Index]
		oldX := ref + e.Old
		newX := ref + e.New
		s.rowNorm2[d] += newX*newX - oldX*oldX
	}
	return z.zetaFromScratch(s)
}

func (z *SelfJoin) zetaFromScratch(s *selfJoinScratch) float64 {
	depth := z.proj.Depth
	upper := make([]float64, depth)
	lower := make([]float64, depth)
	for d, m := range s.rowNorm2 {
		if z.eikonal {
			upper[d] = math.Sqrt(z.tHigh) - math.Sqrt(m)
			if z.tLow > 0 {
				lower[d] = math.Sqrt(m) - math.Sqrt(z.tLow)
			} else {
				lower[d] = math.Inf(1)
			}
		} else {
			upper[d] = z.tHigh - m
			if z.tLow > 0 {
				lower[d] = m - z.tLow
			} else {
				lower[d] = math.Inf(1)
			}
		}
	}
	return math.Min(medianLow(upper), medianLow(lower))
}

// medianLow returns the lower-middle order statistic of xs, consuming it.
func medianLow(xs []float64) float64 {
	sort.Float64s(xs)
	return xs[(len(xs)-1)/2]
}
