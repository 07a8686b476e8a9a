package safezone

import (
	"math"

	"github.com/cuemby/drift/pkg/sketch"
)

// TwowayJoin monitors the inner-product estimate of two sketched
// streams held in one concatenated state vector [S1;S2]. Per row it
// maintains the squared norms of the row sums and row differences of
// the two halves, from which the row dot product is (s-t)/4. Rows
// combine by lower median in the non-eikonal variant; the eikonal
// variant normalizes each row form by its magnitude and takes the
// minimum across rows.
type TwowayJoin struct {
	proj    *sketch.Projection
	ref     sketch.Vec // concatenated reference, length 2*Depth*Width
	tLow    float64
	tHigh   float64
	eikonal bool
}

// NewTwowayJoin builds a zone around the concatenated reference e with
// band width theta. The band is symmetric around the reference
// estimate, which may be negative for a join.
func NewTwowayJoin(proj *sketch.Projection, e sketch.Vec, theta float64, eikonal bool) *TwowayJoin {
	half := proj.Size()
	qest := proj.InnerProduct(e[:half], e[half:])
	slack := theta * math.Max(math.Abs(qest), admissibilityFloor)
	return &TwowayJoin{
		proj:    proj,
		ref:     e.Clone(),
		tLow:    qest - slack,
		tHigh:   qest + slack,
		eikonal: eikonal,
	}
}

type twowayJoinScratch struct {
	sum2  []float64 // ||X_d + Y_d||^2 per row, X = E1+U1, Y = E2+U2
	diff2 []float64 // ||X_d - Y_d||^2 per row
	valid bool
}

func (z *TwowayJoin) NewScratch() Scratch {
	return &twowayJoinScratch{
		sum2:  make([]float64, z.proj.Depth),
		diff2: make([]float64, z.proj.Depth),
	}
}

func (z *TwowayJoin) ZetaSize() int {
	return len(z.ref) + 2
}

func (z *TwowayJoin) Zeta(sc Scratch, u sketch.Vec) float64 {
	s := sc.(*twowayJoinScratch)
	half := z.proj.Size()
	for d := 0; d < z.proj.Depth; d++ {
		base := d * z.proj.Width
		var s2, t2 float64
		for i := 0; i < z.proj.Width; i++ {
			x := z.ref[base+i] + u[base+i]
			y := z.ref[half+base+i] + u[half+base+i]
			s2 += (x + y) * (x + y)
			t2 += (x - y) * (x - y)
		}
		s.sum2[d] = s2
		s.diff2[d] = t2
	}
	s.valid = true
	return z.zetaFromScratch(s)
}

func (z *TwowayJoin) ZetaDelta(sc Scratch, delta sketch.Delta, u sketch.Vec) float64 {
	s := sc.(*twowayJoinScratch)
	if !s.valid {
		return z.Zeta(sc, u)
	}
	half := z.proj.Size()
	width := z.proj.Width
	for _, e := range delta.Entries {
		partner := e.Index + half
		d := e.Index / width
		if e.Index >= half {
			partner = e.Index - half
			d = (e.Index - half) / width
		}
		// value of the untouched half at the same position
		other := z.ref[partner] + u[partner]
		this := z.ref[e.Index]
		oldV, newV := this+e.Old, this+e.New

		// the row sum X+Y is symmetric in the halves; the row
		// difference X-Y flips sign when the second half changed,
		// which squares away
		s.sum2[d] += (newV+other)*(newV+other) - (oldV+other)*(oldV+other)
		s.diff2[d] += (newV-other)*(newV-other) - (oldV-other)*(oldV-other)
	}
	return z.zetaFromScratch(s)
}

func (z *TwowayJoin) zetaFromScratch(s *twowayJoinScratch) float64 {
	depth := z.proj.Depth
	if z.eikonal {
		zeta := math.Inf(1)
		for d := 0; d < depth; d++ {
			dot := (s.sum2[d] - s.diff2[d]) / 4
			denom := math.Sqrt(s.sum2[d]+s.diff2[d])/2 + 1
			zu := (z.tHigh - dot) / denom
			zl := (dot - z.tLow) / denom
			zeta = math.Min(zeta, math.Min(zu, zl))
		}
		return zeta
	}
	upper := make([]float64, depth)
	lower := make([]float64, depth)
	for d := 0; d < depth; d++ {
		dot := (s.sum2[d] - s.diff2[d]) / 4
		upper[d] = z.tHigh - dot
		lower[d] = dot - z.tLow
	}
	return math.Min(medianLow(upper), medianLow(lower))
}
