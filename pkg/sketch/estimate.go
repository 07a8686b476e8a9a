package sketch

import "sort"

// medianLow returns the lower-middle element of xs, which is consumed.
// Ties on an even count break toward the lower-middle element.
func medianLow(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sort.Float64s(xs)
	return xs[(len(xs)-1)/2]
}

// InnerProduct is the AGMS estimate of the inner product of the
// frequency vectors sketched by s1 and s2: the median across rows of
// the row-wise dot products. It is symmetric in its arguments.
func (p *Projection) InnerProduct(s1, s2 Vec) float64 {
	dots := make([]float64, p.Depth)
	for d := 0; d < p.Depth; d++ {
		dots[d] = p.Row(s1, d).Dot(p.Row(s2, d))
	}
	return medianLow(dots)
}

// SelfJoin is the AGMS estimate of the self-join (second frequency
// moment) of the stream sketched by s.
func (p *Projection) SelfJoin(s Vec) float64 {
	return p.InnerProduct(s, s)
}

// RowDots returns the row-wise dot products of s1 and s2.
func (p *Projection) RowDots(s1, s2 Vec) []float64 {
	dots := make([]float64, p.Depth)
	for d := 0; d < p.Depth; d++ {
		dots[d] = p.Row(s1, d).Dot(p.Row(s2, d))
	}
	return dots
}
