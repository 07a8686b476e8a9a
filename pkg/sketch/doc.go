/*
Package sketch implements AGMS (Alon-Gilbert-Matias-Szegedy) sketches:
linear projections of stream frequency vectors that support unbiased
inner-product estimation.

A Projection fixes Depth hash families of Width buckets, seeded
deterministically; sketches over the same projection are pointwise
comparable and can be added, subtracted and scaled like plain vectors.
Every key update touches exactly one bucket per row and returns a
sparse Delta, which downstream code uses to maintain derived scalars
(squared norms, safe-zone zetas) in O(Depth) per record.

Estimation accuracy grows with the projection: the median across Depth
rows reduces variance, and Width controls the per-row error
(Epsilon() = 4/sqrt(Width)).
*/
package sketch
