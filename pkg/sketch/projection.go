package sketch

import (
	"math"
	"math/bits"
	"math/rand"

	"github.com/cuemby/drift/pkg/types"
)

// mersenne61 is the modulus of the polynomial hash families.
const mersenne61 = (1 << 61) - 1

// hashFamily is a degree-3 polynomial over the Mersenne prime 2^61-1,
// giving 4-wise independent hash values.
type hashFamily struct {
	a, b, c, d uint64
}

func (h hashFamily) eval(x uint64) uint64 {
	// Horner evaluation with modular reduction at every step.
	r := h.a
	r = mulmod61(r, x) + h.b
	r = reduce61(r)
	r = mulmod61(r, x) + h.c
	r = reduce61(r)
	r = mulmod61(r, x) + h.d
	return reduce61(r)
}

// mulmod61 computes (a*b) mod 2^61-1 using 128-bit intermediate math.
func mulmod61(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	// 2^64 = 8 mod (2^61-1), so fold the high word in shifted by 3
	r := (lo & mersenne61) + (lo >> 61) + (hi << 3 & mersenne61) + (hi >> 58)
	return reduce61(r)
}

func reduce61(x uint64) uint64 {
	x = (x & mersenne61) + (x >> 61)
	if x >= mersenne61 {
		x -= mersenne61
	}
	return x
}

// Projection fixes the dimensions and hash families of a sketch: Depth
// hash families of Width buckets each, seeded deterministically. Two
// sketches over the same projection are pointwise comparable. The hash
// tables are immutable for the lifetime of the projection.
type Projection struct {
	Depth int
	Width int
	Seed  int64

	bucket []hashFamily // bucket index per row
	sign   []hashFamily // {-1,+1} per row
}

// NewProjection builds a projection with D hash families of L buckets,
// all seeded from seed. The same (D, L, seed) always yields the same
// families.
func NewProjection(depth, width int, seed int64) *Projection {
	rng := rand.New(rand.NewSource(seed))
	p := &Projection{
		Depth:  depth,
		Width:  width,
		Seed:   seed,
		bucket: make([]hashFamily, depth),
		sign:   make([]hashFamily, depth),
	}
	draw := func() hashFamily {
		return hashFamily{
			a: uint64(rng.Int63())%mersenne61 | 1, // keep the leading coefficient nonzero
			b: uint64(rng.Int63()) % mersenne61,
			c: uint64(rng.Int63()) % mersenne61,
			d: uint64(rng.Int63()) % mersenne61,
		}
	}
	for d := 0; d < depth; d++ {
		p.bucket[d] = draw()
		p.sign[d] = draw()
	}
	return p
}

// Size is the length of a sketch vector over this projection.
func (p *Projection) Size() int {
	return p.Depth * p.Width
}

// Epsilon is the standard probabilistic accuracy of the AGMS estimate
// over this projection.
func (p *Projection) Epsilon() float64 {
	return 4.0 / math.Sqrt(float64(p.Width))
}

// Hash returns the bucket index of key in row d.
func (p *Projection) Hash(d int, key types.Key) int {
	return int(p.bucket[d].eval(uint64(key)) % uint64(p.Width))
}

// SignOf returns the {-1,+1} sign of key in row d.
func (p *Projection) SignOf(d int, key types.Key) float64 {
	if p.sign[d].eval(uint64(key))&1 == 1 {
		return 1.0
	}
	return -1.0
}

// Update adds w*sign_d(key) to bucket hash_d(key) of every row of s,
// returning a delta of exactly Depth entries. offset shifts the touched
// indices, for updates into one half of a concatenated state vector.
func (p *Projection) Update(s Vec, key types.Key, w float64, offset int) Delta {
	delta := Delta{Entries: make([]DeltaEntry, p.Depth)}
	for d := 0; d < p.Depth; d++ {
		idx := offset + d*p.Width + p.Hash(d, key)
		old := s[idx]
		s[idx] = old + w*p.SignOf(d, key)
		delta.Entries[d] = DeltaEntry{Index: idx, Old: old, New: s[idx]}
	}
	return delta
}

// Row returns row d of a sketch vector over this projection.
func (p *Projection) Row(s Vec, d int) Vec {
	return s[d*p.Width : (d+1)*p.Width]
}
