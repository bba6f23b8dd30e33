// Package buffer provides pooled, fixed-length render blocks for the
// synthesis hot path. A Block holds one block's worth of float64 samples;
// the Pool recycles blocks across render calls so the per-block loop stays
// allocation-free.
package buffer

// Block holds one block of time-domain samples.
type Block struct {
	samples []float64
}

// New returns a zero-filled Block of the given length.
func New(length int) *Block {
	if length < 0 {
		length = 0
	}
	return &Block{samples: make([]float64, length)}
}

// Samples returns the underlying slice. The Block retains ownership; the
// slice is only valid until the Block is returned to a Pool.
func (b *Block) Samples() []float64 {
	return b.samples
}

// Len returns the number of samples.
func (b *Block) Len() int {
	return len(b.samples)
}

// Zero sets every sample to 0.
func (b *Block) Zero() {
	for i := range b.samples {
		b.samples[i] = 0
	}
}

// resize adjusts the length, reusing capacity when possible. Contents are
// unspecified afterwards; the pool zeroes before handing a block out.
func (b *Block) resize(n int) {
	if n < 0 {
		n = 0
	}

	if n <= cap(b.samples) {
		b.samples = b.samples[:n]
		return
	}

	b.samples = make([]float64, n)
}
