package buffer

import "testing"

func TestNew(t *testing.T) {
	t.Parallel()

	b := New(8)
	if b.Len() != 8 {
		t.Fatalf("Len = %d, want 8", b.Len())
	}

	for i, v := range b.Samples() {
		if v != 0 {
			t.Fatalf("sample %d = %v, want 0", i, v)
		}
	}

	if New(-1).Len() != 0 {
		t.Error("negative length should yield an empty block")
	}
}

func TestZero(t *testing.T) {
	t.Parallel()

	b := New(4)
	s := b.Samples()
	for i := range s {
		s[i] = float64(i + 1)
	}

	b.Zero()

	for i, v := range b.Samples() {
		if v != 0 {
			t.Fatalf("sample %d = %v after Zero", i, v)
		}
	}
}

func TestPoolReturnsZeroedBlocks(t *testing.T) {
	t.Parallel()

	p := NewPool()

	b := p.Get(16)
	if b.Len() != 16 {
		t.Fatalf("Len = %d, want 16", b.Len())
	}

	// Dirty the block, recycle it, and ask for a different size: the pool
	// must hand back a clean block regardless of what it held before.
	for i := range b.Samples() {
		b.Samples()[i] = 1
	}
	p.Put(b)

	c := p.Get(8)
	if c.Len() != 8 {
		t.Fatalf("Len = %d, want 8", c.Len())
	}

	for i, v := range c.Samples() {
		if v != 0 {
			t.Fatalf("recycled sample %d = %v, want 0", i, v)
		}
	}

	p.Put(c)
	p.Put(nil) // must not panic
}
