package buffer

import "sync"

// Pool recycles Blocks between render calls to reduce GC pressure in the
// real-time loop.
type Pool struct {
	pool sync.Pool
}

// NewPool returns a Pool ready for use.
func NewPool() *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() any {
				return &Block{}
			},
		},
	}
}

// Get returns a zeroed Block of the requested length. Callers must return
// it via Put when done.
func (p *Pool) Get(length int) *Block {
	b := p.pool.Get().(*Block)
	b.resize(length)
	b.Zero()
	return b
}

// Put returns a Block to the pool. The caller must not touch the block or
// its sample slice afterwards.
func (p *Pool) Put(b *Block) {
	if b == nil {
		return
	}
	p.pool.Put(b)
}
