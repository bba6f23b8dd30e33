// Package effect defines the per-block partial transform contract and the
// built-in effect catalog: passthrough, gain, detune, harmonics, envelope,
// delay, and mix.
package effect

import (
	"errors"

	"github.com/cwbudde/algo-additive/dsp/partial"
)

// Errors shared by effect runtimes.
var (
	// ErrIDCollision is returned by a fan-in merge that encounters the same
	// partial ID from two producers without an explicit merge policy.
	ErrIDCollision = errors.New("effect: partial id collision at fan-in")
)

// Context provides environmental information that effect runtimes need.
type Context struct {
	SampleRate float64
	BlockSize  int
}

// Runtime is the per-node processing and configuration contract.
//
// Process consumes the block's input sets (one per incoming edge, ordered by
// destination port) and returns one output set per output port. Inputs are
// read-only: a runtime must not mutate them, but it may return an input set
// unchanged. Runtimes must be deterministic: the same input history applied
// to the same configured state yields identical outputs.
//
// Latency declares how many whole blocks the runtime buffers before its
// output reflects its input; 0 for purely reactive effects. The graph uses
// the declaration to thread empty fill-period sets to consumers and to
// report end-to-end latency.
type Runtime interface {
	Configure(ctx Context, params Params) error
	Latency() int
	Process(inputs []*partial.Set, blockIndex uint64) ([]*partial.Set, error)
}
