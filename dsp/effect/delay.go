package effect

import (
	"fmt"

	"github.com/cwbudde/algo-additive/dsp/partial"
)

// delayRuntime delays the partial stream by a whole number of blocks using
// a circular buffer of sets, one slot per block of declared latency. During
// the fill period it emits empty sets. With feedback > 0 the delayed output
// is folded back into the incoming block with its amplitudes scaled;
// a recirculating partial keeps its ID, so the fold-back merge is additive
// on matching IDs by construction (the one documented exception to the
// collision rule).
//
// Parameters: "blocks" (>= 1, default 1), "feedback" (0..1, default 0).
type delayRuntime struct {
	ring     []*partial.Set
	writePos int
	feedback float64
}

func (r *delayRuntime) Configure(_ Context, p Params) error {
	blocks := int(p.GetNum("blocks", 1))
	if blocks < 1 {
		return fmt.Errorf("effect: delay blocks must be >= 1: %d", blocks)
	}

	feedback := p.GetNum("feedback", 0)
	if feedback < 0 || feedback >= 1 {
		return fmt.Errorf("effect: delay feedback must be in [0, 1): %g", feedback)
	}

	if len(r.ring) != blocks {
		r.ring = make([]*partial.Set, blocks)
		r.writePos = 0
	}

	r.feedback = feedback

	return nil
}

func (r *delayRuntime) Latency() int { return len(r.ring) }

func (r *delayRuntime) Process(inputs []*partial.Set, _ uint64) ([]*partial.Set, error) {
	in := firstInput(inputs)

	// The slot about to be overwritten is the one written len(ring)
	// blocks ago, i.e. this block's output.
	out := r.ring[r.writePos]
	if out == nil {
		out = partial.NewSet()
	}

	stored := in.Clone()
	if r.feedback > 0 {
		var err error
		out.Each(func(p partial.Partial) {
			if err != nil {
				return
			}

			p.Amplitude *= r.feedback
			if existing, ok := stored.Get(p.ID); ok {
				existing.Amplitude += p.Amplitude
				stored.Replace(existing)
				return
			}

			err = stored.Add(p)
		})
		if err != nil {
			return nil, fmt.Errorf("effect: delay feedback: %w", err)
		}
	}

	r.ring[r.writePos] = stored
	r.writePos++
	if r.writePos >= len(r.ring) {
		r.writePos = 0
	}

	return []*partial.Set{out}, nil
}
