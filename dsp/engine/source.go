package engine

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-additive/dsp/core"
	"github.com/cwbudde/algo-additive/dsp/partial"
)

// StaticSource produces the same partial set every block (deep-copied, so
// downstream stages never alias across blocks).
type StaticSource struct {
	set *partial.Set
}

// NewStaticSource returns a source that replays the given set.
func NewStaticSource(set *partial.Set) *StaticSource {
	if set == nil {
		set = partial.NewSet()
	}
	return &StaticSource{set: set}
}

// ProduceSourcePartials implements Source.
func (s *StaticSource) ProduceSourcePartials(uint64) (*partial.Set, error) {
	return s.set.Clone(), nil
}

// GlideSource produces a single fundamental partial whose frequency glides
// from StartFreq to EndFreq over Duration seconds, then holds. The glide is
// linear in log-frequency, which is how pitch bends are perceived.
type GlideSource struct {
	cfg       core.ProcessorConfig
	id        partial.ID
	startFreq float64
	endFreq   float64
	amplitude float64
	blocks    float64 // glide length in blocks
}

// NewGlideSource validates the glide parameters and returns the source.
func NewGlideSource(id partial.ID, startFreq, endFreq, amplitude, duration float64, opts ...core.ProcessorOption) (*GlideSource, error) {
	cfg := core.ApplyProcessorOptions(opts...)

	if startFreq <= 0 || endFreq <= 0 {
		return nil, fmt.Errorf("engine: glide frequencies must be > 0: %g -> %g", startFreq, endFreq)
	}

	if amplitude < 0 {
		return nil, fmt.Errorf("engine: glide amplitude must be >= 0: %g", amplitude)
	}

	if duration <= 0 {
		return nil, fmt.Errorf("engine: glide duration must be > 0: %g", duration)
	}

	return &GlideSource{
		cfg:       cfg,
		id:        id,
		startFreq: startFreq,
		endFreq:   endFreq,
		amplitude: amplitude,
		blocks:    duration * cfg.SampleRate / float64(cfg.BlockSize),
	}, nil
}

// frequencyAt evaluates the glide at a fractional block position.
func (s *GlideSource) frequencyAt(pos float64) float64 {
	if pos >= s.blocks {
		return s.endFreq
	}
	frac := pos / s.blocks
	return s.startFreq * math.Pow(s.endFreq/s.startFreq, frac)
}

// ProduceSourcePartials implements Source. Each block carries the partial's
// end-of-block frequency; the synthesizer interpolates from the previous
// boundary, so the per-block snapshots chain into a continuous glide.
func (s *GlideSource) ProduceSourcePartials(blockIndex uint64) (*partial.Set, error) {
	set := partial.NewSet()
	p := partial.Partial{
		ID:        s.id,
		Frequency: s.frequencyAt(float64(blockIndex + 1)),
		Amplitude: s.amplitude,
	}

	if err := set.Add(p); err != nil {
		return nil, err
	}

	return set, nil
}
