// Package synth renders blocks of partials into time-domain samples by
// additive synthesis, carrying per-voice oscillator phase across blocks.
package synth

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-additive/dsp/buffer"
	"github.com/cwbudde/algo-additive/dsp/core"
	"github.com/cwbudde/algo-additive/dsp/osc"
	"github.com/cwbudde/algo-additive/dsp/partial"
)

// ErrBlockSize is returned when the destination buffer does not match the
// configured block size.
var ErrBlockSize = errors.New("synth: destination length must equal block size")

// ErrBlockOrder is returned when Render is called with a block index that
// does not advance past the previous call's.
var ErrBlockOrder = errors.New("synth: block index must increase")

// voiceState is the only cross-block memory per partial identity: the
// carried oscillator phase and the block-boundary frequency/amplitude the
// next block interpolates from.
type voiceState struct {
	phase float64
	freq  float64
	amp   float64
}

// Synthesizer accumulates every partial's phase-continuous waveform into an
// output block. Summed amplitudes are passed through unclipped; bounding the
// output range is a downstream concern.
type Synthesizer struct {
	cfg    core.ProcessorConfig
	osc    *osc.Oscillator
	voices map[partial.ID]*voiceState
	pool   *buffer.Pool
	next   uint64

	keyScratch []partial.Keyframe
}

// New returns a Synthesizer for the configured sample rate and block size.
func New(opts ...core.ProcessorOption) *Synthesizer {
	cfg := core.ApplyProcessorOptions(opts...)
	return &Synthesizer{
		cfg:    cfg,
		osc:    osc.New(core.WithSampleRate(cfg.SampleRate)),
		voices: make(map[partial.ID]*voiceState),
		pool:   buffer.NewPool(),
	}
}

// Config returns the processor configuration.
func (s *Synthesizer) Config() core.ProcessorConfig {
	return s.cfg
}

// ActiveVoices returns the number of partial identities with carried state.
func (s *Synthesizer) ActiveVoices() int {
	return len(s.voices)
}

// Render synthesizes one block: every partial in the set is rendered
// through the phase-continuous oscillator and accumulated into dst, which
// is overwritten and must be exactly one block long.
//
// A partial whose ID was present last block continues from its carried
// phase and interpolates frequency/amplitude from the previous boundary
// values; a new ID starts at the partial's own Phase seed and fades in from
// amplitude 0. A set-supplied trajectory overrides the default two-point
// interpolation. Voice state is committed only after the whole block has
// rendered, so a failing partial leaves every other voice's carried phase
// intact; the offending ID's state is dropped until it reappears cleanly.
//
// Block indices must be strictly increasing across calls; gaps are allowed
// (a block that failed upstream never reaches the synthesizer). The index
// is consumed even when the render fails.
func (s *Synthesizer) Render(dst []float64, set *partial.Set, blockIndex uint64) error {
	if len(dst) != s.cfg.BlockSize {
		return fmt.Errorf("%w: got %d, want %d", ErrBlockSize, len(dst), s.cfg.BlockSize)
	}

	if blockIndex < s.next {
		return fmt.Errorf("%w: got %d, want >= %d", ErrBlockOrder, blockIndex, s.next)
	}
	s.next = blockIndex + 1

	for i := range dst {
		dst[i] = 0
	}

	if set == nil || set.Len() == 0 {
		s.voices = make(map[partial.ID]*voiceState)
		return nil
	}

	scratch := s.pool.Get(len(dst))
	defer s.pool.Put(scratch)

	committed := make(map[partial.ID]*voiceState, set.Len())

	var renderErr error
	var failedID partial.ID
	set.Each(func(p partial.Partial) {
		if renderErr != nil {
			return
		}

		keys := set.Trajectory(p.ID)
		phase0 := p.Phase

		if keys == nil {
			keys = s.defaultTrajectory(p)
		}
		if prev, known := s.voices[p.ID]; known {
			phase0 = prev.phase
		}

		buf := scratch.Samples()
		terminal, err := s.osc.Render(buf, phase0, keys)
		if err != nil {
			failedID = p.ID
			renderErr = fmt.Errorf("synth: partial %d: %w", p.ID, err)
			return
		}

		vecmath.AddBlockInPlace(dst, buf)

		last := keys[len(keys)-1]
		committed[p.ID] = &voiceState{phase: terminal, freq: last.Frequency, amp: last.Amplitude}
	})

	if renderErr != nil {
		// Abort the block: unaffected voices keep their pre-block state,
		// while the offending ID is quarantined and restarts fresh when it
		// reappears.
		delete(s.voices, failedID)
		return renderErr
	}

	// Commit; IDs absent from this block drop their state here.
	s.voices = committed

	return nil
}

// defaultTrajectory interpolates from the previous block boundary to this
// block's snapshot. The returned slice is reused between partials.
func (s *Synthesizer) defaultTrajectory(p partial.Partial) []partial.Keyframe {
	startFreq := p.Frequency
	startAmp := 0.0 // unseen IDs fade in

	if prev, known := s.voices[p.ID]; known {
		startFreq = prev.freq
		startAmp = prev.amp
	}

	s.keyScratch = s.keyScratch[:0]
	s.keyScratch = append(s.keyScratch,
		partial.Keyframe{SampleOffset: 0, Frequency: startFreq, Amplitude: startAmp},
		partial.Keyframe{SampleOffset: s.cfg.BlockSize, Frequency: p.Frequency, Amplitude: p.Amplitude},
	)

	return s.keyScratch
}
