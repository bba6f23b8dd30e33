// Package osc implements a phase-continuous sinusoidal oscillator.
//
// The oscillator renders one partial's contribution to a block of samples
// from a sequence of frequency/amplitude keyframes. Phase is carried in from
// the previous block and handed back out, so a voice whose frequency or
// amplitude changes between blocks never produces a click at the boundary.
package osc

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-additive/dsp/core"
	"github.com/cwbudde/algo-additive/dsp/partial"
)

// Errors returned by Render. All of them indicate a malformed keyframe
// sequence supplied by the caller, never a runtime condition.
var (
	ErrNoKeyframes   = errors.New("osc: at least one keyframe is required")
	ErrKeyframeStart = errors.New("osc: first keyframe must be at sample offset 0")
	ErrKeyframeOrder = errors.New("osc: keyframe offsets must be strictly increasing")
	ErrZeroSegment   = errors.New("osc: zero-length interpolation segment")
	ErrKeyframeRange = errors.New("osc: keyframe offset past end of block")
	ErrAmplitude     = errors.New("osc: keyframe amplitude must be >= 0")
)

// Oscillator renders phase-continuous sinusoids at a fixed sample rate.
type Oscillator struct {
	sampleRate float64
}

// New returns an Oscillator configured via processor options.
func New(opts ...core.ProcessorOption) *Oscillator {
	cfg := core.ApplyProcessorOptions(opts...)
	return &Oscillator{sampleRate: cfg.SampleRate}
}

// SampleRate returns the configured sample rate in Hz.
func (o *Oscillator) SampleRate() float64 {
	return o.sampleRate
}

// Render synthesizes len(dst) samples from the keyframe trajectory and
// returns the terminal phase (wrapped to [0, 2*pi)) to carry into the next
// block. dst is overwritten, not accumulated into.
//
// Keyframes must start at offset 0, have strictly increasing offsets, and
// end at or before len(dst); samples past the last keyframe hold its
// frequency and amplitude. phase0 outside [0, 2*pi) is normalized, never
// rejected.
//
// Each consecutive keyframe pair (t0,f0,a0) -> (t1,f1,a1) is rendered as a
// crossfade of two constant-frequency sinusoids sharing the carried phase
// w0 at t0:
//
//	freqL = w'(t0)                      (matches the left endpoint derivative)
//	freqR = (w1 - w0) / (t1 - t0)       (lands exactly on the target phase w1)
//	y(t)  = a(t) * [ (t1-t)/(t1-t0) * sin(w0 + freqL*(t-t0))
//	               + (t-t0)/(t1-t0) * sin(w0 + freqR*(t-t0)) ]
//
// where w1 = w0 + (w0'+w1')/2 * (t1-t0) is the phase of the linear chirp
// from f0 to f1 and a(t) interpolates the amplitude linearly. The left term
// has zero weight at t1, so phase is C0-continuous at every keyframe
// boundary; shorter segments track the true chirp more closely, and
// one-sample segments reproduce it exactly.
func (o *Oscillator) Render(dst []float64, phase0 float64, keys []partial.Keyframe) (float64, error) {
	if err := validateKeyframes(dst, keys); err != nil {
		return 0, err
	}

	w0 := core.WrapPhase(phase0)
	if len(dst) == 0 {
		return w0, nil
	}

	last := keys[len(keys)-1]
	for i := 1; i <= len(keys); i++ {
		var k0, k1 partial.Keyframe

		if i < len(keys) {
			k0, k1 = keys[i-1], keys[i]
		} else {
			// Implicit constant tail after the last keyframe.
			if last.SampleOffset >= len(dst) {
				break
			}
			k0 = last
			k1 = partial.Keyframe{
				SampleOffset: len(dst),
				Frequency:    last.Frequency,
				Amplitude:    last.Amplitude,
			}
		}

		w0 = o.renderSegment(dst, w0, k0, k1)
	}

	return w0, nil
}

// renderSegment fills dst[k0.SampleOffset:k1.SampleOffset] and returns the
// wrapped phase at k1.
func (o *Oscillator) renderSegment(dst []float64, w0 float64, k0, k1 partial.Keyframe) float64 {
	t0 := k0.SampleOffset
	t1 := k1.SampleOffset
	dt := float64(t1 - t0)

	omega0 := core.TwoPi * k0.Frequency / o.sampleRate
	omega1 := core.TwoPi * k1.Frequency / o.sampleRate

	// Phase the linear chirp from f0 to f1 reaches at t1.
	w1 := w0 + 0.5*(omega0+omega1)*dt

	freqL := omega0
	freqR := (w1 - w0) / dt

	ampSlope := (k1.Amplitude - k0.Amplitude) / dt

	for t := t0; t < t1; t++ {
		u := float64(t - t0)
		frac := u / dt
		amp := k0.Amplitude + ampSlope*u

		dst[t] = amp * ((1-frac)*math.Sin(w0+freqL*u) + frac*math.Sin(w0+freqR*u))
	}

	return core.WrapPhase(w1)
}

func validateKeyframes(dst []float64, keys []partial.Keyframe) error {
	if len(keys) == 0 {
		return ErrNoKeyframes
	}

	if keys[0].SampleOffset != 0 {
		return fmt.Errorf("%w: got %d", ErrKeyframeStart, keys[0].SampleOffset)
	}

	for i, k := range keys {
		if k.Amplitude < 0 {
			return fmt.Errorf("%w: keyframe %d has amplitude %g", ErrAmplitude, i, k.Amplitude)
		}

		if k.SampleOffset > len(dst) {
			return fmt.Errorf("%w: offset %d, block size %d", ErrKeyframeRange, k.SampleOffset, len(dst))
		}

		if i == 0 {
			continue
		}

		prev := keys[i-1].SampleOffset
		if k.SampleOffset == prev {
			return fmt.Errorf("%w: keyframes %d and %d at offset %d", ErrZeroSegment, i-1, i, prev)
		}

		if k.SampleOffset < prev {
			return fmt.Errorf("%w: offset %d after %d", ErrKeyframeOrder, k.SampleOffset, prev)
		}
	}

	return nil
}
