package effect

import (
	"fmt"

	"github.com/cwbudde/algo-additive/dsp/partial"
)

// envelopeRuntime applies a one-shot amplitude envelope across blocks:
// gain rises linearly from 0 to level over the attack time, holds for the
// sustain time, then falls linearly to 0 over the release time (a release
// of 0 holds forever). The block counter is private persistent state and
// advances once per processed block.
//
// Parameters (seconds): "attack" (default 0), "sustain" (default 0,
// meaning no timed hold before release when release > 0), "release"
// (default 0), plus "level" (linear, default 1).
type envelopeRuntime struct {
	level   float64
	attack  float64 // blocks
	sustain float64 // blocks
	release float64 // blocks

	blocksSeen uint64
}

func (r *envelopeRuntime) Configure(ctx Context, p Params) error {
	if ctx.SampleRate <= 0 || ctx.BlockSize <= 0 {
		return fmt.Errorf("effect: envelope requires positive sample rate and block size: %g, %d",
			ctx.SampleRate, ctx.BlockSize)
	}

	level := p.GetNum("level", 1)
	if level < 0 {
		return fmt.Errorf("effect: envelope level must be >= 0: %g", level)
	}

	attack := p.GetNum("attack", 0)
	sustain := p.GetNum("sustain", 0)
	release := p.GetNum("release", 0)
	if attack < 0 || sustain < 0 || release < 0 {
		return fmt.Errorf("effect: envelope times must be >= 0: attack=%g sustain=%g release=%g",
			attack, sustain, release)
	}

	blocksPerSecond := ctx.SampleRate / float64(ctx.BlockSize)
	r.level = level
	r.attack = attack * blocksPerSecond
	r.sustain = sustain * blocksPerSecond
	r.release = release * blocksPerSecond

	return nil
}

func (r *envelopeRuntime) Latency() int { return 0 }

// gainAt evaluates the envelope at a block position.
func (r *envelopeRuntime) gainAt(pos float64) float64 {
	if r.attack > 0 && pos < r.attack {
		return r.level * pos / r.attack
	}

	pos -= r.attack
	if r.release <= 0 || pos < r.sustain {
		return r.level
	}

	pos -= r.sustain
	if pos >= r.release {
		return 0
	}

	return r.level * (1 - pos/r.release)
}

func (r *envelopeRuntime) Process(inputs []*partial.Set, _ uint64) ([]*partial.Set, error) {
	in := firstInput(inputs)
	out := partial.NewSet()

	gain := r.gainAt(float64(r.blocksSeen))
	r.blocksSeen++

	var err error
	in.Each(func(p partial.Partial) {
		if err != nil {
			return
		}

		p.Amplitude *= gain
		if err = out.Add(p); err != nil {
			return
		}

		if keys := in.Trajectory(p.ID); keys != nil {
			scaled := make([]partial.Keyframe, len(keys))
			for i, k := range keys {
				k.Amplitude *= gain
				scaled[i] = k
			}
			err = out.SetTrajectory(p.ID, scaled)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("effect: envelope: %w", err)
	}

	return []*partial.Set{out}, nil
}
