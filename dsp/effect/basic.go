package effect

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-additive/dsp/core"
	"github.com/cwbudde/algo-additive/dsp/partial"
)

// firstInput returns the primary input set, or an empty set when the node
// has no producers this block.
func firstInput(inputs []*partial.Set) *partial.Set {
	if len(inputs) == 0 || inputs[0] == nil {
		return partial.NewSet()
	}
	return inputs[0]
}

// passthroughRuntime forwards its input unchanged.
type passthroughRuntime struct{}

func (r *passthroughRuntime) Configure(_ Context, _ Params) error { return nil }

func (r *passthroughRuntime) Latency() int { return 0 }

func (r *passthroughRuntime) Process(inputs []*partial.Set, _ uint64) ([]*partial.Set, error) {
	return []*partial.Set{firstInput(inputs)}, nil
}

// gainRuntime scales every partial amplitude by a fixed factor.
// Parameters: "gain" (linear, default 1) or "gainDB" (takes precedence).
type gainRuntime struct {
	gain float64
}

func (r *gainRuntime) Configure(_ Context, p Params) error {
	g := p.GetNum("gain", 1)
	if db, ok := p.Num["gainDB"]; ok && !math.IsNaN(db) && !math.IsInf(db, 0) {
		g = core.DBToLinear(db)
	}

	if g < 0 {
		return fmt.Errorf("effect: gain must be >= 0: %g", g)
	}

	r.gain = g

	return nil
}

func (r *gainRuntime) Latency() int { return 0 }

func (r *gainRuntime) Process(inputs []*partial.Set, _ uint64) ([]*partial.Set, error) {
	in := firstInput(inputs)
	out := partial.NewSet()

	var err error
	in.Each(func(p partial.Partial) {
		if err != nil {
			return
		}

		p.Amplitude *= r.gain
		if addErr := out.Add(p); addErr != nil {
			err = addErr
			return
		}

		if keys := in.Trajectory(p.ID); keys != nil {
			scaled := make([]partial.Keyframe, len(keys))
			for i, k := range keys {
				k.Amplitude *= r.gain
				scaled[i] = k
			}
			err = out.SetTrajectory(p.ID, scaled)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("effect: gain: %w", err)
	}

	return []*partial.Set{out}, nil
}

// detuneRuntime scales every partial frequency by a fixed ratio.
// Parameters: "ratio" (default 1) or "cents" (takes precedence,
// ratio = 2^(cents/1200)).
type detuneRuntime struct {
	ratio float64
}

func (r *detuneRuntime) Configure(_ Context, p Params) error {
	ratio := p.GetNum("ratio", 1)
	if cents, ok := p.Num["cents"]; ok && !math.IsNaN(cents) && !math.IsInf(cents, 0) {
		ratio = math.Exp2(cents / 1200)
	}

	if ratio <= 0 {
		return fmt.Errorf("effect: detune ratio must be > 0: %g", ratio)
	}

	r.ratio = ratio

	return nil
}

func (r *detuneRuntime) Latency() int { return 0 }

func (r *detuneRuntime) Process(inputs []*partial.Set, _ uint64) ([]*partial.Set, error) {
	in := firstInput(inputs)
	out := partial.NewSet()

	var err error
	in.Each(func(p partial.Partial) {
		if err != nil {
			return
		}

		p.Frequency *= r.ratio
		if addErr := out.Add(p); addErr != nil {
			err = addErr
			return
		}

		if keys := in.Trajectory(p.ID); keys != nil {
			scaled := make([]partial.Keyframe, len(keys))
			for i, k := range keys {
				k.Frequency *= r.ratio
				scaled[i] = k
			}
			err = out.SetTrajectory(p.ID, scaled)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("effect: detune: %w", err)
	}

	return []*partial.Set{out}, nil
}
