package effect

import (
	"fmt"

	"github.com/cwbudde/algo-additive/dsp/partial"
)

const (
	// maxHarmonics bounds the per-partial harmonic fan-out and fixes the
	// stride of the derived-ID namespace, so the mapping from source ID to
	// harmonic IDs stays stable when the count parameter changes.
	maxHarmonics = 32

	defaultRolloff = 0.5
)

// harmonicID maps a source partial to the ID of its k-th harmonic
// (k starting at 1; k=1 is the fundamental).
func harmonicID(src partial.ID, k int) partial.ID {
	return src*maxHarmonics + partial.ID(k-1)
}

// harmonicsRuntime emits count harmonics per input partial: harmonic k has
// frequency k*f and amplitude a*rolloff^(k-1). Output IDs live in a private
// namespace derived from the source ID, so two harmonics of different
// sources never collide and the same harmonic keeps its identity from block
// to block.
//
// Parameters: "count" (1..32, default 1), "rolloff" (0..1, default 0.5).
type harmonicsRuntime struct {
	count   int
	rolloff float64
}

func (r *harmonicsRuntime) Configure(_ Context, p Params) error {
	count := int(p.GetNum("count", 1))
	if count < 1 || count > maxHarmonics {
		return fmt.Errorf("effect: harmonics count must be in [1, %d]: %d", maxHarmonics, count)
	}

	rolloff := p.GetNum("rolloff", defaultRolloff)
	if rolloff < 0 || rolloff > 1 {
		return fmt.Errorf("effect: harmonics rolloff must be in [0, 1]: %g", rolloff)
	}

	r.count = count
	r.rolloff = rolloff

	return nil
}

func (r *harmonicsRuntime) Latency() int { return 0 }

func (r *harmonicsRuntime) Process(inputs []*partial.Set, _ uint64) ([]*partial.Set, error) {
	in := firstInput(inputs)
	out := partial.NewSet()

	var err error
	in.Each(func(p partial.Partial) {
		if err != nil {
			return
		}

		keys := in.Trajectory(p.ID)

		amp := p.Amplitude
		ampScale := 1.0
		for k := 1; k <= r.count; k++ {
			id := harmonicID(p.ID, k)
			h := partial.Partial{
				ID:        id,
				Frequency: p.Frequency * float64(k),
				Amplitude: amp,
				Phase:     p.Phase,
			}
			if err = out.Add(h); err != nil {
				return
			}

			// Each harmonic inherits the source trajectory with its own
			// frequency multiple and rolloff applied.
			if keys != nil {
				scaled := make([]partial.Keyframe, len(keys))
				for i, kf := range keys {
					kf.Frequency *= float64(k)
					kf.Amplitude *= ampScale
					scaled[i] = kf
				}
				if err = out.SetTrajectory(id, scaled); err != nil {
					return
				}
			}

			amp *= r.rolloff
			ampScale *= r.rolloff
		}
	})
	if err != nil {
		return nil, fmt.Errorf("effect: harmonics: %w", err)
	}

	return []*partial.Set{out}, nil
}
